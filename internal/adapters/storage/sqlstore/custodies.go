package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/domainerr"
)

const custodyColumns = `id, pet_id, holder_id, status, type, start_date, end_date, deposit_amount, escrow_id, created_at, updated_at`

type custodyRepo struct {
	t txView
}

func (r custodyRepo) Create(ctx context.Context, c custody.Custody) error {
	var deposit sql.NullInt64
	if c.DepositAmount != nil {
		deposit = sql.NullInt64{Int64: *c.DepositAmount, Valid: true}
	}
	_, err := r.t.exec(ctx, `
		INSERT INTO custodies (`+custodyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PetID, c.HolderID, string(c.Status), string(c.Type),
		toMillis(c.StartDate), toMillis(c.EndDate), deposit, nullString(c.EscrowID),
		toMillis(c.CreatedAt), toMillis(c.UpdatedAt),
	)
	return mapWriteErr(err, "insert custody "+c.ID)
}

func (r custodyRepo) GetByID(ctx context.Context, id string) (custody.Custody, error) {
	row := r.t.queryRow(ctx, `SELECT `+custodyColumns+` FROM custodies WHERE id = ?`, id)
	c, err := scanCustody(row)
	if err != nil {
		return custody.Custody{}, mapReadErr(err, "custody %s", id)
	}
	return c, nil
}

func (r custodyRepo) GetByEscrowID(ctx context.Context, escrowID string) (custody.Custody, error) {
	row := r.t.queryRow(ctx, `SELECT `+custodyColumns+` FROM custodies WHERE escrow_id = ?`, escrowID)
	c, err := scanCustody(row)
	if err != nil {
		return custody.Custody{}, mapReadErr(err, "custody for escrow %s", escrowID)
	}
	return c, nil
}

func (r custodyRepo) FindActiveForPet(ctx context.Context, petID string) (custody.Custody, error) {
	row := r.t.queryRow(ctx, `
		SELECT `+custodyColumns+`
		FROM custodies
		WHERE pet_id = ? AND status = ?
		ORDER BY created_at DESC, `+r.t.d.orderSeq+` DESC
		LIMIT 1`, petID, string(custody.StatusActive))
	c, err := scanCustody(row)
	if err != nil {
		return custody.Custody{}, mapReadErr(err, "active custody for pet %s", petID)
	}
	return c, nil
}

func (r custodyRepo) ListActiveForPets(ctx context.Context, petIDs []string) ([]custody.Custody, error) {
	out := make([]custody.Custody, 0)
	if len(petIDs) == 0 {
		return out, nil
	}
	marks, args := placeholders(petIDs)

	rows, err := r.t.query(ctx, `
		SELECT `+custodyColumns+`
		FROM custodies
		WHERE status = ? AND pet_id IN (`+marks+`)
		ORDER BY created_at DESC, `+r.t.d.orderSeq+` DESC`,
		append([]any{string(custody.StatusActive)}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCustody(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r custodyRepo) Finish(ctx context.Context, id string, from, to custody.Status, endDate, at time.Time) error {
	res, err := r.t.exec(ctx, `
		UPDATE custodies SET status = ?, end_date = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), toMillis(endDate), toMillis(at), id, string(from),
	)
	if err != nil {
		return mapWriteErr(err, "finish custody "+id)
	}
	ok, err := affectedOne(res)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return domainerr.Conflict("custody %s is %s, expected %s", id, current.Status, from)
}

func scanCustody(s rowScanner) (custody.Custody, error) {
	var (
		c                    custody.Custody
		status, typ          string
		start, end           int64
		deposit              sql.NullInt64
		escrowID             sql.NullString
		createdAt, updatedAt int64
	)
	if err := s.Scan(
		&c.ID, &c.PetID, &c.HolderID, &status, &typ, &start, &end,
		&deposit, &escrowID, &createdAt, &updatedAt,
	); err != nil {
		return custody.Custody{}, err
	}
	c.Status = custody.Status(status)
	c.Type = custody.Type(typ)
	c.StartDate = fromMillis(start)
	c.EndDate = fromMillis(end)
	c.DepositAmount = int64Ptr(deposit)
	c.EscrowID = stringPtr(escrowID)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return c, nil
}
