package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/domainerr"
)

const adoptionColumns = `id, pet_id, adopter_id, owner_id, status, notes, escrow_id, created_at, updated_at`

type adoptionRepo struct {
	t txView
}

func (r adoptionRepo) Create(ctx context.Context, a adoption.Adoption) error {
	_, err := r.t.exec(ctx, `
		INSERT INTO adoptions (`+adoptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.PetID, a.AdopterID, a.OwnerID, string(a.Status), a.Notes,
		nullString(a.EscrowID), toMillis(a.CreatedAt), toMillis(a.UpdatedAt),
	)
	return mapWriteErr(err, "insert adoption "+a.ID)
}

func (r adoptionRepo) GetByID(ctx context.Context, id string) (adoption.Adoption, error) {
	row := r.t.queryRow(ctx, `SELECT `+adoptionColumns+` FROM adoptions WHERE id = ?`, id)
	a, err := scanAdoption(row)
	if err != nil {
		return adoption.Adoption{}, mapReadErr(err, "adoption %s", id)
	}
	return a, nil
}

func (r adoptionRepo) GetByEscrowID(ctx context.Context, escrowID string) (adoption.Adoption, error) {
	row := r.t.queryRow(ctx, `SELECT `+adoptionColumns+` FROM adoptions WHERE escrow_id = ?`, escrowID)
	a, err := scanAdoption(row)
	if err != nil {
		return adoption.Adoption{}, mapReadErr(err, "adoption for escrow %s", escrowID)
	}
	return a, nil
}

func (r adoptionRepo) FindOpenForPet(ctx context.Context, petID string) (adoption.Adoption, error) {
	open := adoption.OpenStatuses()
	statuses := make([]string, len(open))
	for i, s := range open {
		statuses[i] = string(s)
	}
	marks, args := placeholders(statuses)

	row := r.t.queryRow(ctx, `
		SELECT `+adoptionColumns+`
		FROM adoptions
		WHERE pet_id = ? AND status IN (`+marks+`)
		ORDER BY created_at DESC, `+r.t.d.orderSeq+` DESC
		LIMIT 1`, append([]any{petID}, args...)...)
	a, err := scanAdoption(row)
	if err != nil {
		return adoption.Adoption{}, mapReadErr(err, "open adoption for pet %s", petID)
	}
	return a, nil
}

func (r adoptionRepo) LatestForPet(ctx context.Context, petID string) (adoption.Adoption, error) {
	row := r.t.queryRow(ctx, `
		SELECT `+adoptionColumns+`
		FROM adoptions
		WHERE pet_id = ?
		ORDER BY created_at DESC, `+r.t.d.orderSeq+` DESC
		LIMIT 1`, petID)
	a, err := scanAdoption(row)
	if err != nil {
		return adoption.Adoption{}, mapReadErr(err, "adoption for pet %s", petID)
	}
	return a, nil
}

func (r adoptionRepo) ListForPets(ctx context.Context, petIDs []string) ([]adoption.Adoption, error) {
	out := make([]adoption.Adoption, 0)
	if len(petIDs) == 0 {
		return out, nil
	}
	marks, args := placeholders(petIDs)

	rows, err := r.t.query(ctx, `
		SELECT `+adoptionColumns+`
		FROM adoptions
		WHERE pet_id IN (`+marks+`)
		ORDER BY created_at DESC, `+r.t.d.orderSeq+` DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAdoption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r adoptionRepo) UpdateStatus(ctx context.Context, id string, from, to adoption.Status, at time.Time) error {
	res, err := r.t.exec(ctx,
		`UPDATE adoptions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), toMillis(at), id, string(from),
	)
	if err != nil {
		return mapWriteErr(err, "update adoption "+id)
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
	return domainerr.Conflict("adoption %s is %s, expected %s", id, current.Status, from)
}

func (r adoptionRepo) LinkEscrow(ctx context.Context, id, escrowID string, at time.Time) error {
	res, err := r.t.exec(ctx,
		`UPDATE adoptions SET escrow_id = ?, updated_at = ? WHERE id = ? AND escrow_id IS NULL`,
		escrowID, toMillis(at), id,
	)
	if err != nil {
		return mapWriteErr(err, "link escrow to adoption "+id)
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
	if current.EscrowID != nil && *current.EscrowID == escrowID {
		return nil
	}
	return domainerr.Conflict("escrow link for adoption %s already set", id)
}

func scanAdoption(s rowScanner) (adoption.Adoption, error) {
	var (
		a                    adoption.Adoption
		status               string
		escrowID             sql.NullString
		createdAt, updatedAt int64
	)
	if err := s.Scan(
		&a.ID, &a.PetID, &a.AdopterID, &a.OwnerID, &status, &a.Notes,
		&escrowID, &createdAt, &updatedAt,
	); err != nil {
		return adoption.Adoption{}, err
	}
	a.Status = adoption.Status(status)
	a.EscrowID = stringPtr(escrowID)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	return a, nil
}
