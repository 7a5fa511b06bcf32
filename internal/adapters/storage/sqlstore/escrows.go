package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
)

type escrowRepo struct {
	t txView
}

func (r escrowRepo) Create(ctx context.Context, e escrow.Escrow) error {
	_, err := r.t.exec(ctx, `
		INSERT INTO escrows (id, amount, status, reference, release_tx_hash, refund_tx_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Amount, string(e.Status), e.Reference,
		nullString(e.ReleaseTxHash), nullString(e.RefundTxHash),
		toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
	)
	return mapWriteErr(err, "insert escrow "+e.ID)
}

func (r escrowRepo) GetByID(ctx context.Context, id string) (escrow.Escrow, error) {
	var (
		e                    escrow.Escrow
		status               string
		release, refund      sql.NullString
		createdAt, updatedAt int64
	)
	err := r.t.queryRow(ctx, `
		SELECT id, amount, status, reference, release_tx_hash, refund_tx_hash, created_at, updated_at
		FROM escrows WHERE id = ?`, id,
	).Scan(&e.ID, &e.Amount, &status, &e.Reference, &release, &refund, &createdAt, &updatedAt)
	if err != nil {
		return escrow.Escrow{}, mapReadErr(err, "escrow %s", id)
	}
	e.Status = escrow.Status(status)
	e.ReleaseTxHash = stringPtr(release)
	e.RefundTxHash = stringPtr(refund)
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(updatedAt)
	return e, nil
}

func (r escrowRepo) Settle(ctx context.Context, id string, to escrow.Status, txHash string, at time.Time) error {
	var column string
	switch to {
	case escrow.StatusReleased:
		column = "release_tx_hash"
	case escrow.StatusRefunded:
		column = "refund_tx_hash"
	default:
		return domainerr.InvalidInput("escrow cannot settle to %s", to)
	}

	res, err := r.t.exec(ctx, `
		UPDATE escrows SET status = ?, `+column+` = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), txHash, toMillis(at), id, string(escrow.StatusCreated),
	)
	if err != nil {
		return mapWriteErr(err, "settle escrow "+id)
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
	return domainerr.Conflict("escrow %s is already %s", id, current.Status)
}
