package memory

import (
	"context"
	"strings"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
)

type escrowRepo struct {
	v view
}

func (r escrowRepo) Create(ctx context.Context, e escrow.Escrow) error {
	defer r.v.lock()()

	if strings.TrimSpace(e.ID) == "" {
		return domainerr.InvalidInput("escrow id required")
	}
	if _, exists := r.v.st.escrows[e.ID]; exists {
		return domainerr.Conflict("escrow %s already exists", e.ID)
	}
	r.v.st.escrows[e.ID] = e
	r.v.st.stamp(e.ID)
	return nil
}

func (r escrowRepo) GetByID(ctx context.Context, id string) (escrow.Escrow, error) {
	defer r.v.rlock()()

	e, ok := r.v.st.escrows[id]
	if !ok {
		return escrow.Escrow{}, domainerr.NotFound("escrow %s", id)
	}
	return e, nil
}

func (r escrowRepo) Settle(ctx context.Context, id string, to escrow.Status, txHash string, at time.Time) error {
	defer r.v.lock()()

	e, ok := r.v.st.escrows[id]
	if !ok {
		return domainerr.NotFound("escrow %s", id)
	}
	if e.Status != escrow.StatusCreated {
		return domainerr.Conflict("escrow %s is already %s", id, e.Status)
	}

	hash := txHash
	switch to {
	case escrow.StatusReleased:
		e.ReleaseTxHash = &hash
	case escrow.StatusRefunded:
		e.RefundTxHash = &hash
	default:
		return domainerr.InvalidInput("escrow cannot settle to %s", to)
	}
	e.Status = to
	e.UpdatedAt = at
	r.v.st.escrows[id] = e
	return nil
}
