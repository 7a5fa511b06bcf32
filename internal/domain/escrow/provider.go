package escrow

import "context"

// Provider es el custodio externo de fondos. El core solo necesita la transición de
// estado; la confirmación real ocurre fuera de banda.
type Provider interface {
	Create(ctx context.Context, amount int64) (reference string, err error)
	Release(ctx context.Context, reference string) (txHash string, err error)
	Refund(ctx context.Context, reference string) (txHash string, err error)
}
