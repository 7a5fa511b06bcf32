package stub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/escrow"

	"github.com/google/uuid"
)

// Provider genera referencias y tx hashes placeholder. No mueve fondos.
type Provider struct {
	now func() time.Time
}

func New() *Provider {
	return &Provider{now: time.Now}
}

var _ escrow.Provider = (*Provider)(nil)

func (p *Provider) Create(ctx context.Context, amount int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", errors.New("stub: amount must be positive")
	}
	return fmt.Sprintf("ESCROW_%d_%s", p.now().UnixMilli(), shortID()), nil
}

func (p *Provider) Release(ctx context.Context, reference string) (string, error) {
	return p.txHash(ctx, "release", reference)
}

func (p *Provider) Refund(ctx context.Context, reference string) (string, error) {
	return p.txHash(ctx, "refund", reference)
}

func (p *Provider) txHash(ctx context.Context, op, reference string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(reference) == "" {
		return "", fmt.Errorf("stub: %s requires a reference", op)
	}
	return "stub-" + op + "-" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
