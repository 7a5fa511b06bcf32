package stub

import (
	"context"
	"strings"
	"testing"
)

func TestProvider_CreateAndSettle(t *testing.T) {
	p := New()
	ctx := context.Background()

	ref, err := p.Create(ctx, 5000)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(ref, "ESCROW_") {
		t.Fatalf("unexpected reference %q", ref)
	}

	h1, err := p.Release(ctx, ref)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	h2, err := p.Refund(ctx, ref)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if h1 == h2 || !strings.HasPrefix(h1, "stub-release-") || !strings.HasPrefix(h2, "stub-refund-") {
		t.Fatalf("unexpected hashes %q %q", h1, h2)
	}
}

func TestProvider_Rejects(t *testing.T) {
	p := New()

	if _, err := p.Create(context.Background(), 0); err == nil {
		t.Fatalf("expected error for zero amount")
	}
	if _, err := p.Release(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty reference")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Refund(ctx, "ref"); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
