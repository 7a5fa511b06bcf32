package memory

import (
	"context"

	"pet-adoption/internal/domain/applog"
)

type appLogRepo struct {
	s *Store
}

func (r appLogRepo) Append(ctx context.Context, e applog.Entry) error {
	r.s.logMu.Lock()
	defer r.s.logMu.Unlock()

	r.s.logs = append(r.s.logs, e)
	return nil
}

func (r appLogRepo) ListRecent(ctx context.Context, limit int) ([]applog.Entry, error) {
	r.s.logMu.Lock()
	defer r.s.logMu.Unlock()

	if limit <= 0 || limit > len(r.s.logs) {
		limit = len(r.s.logs)
	}
	out := make([]applog.Entry, 0, limit)
	for i := len(r.s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.s.logs[i])
	}
	return out, nil
}
