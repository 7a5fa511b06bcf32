package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"pet-adoption/internal/domain/applog"
)

// appLogRepo escribe fuera de la transacción de dominio, directo sobre el pool.
type appLogRepo struct {
	q querier
	d dialect
}

func (r appLogRepo) Append(ctx context.Context, e applog.Entry) error {
	metadata, err := encodeJSON(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode app log metadata: %w", err)
	}
	_, err = r.q.ExecContext(ctx, r.d.rebind(`
		INSERT INTO app_logs (id, level, action, message, user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		e.ID, string(e.Level), e.Action, e.Message, e.UserID,
		sql.NullString{String: metadata, Valid: metadata != ""}, toMillis(e.CreatedAt),
	)
	return mapWriteErr(err, "append app log")
}

func (r appLogRepo) ListRecent(ctx context.Context, limit int) ([]applog.Entry, error) {
	q := `SELECT id, level, action, message, user_id, metadata, created_at FROM app_logs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.q.QueryContext(ctx, r.d.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]applog.Entry, 0)
	for rows.Next() {
		var (
			e         applog.Entry
			level     string
			metadata  sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &level, &e.Action, &e.Message, &e.UserID, &metadata, &createdAt); err != nil {
			return nil, err
		}
		e.Level = applog.Level(level)
		e.CreatedAt = fromMillis(createdAt)
		if metadata.Valid {
			m, err := decodeJSON(metadata.String)
			if err != nil {
				return nil, fmt.Errorf("decode app log metadata: %w", err)
			}
			e.Metadata = m
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
