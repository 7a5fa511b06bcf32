package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/events"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 500
)

const eventColumns = `id, entity_type, entity_id, event_type, actor_id, tx_hash, payload, metadata, created_at`

type eventRepo struct {
	t txView
}

func (r eventRepo) Append(ctx context.Context, e events.Event) error {
	if strings.TrimSpace(e.ID) == "" {
		return domainerr.InvalidInput("event id required")
	}
	payload, err := encodeJSON(e.Payload)
	if err != nil {
		return fmt.Errorf("encode event payload: %w", err)
	}
	if payload == "" {
		payload = "{}"
	}
	metadata, err := encodeJSON(e.Metadata)
	if err != nil {
		return fmt.Errorf("encode event metadata: %w", err)
	}

	_, err = r.t.exec(ctx, `
		INSERT INTO event_log (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.EntityType), e.EntityID, string(e.Type), e.ActorID, e.TxHash,
		payload, sql.NullString{String: metadata, Valid: metadata != ""}, toMillis(e.CreatedAt),
	)
	return mapWriteErr(err, "append event "+string(e.Type))
}

// ListByEntity devuelve el historial en orden de inserción.
func (r eventRepo) ListByEntity(ctx context.Context, entityType events.EntityType, entityID string) ([]events.Event, error) {
	rows, err := r.t.query(ctx, `
		SELECT `+eventColumns+`
		FROM event_log
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY seq ASC`, string(entityType), entityID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// List devuelve los eventos más recientes primero.
func (r eventRepo) List(ctx context.Context, filter events.ListFilter) ([]events.Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	where := make([]string, 0, 3)
	args := make([]any, 0, 3+len(filter.Types))
	if filter.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, string(filter.EntityType))
	}
	if filter.EntityID != "" {
		where = append(where, "entity_id = ?")
		args = append(args, filter.EntityID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		marks, typeArgs := placeholders(types)
		where = append(where, "event_type IN ("+marks+")")
		args = append(args, typeArgs...)
	}

	q := `SELECT ` + eventColumns + ` FROM event_log`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.t.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]events.Event, error) {
	defer rows.Close()

	out := make([]events.Event, 0)
	for rows.Next() {
		var (
			e               events.Event
			entityType, typ string
			payload         string
			metadata        sql.NullString
			createdAt       int64
		)
		if err := rows.Scan(
			&e.ID, &entityType, &e.EntityID, &typ, &e.ActorID, &e.TxHash,
			&payload, &metadata, &createdAt,
		); err != nil {
			return nil, err
		}
		e.EntityType = events.EntityType(entityType)
		e.Type = events.EventType(typ)
		e.CreatedAt = fromMillis(createdAt)

		p, err := decodeJSON(payload)
		if err != nil {
			return nil, fmt.Errorf("decode payload of event %s: %w", e.ID, err)
		}
		if p == nil {
			p = map[string]any{}
		}
		e.Payload = p
		if metadata.Valid {
			m, err := decodeJSON(metadata.String)
			if err != nil {
				return nil, fmt.Errorf("decode metadata of event %s: %w", e.ID, err)
			}
			e.Metadata = m
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func encodeJSON(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}
