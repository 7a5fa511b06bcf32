package applog

import "context"

type Repository interface {
	Append(ctx context.Context, e Entry) error
	// ListRecent devuelve las entradas más nuevas primero.
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
