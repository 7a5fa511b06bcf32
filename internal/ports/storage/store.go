package storage

import (
	"context"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/applog"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
)

// Tx expone los repositorios ligados a una misma transacción (o a una vista de solo
// lectura, ver Store.Read). Satisface escrow.Tx, users.TrustTx y pets.Source.
type Tx interface {
	Pets() pets.Repository
	Users() users.Repository
	Adoptions() adoption.Repository
	Custodies() custody.Repository
	Escrows() escrow.Repository
	Events() events.Repository
}

// Store es el puerto de persistencia del coordinador.
type Store interface {
	// WithinTx ejecuta fn en una transacción: commit si fn devuelve nil, rollback en
	// cualquier otro caso (incluido panic). El error de fn se devuelve sin envolver.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Read devuelve repositorios fuera de transacción para consultas.
	Read() Tx

	// AppLogs escribe fuera de la transacción de dominio.
	AppLogs() applog.Repository

	Close() error
}

var (
	_ escrow.Tx     = Tx(nil)
	_ users.TrustTx = Tx(nil)
	_ pets.Source   = Tx(nil)
)
