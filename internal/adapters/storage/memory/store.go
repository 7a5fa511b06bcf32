package memory

import (
	"context"
	"sync"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/applog"
	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/storage"
)

// Store guarda todo en mapas detrás de un único RWMutex.
// WithinTx toma el lock exclusivo, trabaja sobre una copia y la publica en el commit:
// las transacciones quedan serializadas y un error descarta la copia completa.
// WithinTx no es reentrante.
type Store struct {
	mu sync.RWMutex
	st *state

	logMu sync.Mutex
	logs  []applog.Entry
}

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, txView{v: view{st: work}}); err != nil {
		return err
	}
	*s.st = *work
	return nil
}

func (s *Store) Read() storage.Tx {
	return txView{v: view{st: s.st, mu: &s.mu}}
}

func (s *Store) AppLogs() applog.Repository {
	return appLogRepo{s: s}
}

func (s *Store) Close() error { return nil }

type state struct {
	seq   int64
	order map[string]int64

	pets      map[string]pets.Pet
	users     map[string]users.User
	adoptions map[string]adoption.Adoption
	custodies map[string]custody.Custody
	escrows   map[string]escrow.Escrow
	events    []events.Event
}

func newState() *state {
	return &state{
		order:     map[string]int64{},
		pets:      map[string]pets.Pet{},
		users:     map[string]users.User{},
		adoptions: map[string]adoption.Adoption{},
		custodies: map[string]custody.Custody{},
		escrows:   map[string]escrow.Escrow{},
	}
}

func (s *state) clone() *state {
	c := &state{
		seq:       s.seq,
		order:     make(map[string]int64, len(s.order)),
		pets:      make(map[string]pets.Pet, len(s.pets)),
		users:     make(map[string]users.User, len(s.users)),
		adoptions: make(map[string]adoption.Adoption, len(s.adoptions)),
		custodies: make(map[string]custody.Custody, len(s.custodies)),
		escrows:   make(map[string]escrow.Escrow, len(s.escrows)),
		events:    append([]events.Event(nil), s.events...),
	}
	for k, v := range s.order {
		c.order[k] = v
	}
	for k, v := range s.pets {
		c.pets[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.adoptions {
		c.adoptions[k] = v
	}
	for k, v := range s.custodies {
		c.custodies[k] = v
	}
	for k, v := range s.escrows {
		c.escrows[k] = v
	}
	return c
}

// stamp registra el orden de inserción; desempata created_at iguales.
func (s *state) stamp(id string) {
	s.seq++
	s.order[id] = s.seq
}

// newerFirst ordena por created_at desc y luego por orden de inserción desc.
func (s *state) newerFirst(aID, bID string, aAt, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return s.order[aID] > s.order[bID]
}

// view es la forma en que los repos acceden al estado. mu es nil dentro de una
// transacción (la tx ya tiene el lock exclusivo).
type view struct {
	st *state
	mu *sync.RWMutex
}

func (v view) rlock() func() {
	if v.mu == nil {
		return func() {}
	}
	v.mu.RLock()
	return v.mu.RUnlock
}

func (v view) lock() func() {
	if v.mu == nil {
		return func() {}
	}
	v.mu.Lock()
	return v.mu.Unlock
}

type txView struct {
	v view
}

func (t txView) Pets() pets.Repository          { return petRepo{t.v} }
func (t txView) Users() users.Repository        { return userRepo{t.v} }
func (t txView) Adoptions() adoption.Repository { return adoptionRepo{t.v} }
func (t txView) Custodies() custody.Repository  { return custodyRepo{t.v} }
func (t txView) Escrows() escrow.Repository     { return escrowRepo{t.v} }
func (t txView) Events() events.Repository      { return eventRepo{t.v} }

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
