// Package lifecycle orquesta adopciones, custodias y escrows sobre una misma
// transacción: valida la transición, persiste, aplica cascadas, recalcula la
// disponibilidad de la mascota y registra los eventos. Si algo falla, nada queda escrito.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/events"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/platform/metrics"
	"pet-adoption/internal/ports/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "pet-adoption/lifecycle"

// Actor es quien origina la operación. El rol viene resuelto por la capa de auth.
type Actor struct {
	UserID  string
	IsAdmin bool
}

type Options struct {
	Store    storage.Store
	Provider escrow.Provider

	Logger  logger.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer

	// SettlementTimeout acota cada llamada al proveedor de fondos.
	SettlementTimeout time.Duration

	Now func() time.Time
}

type Coordinator struct {
	store    storage.Store
	ledger   *escrow.Ledger
	trust    *users.TrustAdjuster
	resolver *pets.Resolver

	log     logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

func New(opts Options) *Coordinator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	trust := users.NewTrustAdjuster().WithClock(now)
	return &Coordinator{
		store:    opts.Store,
		ledger:   escrow.NewLedger(opts.Provider, trust).WithClock(now).WithProviderTimeout(opts.SettlementTimeout),
		trust:    trust,
		resolver: pets.NewResolver().WithClock(now),
		log:      log.With(map[string]any{"component": "lifecycle"}),
		metrics:  m,
		tracer:   tracer,
		now:      now,
	}
}

func (c *Coordinator) eventLog(tx storage.Tx) *events.Service {
	return events.NewService(tx.Events()).WithClock(c.now)
}

func (c *Coordinator) petsSvc(repo pets.Repository) *pets.Service {
	return pets.NewService(repo).WithClock(c.now)
}

func (c *Coordinator) usersSvc(repo users.Repository) *users.Service {
	return users.NewService(repo).WithClock(c.now)
}

// recordAvailability recalcula la disponibilidad dentro de la tx y deja un
// PET_STATUS_CHANGED si cambió.
func (c *Coordinator) recordAvailability(ctx context.Context, tx storage.Tx, petID string, before pets.Availability, trigger events.EventType, actorID string) (pets.Availability, error) {
	after, err := c.resolver.Resolve(ctx, tx, petID)
	if err != nil {
		return "", err
	}
	if _, err := c.resolver.LogAvailabilityChange(ctx, c.eventLog(tx), petID, before, after, string(trigger), actorID); err != nil {
		return "", err
	}
	return after, nil
}

func (c *Coordinator) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "lifecycle."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Coordinator) observeTransition(entity, from, to string, err error) {
	c.metrics.Transitions.WithLabelValues(entity, from, to, outcome(err)).Inc()
}

func (c *Coordinator) observeEscrow(op string, err error) {
	c.metrics.EscrowOps.WithLabelValues(op, outcome(err)).Inc()
}

// logResult deja el resultado en el logger: info si se confirmó, warn si el core lo
// rechazó, error si fue una falla interna.
func (c *Coordinator) logResult(msg string, err error, fields map[string]any) {
	if err == nil {
		c.log.Info(msg, fields)
		return
	}
	fields["err"] = err.Error()
	if domainerr.HTTPStatus(err) >= 500 {
		c.log.Error(msg+" failed", fields)
		return
	}
	c.log.Warn(msg+" rejected", fields)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domainerr.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domainerr.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domainerr.ErrConflict):
		return "conflict"
	case errors.Is(err, domainerr.ErrNotFound):
		return "not_found"
	case errors.Is(err, domainerr.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func requireActor(actor Actor) error {
	if actor.UserID == "" {
		return domainerr.Forbidden("authenticated actor required")
	}
	return nil
}
