package applog

import (
	"context"
	"strings"
	"time"

	"pet-adoption/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder escribe en el log de diagnóstico sin propagar errores al caller.
type Recorder struct {
	repo     Repository
	log      logger.Logger
	failures prometheus.Counter
	now      func() time.Time
}

// NewRecorder acepta log y failures nil.
func NewRecorder(repo Repository, log logger.Logger, failures prometheus.Counter) *Recorder {
	return &Recorder{
		repo:     repo,
		log:      log,
		failures: failures,
		now:      time.Now,
	}
}

func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	if now != nil {
		r.now = now
	}
	return r
}

type RecordInput struct {
	Level    Level
	Action   string
	Message  string
	UserID   string
	Metadata map[string]any
}

// Record persiste la entrada. Si falla, lo deja en el logger de plataforma, suma al
// contador y devuelve ok=false.
func (r *Recorder) Record(ctx context.Context, in RecordInput) (Entry, bool) {
	if r == nil || r.repo == nil {
		return Entry{}, false
	}

	lvl := in.Level
	if lvl == "" {
		lvl = LevelInfo
	}
	meta := in.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	e := Entry{
		ID:        uuid.NewString(),
		Level:     lvl,
		Action:    strings.TrimSpace(in.Action),
		Message:   in.Message,
		UserID:    strings.TrimSpace(in.UserID),
		Metadata:  meta,
		CreatedAt: r.now().UTC(),
	}

	if err := r.repo.Append(ctx, e); err != nil {
		if r.failures != nil {
			r.failures.Inc()
		}
		if r.log != nil {
			r.log.Error("applog write failed", map[string]any{
				"action": e.Action,
				"err":    err.Error(),
			})
		}
		return Entry{}, false
	}
	return e, true
}

func (r *Recorder) Info(ctx context.Context, action, message, userID string, metadata map[string]any) {
	r.Record(ctx, RecordInput{Level: LevelInfo, Action: action, Message: message, UserID: userID, Metadata: metadata})
}

func (r *Recorder) Warn(ctx context.Context, action, message, userID string, metadata map[string]any) {
	r.Record(ctx, RecordInput{Level: LevelWarn, Action: action, Message: message, UserID: userID, Metadata: metadata})
}

func (r *Recorder) Error(ctx context.Context, action, message, userID string, metadata map[string]any) {
	r.Record(ctx, RecordInput{Level: LevelError, Action: action, Message: message, UserID: userID, Metadata: metadata})
}
