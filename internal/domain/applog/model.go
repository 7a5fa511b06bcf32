package applog

import "time"

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry es una línea del log de diagnóstico. No forma parte del historial de dominio:
// perderla nunca invalida una operación.
type Entry struct {
	ID       string
	Level    Level
	Action   string
	Message  string
	UserID   string
	Metadata map[string]any

	CreatedAt time.Time
}
