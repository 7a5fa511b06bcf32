package lifecycle

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-adoption/internal/domain/events"

	"github.com/go-chi/chi/v5"
)

type eventResponse struct {
	ID         string            `json:"id"`
	EntityType events.EntityType `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	EventType  events.EventType  `json:"event_type"`
	ActorID    string            `json:"actor_id,omitempty"`
	TxHash     string            `json:"tx_hash,omitempty"`
	Payload    map[string]any    `json:"payload"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// listEventsHandler godoc
// @Summary Listar eventos
// @Description Vista de auditoría (solo admin), más recientes primero. limit por defecto 100, máximo 500.
// @Tags events
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: user o admin"
// @Param Authorization header string false "Bearer token en producción"
// @Param entity_type query string false "ADOPTION, CUSTODY, ESCROW, PET o USER"
// @Param entity_id query string false "ID de la entidad"
// @Param types query string false "Lista CSV de tipos de evento"
// @Param limit query int false "Cantidad máxima"
// @Success 200 {array} eventResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Router /events [get]
func listEventsHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		filter := events.ListFilter{
			EntityType: events.EntityType(strings.ToUpper(strings.TrimSpace(q.Get("entity_type")))),
			EntityID:   strings.TrimSpace(q.Get("entity_id")),
		}
		for _, t := range splitCSV(q.Get("types")) {
			filter.Types = append(filter.Types, events.EventType(strings.ToUpper(t)))
		}
		if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
				return
			}
			filter.Limit = n
		}

		list, err := c.ListEvents(r.Context(), actor, filter)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponses(list))
	}
}

// entityHistoryHandler godoc
// @Summary Historial de una entidad
// @Description Devuelve los eventos de la entidad en orden cronológico. Visible para admin y para quien puede leer la entidad.
// @Tags events
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param entityType path string true "ADOPTION, CUSTODY, ESCROW, PET o USER"
// @Param entityID path string true "ID de la entidad"
// @Success 200 {array} eventResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /events/{entityType}/{entityID} [get]
func entityHistoryHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		entityType := events.EntityType(strings.ToUpper(chi.URLParam(r, "entityType")))
		list, err := c.History(r.Context(), actor, entityType, chi.URLParam(r, "entityID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponses(list))
	}
}

func toEventResponses(list []events.Event) []eventResponse {
	out := make([]eventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, eventResponse{
			ID:         e.ID,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			EventType:  e.Type,
			ActorID:    e.ActorID,
			TxHash:     e.TxHash,
			Payload:    e.Payload,
			Metadata:   e.Metadata,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}
