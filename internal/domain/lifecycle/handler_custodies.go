package lifecycle

import (
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/domain/custody"
	"pet-adoption/internal/domain/pets"

	"github.com/go-chi/chi/v5"
)

type createCustodyRequest struct {
	PetID         string `json:"pet_id"`
	StartDate     string `json:"start_date"` // RFC3339 o YYYY-MM-DD, opcional (hoy)
	DurationDays  int    `json:"duration_days"`
	DepositAmount *int64 `json:"deposit_amount"`
}

type transitionCustodyRequest struct {
	Status string `json:"status"`
}

type custodyResponse struct {
	ID              string            `json:"id"`
	PetID           string            `json:"pet_id"`
	HolderID        string            `json:"holder_id"`
	Status          custody.Status    `json:"status"`
	Type            custody.Type      `json:"type"`
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	DepositAmount   *int64            `json:"deposit_amount,omitempty"`
	EscrowID        *string           `json:"escrow_id,omitempty"`
	Escrow          *escrowResponse   `json:"escrow,omitempty"`
	PetAvailability pets.Availability `json:"pet_availability,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// createCustodyHandler godoc
// @Summary Iniciar custodia temporal
// @Description Abre una custodia ACTIVE con el usuario autenticado como holder. Duración entre 1 y 90 días.
// @Description Con deposit_amount se crea un escrow de depósito en la misma operación.
// @Tags custodies
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createCustodyRequest true "Datos de la custodia"
// @Success 201 {object} custodyResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /custodies [post]
func createCustodyHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		var req createCustodyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		start, ok := parseStartDate(req.StartDate)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "start_date must be RFC3339 or YYYY-MM-DD"})
			return
		}

		res, err := c.CreateCustody(r.Context(), actor, CreateCustodyInput{
			PetID:         req.PetID,
			StartDate:     start,
			DurationDays:  req.DurationDays,
			DepositAmount: req.DepositAmount,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCustodyResponse(res))
	}
}

// getCustodyHandler godoc
// @Summary Obtener custodia
// @Description Visible para el holder, el dueño de la mascota y admin.
// @Tags custodies
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param custodyID path string true "ID de la custodia"
// @Success 200 {object} custodyResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /custodies/{custodyID} [get]
func getCustodyHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}
		cu, err := c.GetCustody(r.Context(), chi.URLParam(r, "custodyID"), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCustodyResponse(CustodyResult{Custody: cu}))
	}
}

// custodyTransitionsHandler godoc
// @Summary Transiciones disponibles de una custodia
// @Description Estado actual con su descripción, destinos permitidos y si es terminal.
// @Tags custodies
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param custodyID path string true "ID de la custodia"
// @Success 200 {object} transitionOptionsResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /custodies/{custodyID}/transitions [get]
func custodyTransitionsHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}
		opts, err := c.CustodyTransitions(r.Context(), chi.URLParam(r, "custodyID"), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransitionOptionsResponse(opts))
	}
}

// transitionCustodyHandler godoc
// @Summary Cerrar custodia
// @Description ACTIVE -> RETURNED | CANCELLED | VIOLATION. RETURNED suma trust al holder; VIOLATION lo penaliza.
// @Description Un depósito todavía en CREATED se reembolsa.
// @Tags custodies
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param custodyID path string true "ID de la custodia"
// @Param payload body transitionCustodyRequest true "Estado destino"
// @Success 200 {object} custodyResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 422 {object} transitionErrorResponse
// @Failure 500 {object} errorResponse
// @Router /custodies/{custodyID}/status [patch]
func transitionCustodyHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		var req transitionCustodyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		target := custody.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
		res, err := c.TransitionCustodyStatus(r.Context(), chi.URLParam(r, "custodyID"), target, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toCustodyResponse(res))
	}
}

func parseStartDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func toCustodyResponse(res CustodyResult) custodyResponse {
	cu := res.Custody
	out := custodyResponse{
		ID:              cu.ID,
		PetID:           cu.PetID,
		HolderID:        cu.HolderID,
		Status:          cu.Status,
		Type:            cu.Type,
		StartDate:       cu.StartDate,
		EndDate:         cu.EndDate,
		DepositAmount:   cu.DepositAmount,
		EscrowID:        cu.EscrowID,
		PetAvailability: res.Availability,
		CreatedAt:       cu.CreatedAt,
		UpdatedAt:       cu.UpdatedAt,
	}
	if res.Escrow != nil {
		e := toEscrowResponse(*res.Escrow)
		out.Escrow = &e
	}
	return out
}
