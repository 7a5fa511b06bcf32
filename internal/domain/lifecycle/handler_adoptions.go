package lifecycle

import (
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/domain/adoption"
	"pet-adoption/internal/domain/pets"

	"github.com/go-chi/chi/v5"
)

type requestAdoptionRequest struct {
	PetID string `json:"pet_id"`
	Notes string `json:"notes"`
}

type transitionAdoptionRequest struct {
	Status       string `json:"status"`
	EscrowAmount int64  `json:"escrow_amount"`
	Reason       string `json:"reason"`
}

type adoptionResponse struct {
	ID              string            `json:"id"`
	PetID           string            `json:"pet_id"`
	AdopterID       string            `json:"adopter_id"`
	OwnerID         string            `json:"owner_id"`
	Status          adoption.Status   `json:"status"`
	Notes           string            `json:"notes"`
	EscrowID        *string           `json:"escrow_id,omitempty"`
	Escrow          *escrowResponse   `json:"escrow,omitempty"`
	PetAvailability pets.Availability `json:"pet_availability,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// requestAdoptionHandler godoc
// @Summary Solicitar adopción
// @Description Crea una solicitud REQUESTED del usuario autenticado. 409 si la mascota ya tiene una adopción abierta.
// @Tags adoptions
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body requestAdoptionRequest true "Mascota y notas del adoptante"
// @Success 201 {object} adoptionResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /adoptions [post]
func requestAdoptionHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		var req requestAdoptionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := c.RequestAdoption(r.Context(), actor, RequestAdoptionInput{
			PetID: req.PetID,
			Notes: req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAdoptionResponse(res))
	}
}

// getAdoptionHandler godoc
// @Summary Obtener adopción
// @Description Visible para el adoptante, el dueño de la mascota y admin.
// @Tags adoptions
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param adoptionID path string true "ID de la adopción"
// @Success 200 {object} adoptionResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /adoptions/{adoptionID} [get]
func getAdoptionHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}
		a, err := c.GetAdoption(r.Context(), chi.URLParam(r, "adoptionID"), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdoptionResponse(AdoptionResult{Adoption: a}))
	}
}

// adoptionTransitionsHandler godoc
// @Summary Transiciones disponibles de una adopción
// @Description Estado actual, destinos permitidos y si es terminal. Para admin incluye los saltos de override.
// @Tags adoptions
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: user o admin"
// @Param Authorization header string false "Bearer token en producción"
// @Param adoptionID path string true "ID de la adopción"
// @Success 200 {object} transitionOptionsResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /adoptions/{adoptionID}/transitions [get]
func adoptionTransitionsHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}
		opts, err := c.AdoptionTransitions(r.Context(), chi.URLParam(r, "adoptionID"), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTransitionOptionsResponse(opts))
	}
}

// transitionAdoptionHandler godoc
// @Summary Cambiar estado de una adopción
// @Description Aplica una transición validada. ESCROW_FUNDED crea el escrow (escrow_amount) si no hay uno vinculado;
// @Description COMPLETED libera y REFUNDED reembolsa el escrow. 422 con los estados permitidos si la transición no es legal.
// @Tags adoptions
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: user o admin"
// @Param Authorization header string false "Bearer token en producción"
// @Param adoptionID path string true "ID de la adopción"
// @Param payload body transitionAdoptionRequest true "Estado destino"
// @Success 200 {object} adoptionResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 422 {object} transitionErrorResponse
// @Failure 500 {object} errorResponse
// @Router /adoptions/{adoptionID}/status [patch]
func transitionAdoptionHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		var req transitionAdoptionRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := c.TransitionAdoptionStatus(r.Context(), chi.URLParam(r, "adoptionID"), TransitionAdoptionInput{
			Target:       adoption.Status(strings.ToUpper(strings.TrimSpace(req.Status))),
			EscrowAmount: req.EscrowAmount,
			Reason:       req.Reason,
		}, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAdoptionResponse(res))
	}
}

func toAdoptionResponse(res AdoptionResult) adoptionResponse {
	a := res.Adoption
	out := adoptionResponse{
		ID:              a.ID,
		PetID:           a.PetID,
		AdopterID:       a.AdopterID,
		OwnerID:         a.OwnerID,
		Status:          a.Status,
		Notes:           a.Notes,
		EscrowID:        a.EscrowID,
		PetAvailability: res.Availability,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if res.Escrow != nil {
		e := toEscrowResponse(*res.Escrow)
		out.Escrow = &e
	}
	return out
}
