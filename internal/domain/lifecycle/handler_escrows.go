package lifecycle

import (
	"context"
	"net/http"
	"time"

	"pet-adoption/internal/domain/escrow"
	"pet-adoption/internal/domain/pets"

	"github.com/go-chi/chi/v5"
)

type escrowResponse struct {
	ID              string            `json:"id"`
	Amount          int64             `json:"amount"`
	Status          escrow.Status     `json:"status"`
	Reference       string            `json:"reference"`
	ReleaseTxHash   *string           `json:"release_tx_hash,omitempty"`
	RefundTxHash    *string           `json:"refund_tx_hash,omitempty"`
	PetID           string            `json:"pet_id,omitempty"`
	PetAvailability pets.Availability `json:"pet_availability,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// getEscrowHandler godoc
// @Summary Obtener escrow
// @Description Visible para admin y para las partes de la adopción o custodia vinculada.
// @Tags escrows
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param escrowID path string true "ID del escrow"
// @Success 200 {object} escrowResponse
// @Failure 401 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /escrows/{escrowID} [get]
func getEscrowHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}
		e, err := c.GetEscrow(r.Context(), chi.URLParam(r, "escrowID"), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEscrowResponse(e))
	}
}

// releaseEscrowHandler godoc
// @Summary Liberar escrow
// @Description Solo admin. Si el escrow está vinculado a una adopción ESCROW_FUNDED, la completa y transfiere la mascota.
// @Tags escrows
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: user o admin"
// @Param Authorization header string false "Bearer token en producción"
// @Param escrowID path string true "ID del escrow"
// @Success 200 {object} escrowResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /escrows/{escrowID}/release [post]
func releaseEscrowHandler(c *Coordinator) http.HandlerFunc {
	return settleEscrowHandler(c, c.ReleaseEscrow)
}

// refundEscrowHandler godoc
// @Summary Reembolsar escrow
// @Description Solo admin. Una adopción ESCROW_FUNDED vinculada pasa a REFUNDED; una custodia en VIOLATION penaliza al holder.
// @Tags escrows
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: user o admin"
// @Param Authorization header string false "Bearer token en producción"
// @Param escrowID path string true "ID del escrow"
// @Success 200 {object} escrowResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /escrows/{escrowID}/refund [post]
func refundEscrowHandler(c *Coordinator) http.HandlerFunc {
	return settleEscrowHandler(c, c.RefundEscrow)
}

type settleFunc func(ctx context.Context, escrowID string, actor Actor) (EscrowResult, error)

func settleEscrowHandler(c *Coordinator, settle settleFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}
		res, err := settle(r.Context(), chi.URLParam(r, "escrowID"), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		out := toEscrowResponse(res.Escrow)
		out.PetID = res.PetID
		out.PetAvailability = res.Availability
		writeJSON(w, http.StatusOK, out)
	}
}

func toEscrowResponse(e escrow.Escrow) escrowResponse {
	return escrowResponse{
		ID:            e.ID,
		Amount:        e.Amount,
		Status:        e.Status,
		Reference:     e.Reference,
		ReleaseTxHash: e.ReleaseTxHash,
		RefundTxHash:  e.RefundTxHash,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
