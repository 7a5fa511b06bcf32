package lifecycle

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"pet-adoption/internal/domain/domainerr"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/fsm"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes monta la API HTTP del ciclo de vida sobre r.
func RegisterRoutes(r chi.Router, c *Coordinator) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/me", getMeHandler(c))
		ur.Get("/{userID}", getUserHandler(c))
	})

	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(c))
		pr.Get("/", listPetsHandler(c))
		pr.Get("/availability", batchAvailabilityHandler(c))
		pr.Get("/{petID}", getPetHandler(c))
		pr.Get("/{petID}/availability", petAvailabilityHandler(c))
	})

	r.Route("/adoptions", func(ar chi.Router) {
		ar.Post("/", requestAdoptionHandler(c))
		ar.Get("/{adoptionID}", getAdoptionHandler(c))
		ar.Get("/{adoptionID}/transitions", adoptionTransitionsHandler(c))
		ar.Patch("/{adoptionID}/status", transitionAdoptionHandler(c))
	})

	r.Route("/custodies", func(cr chi.Router) {
		cr.Post("/", createCustodyHandler(c))
		cr.Get("/{custodyID}", getCustodyHandler(c))
		cr.Get("/{custodyID}/transitions", custodyTransitionsHandler(c))
		cr.Patch("/{custodyID}/status", transitionCustodyHandler(c))
	})

	r.Route("/escrows/{escrowID}", func(er chi.Router) {
		er.Get("/", getEscrowHandler(c))
		er.Post("/release", releaseEscrowHandler(c))
		er.Post("/refund", refundEscrowHandler(c))
	})

	r.Route("/events", func(er chi.Router) {
		er.Get("/", listEventsHandler(c))
		er.Get("/{entityType}/{entityID}", entityHistoryHandler(c))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// transitionErrorResponse acompaña al 422: allowed lista los estados alcanzables
// (vacío para estados terminales).
type transitionErrorResponse struct {
	Error    string   `json:"error"`
	Entity   string   `json:"entity"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Allowed  []string `json:"allowed"`
	Terminal bool     `json:"terminal"`
}

// transitionOptionsResponse: allowed vacío cuando el estado actual es terminal.
type transitionOptionsResponse struct {
	Entity      string   `json:"entity"`
	ID          string   `json:"id"`
	Current     string   `json:"current"`
	Allowed     []string `json:"allowed"`
	Terminal    bool     `json:"terminal"`
	Override    bool     `json:"override"`
	Description string   `json:"description,omitempty"`
}

func toTransitionOptionsResponse(o TransitionOptions) transitionOptionsResponse {
	allowed := o.Allowed
	if allowed == nil {
		allowed = []string{}
	}
	return transitionOptionsResponse{
		Entity:      o.Entity,
		ID:          o.ID,
		Current:     o.Current,
		Allowed:     allowed,
		Terminal:    o.Terminal,
		Override:    o.Override,
		Description: o.Description,
	}
}

// actorFrom exige claims y registra al usuario la primera vez que aparece.
func actorFrom(c *Coordinator, w http.ResponseWriter, r *http.Request) (Actor, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return Actor{}, false
	}

	role := users.RoleUser
	if claims.IsAdmin() {
		role = users.RoleAdmin
	}
	u, err := c.EnsureUser(r.Context(), users.RegisterInput{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  role,
	})
	if err != nil {
		writeError(w, err)
		return Actor{}, false
	}
	return Actor{UserID: u.ID, IsAdmin: claims.IsAdmin()}, true
}

func writeError(w http.ResponseWriter, err error) {
	status := domainerr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	var te *fsm.InvalidTransitionError
	if errors.As(err, &te) {
		allowed := te.Allowed
		if allowed == nil {
			allowed = []string{}
		}
		writeJSON(w, status, transitionErrorResponse{
			Error:    err.Error(),
			Entity:   te.Entity,
			From:     te.From,
			To:       te.To,
			Allowed:  allowed,
			Terminal: te.Terminal,
		})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
