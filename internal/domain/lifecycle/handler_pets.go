package lifecycle

import (
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/users"

	"github.com/go-chi/chi/v5"
)

type createPetRequest struct {
	Name      string `json:"name"`
	Species   string `json:"species"`
	Breed     string `json:"breed"`
	Sex       string `json:"sex"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD, opcional
	Notes     string `json:"notes"`
}

type petResponse struct {
	ID             string            `json:"id"`
	CurrentOwnerID string            `json:"current_owner_id"`
	Name           string            `json:"name"`
	Species        pets.Species      `json:"species"`
	Breed          string            `json:"breed"`
	Sex            pets.Sex          `json:"sex"`
	BirthDate      *string           `json:"birth_date,omitempty"`
	Notes          string            `json:"notes"`
	Availability   pets.Availability `json:"availability"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Publicar mascota
// @Description Crea una mascota con el usuario autenticado como dueño actual. La disponibilidad inicial es AVAILABLE.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPetRequest true "Datos de la mascota; birth_date en formato YYYY-MM-DD"
// @Success 201 {object} petResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /pets [post]
func createPetHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		var req createPetRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		var birth *time.Time
		if s := strings.TrimSpace(req.BirthDate); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "birth_date must be YYYY-MM-DD"})
				return
			}
			birth = &t
		}

		p, err := c.CreatePet(r.Context(), actor, pets.CreateInput{
			Name:      req.Name,
			Species:   req.Species,
			Breed:     req.Breed,
			Sex:       req.Sex,
			BirthDate: birth,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mascotas de un dueño
// @Description Lista las mascotas del dueño indicado (por defecto, el usuario autenticado) con su disponibilidad resuelta en batch.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param owner_id query string false "ID del dueño"
// @Success 200 {array} petResponse
// @Failure 401 {object} errorResponse
// @Router /pets [get]
func listPetsHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}

		owner := strings.TrimSpace(r.URL.Query().Get("owner_id"))
		if owner == "" {
			owner = actor.UserID
		}

		list, err := c.ListPetsByOwner(r.Context(), owner)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]petResponse, 0, len(list))
		for _, p := range list {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Obtener mascota
// @Description Devuelve el perfil de la mascota con su disponibilidad derivada (AVAILABLE, PENDING, IN_CUSTODY, ADOPTED).
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 404 {object} errorResponse
// @Router /pets/{petID} [get]
func getPetHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := c.GetPet(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

type availabilityResponse struct {
	PetID        string            `json:"pet_id"`
	Availability pets.Availability `json:"availability"`
}

// petAvailabilityHandler godoc
// @Summary Disponibilidad de una mascota
// @Tags pets
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} availabilityResponse
// @Failure 404 {object} errorResponse
// @Router /pets/{petID}/availability [get]
func petAvailabilityHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID := chi.URLParam(r, "petID")
		av, err := c.ResolvePetAvailability(r.Context(), petID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, availabilityResponse{PetID: petID, Availability: av})
	}
}

// batchAvailabilityHandler godoc
// @Summary Disponibilidad de varias mascotas
// @Description Resuelve la disponibilidad de un set de mascotas con dos consultas, sin importar el tamaño del set.
// @Description Acepta hasta 500 IDs distintos.
// @Tags pets
// @Produce json
// @Param ids query string true "Lista CSV de IDs de mascota"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errorResponse
// @Router /pets/availability [get]
func batchAvailabilityHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := splitCSV(r.URL.Query().Get("ids"))
		if len(ids) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "ids required"})
			return
		}
		byID, err := c.ResolvePetAvailabilityBatch(r.Context(), ids)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, byID)
	}
}

type userResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       users.Role `json:"role"`
	TrustScore int        `json:"trust_score"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// getMeHandler godoc
// @Summary Usuario autenticado
// @Description Devuelve (y registra la primera vez) el perfil del usuario autenticado, incluido su trust score.
// @Tags users
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev: user o admin"
// @Param Authorization header string false "Bearer token en producción"
// @Success 200 {object} userResponse
// @Failure 401 {object} errorResponse
// @Router /users/me [get]
func getMeHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(c, w, r)
		if !ok {
			return
		}
		u, err := c.GetUser(r.Context(), actor.UserID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// getUserHandler godoc
// @Summary Obtener usuario
// @Tags users
// @Produce json
// @Param userID path string true "ID del usuario"
// @Success 200 {object} userResponse
// @Failure 404 {object} errorResponse
// @Router /users/{userID} [get]
func getUserHandler(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := actorFrom(c, w, r); !ok {
			return
		}
		u, err := c.GetUser(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toPetResponse(p pets.WithAvailability) petResponse {
	var birth *string
	if p.BirthDate != nil {
		s := p.BirthDate.Format("2006-01-02")
		birth = &s
	}
	return petResponse{
		ID:             p.ID,
		CurrentOwnerID: p.CurrentOwnerID,
		Name:           p.Name,
		Species:        p.Species,
		Breed:          p.Breed,
		Sex:            p.Sex,
		BirthDate:      birth,
		Notes:          p.Notes,
		Availability:   p.Availability,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toUserResponse(u users.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role,
		TrustScore: u.TrustScore,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func splitCSV(raw string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
