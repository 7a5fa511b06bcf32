package users

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const (
	MinTrustScore     = 0
	MaxTrustScore     = 100
	DefaultTrustScore = 50
)

// User es el perfil mínimo que el core necesita: rol y trust score.
type User struct {
	ID    string
	Email string
	Role  Role

	// TrustScore está siempre en [MinTrustScore, MaxTrustScore] y solo lo modifica
	// TrustAdjuster.
	TrustScore int

	CreatedAt time.Time
	UpdatedAt time.Time
}
