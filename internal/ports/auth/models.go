package auth

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	// Role es "user" o "admin". Vacío se trata como "user".
	Role string
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func (c Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
