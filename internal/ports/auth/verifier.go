package auth

import "context"

// AuthVerifier valida un bearer token del IAM y devuelve el principal con su rol.
// El middleware lo usa para poblar los claims; nil deja el modo dev (X-Debug-*).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
