package auth

import "context"

// AuthVerifier resuelve un bearer token a Claims (usuario + rol).
// nil en el router => modo dev con headers X-Debug-*.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
