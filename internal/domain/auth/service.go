package auth

import "context"

// AuthService is the thin identity surface: password login and token
// refresh. Everything else identity-related is read-only lookups.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (TokenResponse, error)
}
