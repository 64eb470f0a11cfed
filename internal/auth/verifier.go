package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/reloop-app/reloop-backend/config"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a verified bearer token says about its holder.
type Identity struct {
	Subject string
	Email   string
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// NewVerifier builds the verifier selected by cfg.Provider.
func NewVerifier(ctx context.Context, cfg *config.AuthConfig) (Verifier, error) {
	switch cfg.Provider {
	case "firebase":
		client, err := InitializeFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return nil, err
		}
		return NewFirebaseVerifier(client), nil
	case "jwt":
		return NewJWTVerifier(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.Provider)
	}
}
