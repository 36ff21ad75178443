// Package api wraps the backend's authentication endpoints in typed calls.
//
// Every method resolves to one of three outcome classes the session layer
// depends on: success, *RejectionError (the backend answered and refused),
// or *TransportError (no usable answer at all).
package api

import (
	"context"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"
)

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the signup request payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// AuthResult is a successful login response.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Client is the typed surface over the backend auth API.
type Client interface {
	// Register creates an account. It never returns a token; signing in is
	// a separate step.
	Register(ctx context.Context, req RegisterRequest) error

	// Authenticate exchanges credentials for a user plus bearer token.
	Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error)

	// FetchProfile returns the profile owned by token. A 401 rejection
	// (errors.Is(err, ErrUnauthorized)) means the token is no longer valid.
	FetchProfile(ctx context.Context, token string) (*models.User, error)

	// UpdateProfile applies a partial update and returns the server's
	// canonical copy of the whole profile.
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (*models.User, error)

	// ChangePassword replaces the password of the authenticated account.
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error

	// RequestPasswordReset asks the backend to mail reset instructions.
	// The backend accepts unknown addresses too, to avoid account
	// enumeration.
	RequestPasswordReset(ctx context.Context, email string) error

	// ConfirmPasswordReset completes the two-step reset with the mailed
	// token and the new password.
	ConfirmPasswordReset(ctx context.Context, email, resetToken, newPassword string) error

	Close() error
}
