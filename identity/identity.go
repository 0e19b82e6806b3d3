// Package identity talks to the hosted auth service: password sign-in, session
// verification and the admin user operations.
package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("identity not found")

// Identity is an account known to the auth service.
type Identity struct {
	ID           uuid.UUID
	Email        string
	CreatedAt    time.Time
	LastSignInAt *time.Time
}

// Session is the token pair issued on sign-in or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Identity     Identity
}

// NewIdentity is the input of CreateUser. Identities are created with the email
// already confirmed.
type NewIdentity struct {
	Email       string
	Password    string
	DisplayName string
}

// Provider is the subset of the auth service the backend uses. The admin methods
// require the service-role credential.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (Session, error)
	ListUsers(ctx context.Context) ([]Identity, error)
	CreateUser(ctx context.Context, input NewIdentity) (Identity, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
