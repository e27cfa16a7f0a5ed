// Package auth holds the authentication-provider collaborator: the Provider
// contract consumed by session handling and a local implementation backed by
// the registered-user list.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("email and password are required")
	ErrInvalidToken       = errors.New("invalid token")
)

// User is the provider's view of an authenticated person.
type User struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	CreatedAt   time.Time
}

// Provider supplies sign-in/sign-up/sign-out and a user-changed notification
// stream. Listeners receive nil on sign-out.
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	// Subscribe registers fn and immediately delivers the current state to
	// it. The returned function removes the registration.
	Subscribe(fn func(*User)) (unsubscribe func())
}
