// Package auth issues and verifies player credentials. Two modes are
// supported: "provider" delegates to an external auth service over HTTP,
// "local" mints and verifies HS256 tokens on this server.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned by Verify when a bearer token is missing,
// malformed, expired or signed by someone else.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is the authenticated player behind a verified token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the credential bundle handed to clients on signup and login.
type Session struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int      `json:"expires_in"`
	TokenType    string   `json:"token_type"`
	User         Identity `json:"user"`
}

// Service is implemented by both auth modes.
type Service interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Verify(ctx context.Context, accessToken string) (Identity, error)
}
