package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const localTokenTTL = 24 * time.Hour

// LocalAuthority mints and verifies HS256 tokens without an external
// provider. Meant for development and self-hosted single-node setups:
// there is no account database, the player id is derived from the email
// so the same address always maps to the same save.
type LocalAuthority struct {
	secret []byte
	now    func() time.Time
}

var _ Service = (*LocalAuthority)(nil)

func NewLocalAuthority(secret string) *LocalAuthority {
	return &LocalAuthority{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (a *LocalAuthority) SignUp(ctx context.Context, email, password string) (Session, error) {
	return a.issue(email, password)
}

func (a *LocalAuthority) Login(ctx context.Context, email, password string) (Session, error) {
	return a.issue(email, password)
}

func (a *LocalAuthority) issue(email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("invalid email")
	}
	if password == "" {
		return Session{}, fmt.Errorf("password is required")
	}

	id := PlayerIDForEmail(email)
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   id,
		Audience:  jwt.ClaimStrings{"devtycoon"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(localTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, struct {
		jwt.RegisteredClaims
		Email string `json:"email"`
	}{claims, email})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{
		AccessToken: signed,
		ExpiresIn:   int(localTokenTTL / time.Second),
		TokenType:   "bearer",
		User:        Identity{ID: id, Email: email},
	}, nil
}

func (a *LocalAuthority) Verify(ctx context.Context, accessToken string) (Identity, error) {
	var claims struct {
		jwt.RegisteredClaims
		Email string `json:"email"`
	}
	token, err := jwt.ParseWithClaims(accessToken, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return a.now() }))
	if err != nil || !token.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.Subject, Email: claims.Email}, nil
}

// PlayerIDForEmail derives a stable UUID for an email address.
func PlayerIDForEmail(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("devtycoon:"+strings.ToLower(email))).String()
}
