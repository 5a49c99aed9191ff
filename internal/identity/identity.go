// Package identity resolves the acting user id: a fixed id for the CLI
// and JWT-authenticated ids carried in the request context for HTTP.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoUser indicates that no user id is available.
var ErrNoUser = errors.New("no user id")

// Static always resolves to the same user.
type Static string

func (s Static) UserID(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoUser
	}
	return string(s), nil
}

type ctxKey struct{}

// WithUser returns a context carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// FromContext returns the user id stored by WithUser.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Context resolves the user id stored in the context.
type Context struct{}

func (Context) UserID(ctx context.Context) (string, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return "", ErrNoUser
	}
	return id, nil
}

// JWT issues and verifies HS256 tokens whose subject is the user id.
type JWT struct {
	secret []byte
	issuer string
}

// NewJWT creates a verifier for the given shared secret.
func NewJWT(secret, issuer string) *JWT {
	return &JWT{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for userID valid for ttl.
func (j *JWT) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks the token signature and expiry and returns its subject.
func (j *JWT) Verify(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject: %w", err)
	}
	if sub == "" {
		return "", ErrNoUser
	}
	return sub, nil
}
