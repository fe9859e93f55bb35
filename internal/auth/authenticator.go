package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prowe12/plantswap/internal/models"
	"github.com/prowe12/plantswap/internal/store"
)

// TokenVerifier validates a bearer token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// CredentialFinder resolves a username to its credential record. It returns
// store.ErrNotFound when the user does not exist.
type CredentialFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authenticator turns an Authorization header into the calling principal.
type Authenticator struct {
	tokens TokenVerifier
	users  CredentialFinder
}

func NewAuthenticator(tokens TokenVerifier, users CredentialFinder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate extracts the bearer token from header, verifies it, loads the
// subject and checks that it is active. Failures wrap ErrUnauthenticated or
// ErrForbidden; any other error is a store failure.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.User, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	subject, err := a.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := a.users.FindByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve subject: %w", err)
	}

	if !user.IsActive {
		return nil, ErrForbidden
	}
	return user, nil
}

// BearerToken returns the credentials of a "Bearer <token>" header. The
// scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

type principalKey struct{}

// WithPrincipal stores the authenticated user in ctx.
func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFromContext returns the user stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(principalKey{}).(*models.User)
	return u, ok && u != nil
}
