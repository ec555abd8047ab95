package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrNoIdentity is returned when a caller cannot be identified, either
// because no token was presented or because the token failed verification.
var ErrNoIdentity = errors.New("auth: no identity")

// Identity is a verified caller.
type Identity struct {
	// UserID is a stable opaque identifier for the caller.
	UserID string
	// Name is the caller's display name, used as the author name on
	// published posts and comments.
	Name string
}

// Provider resolves the bearer token carried by ctx into an Identity.
type Provider interface {
	Identify(ctx context.Context) (Identity, error)
}

type tokenKey struct{}

// WithToken attaches a bearer token to ctx. Transport layers call this
// after stripping the "Bearer " prefix from the Authorization header.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached by WithToken, or ""
// when the caller is anonymous.
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok
}

// StripBearer removes an optional "Bearer " scheme prefix from an
// Authorization header value.
func StripBearer(header string) string {
	if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(header)
}

// Static resolves identities from a fixed token table.
type Static struct {
	Tokens map[string]Identity
}

func (s *Static) Identify(ctx context.Context) (Identity, error) {
	tok := TokenFromContext(ctx)
	if tok == "" {
		return Identity{}, ErrNoIdentity
	}
	ident, ok := s.Tokens[tok]
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	return ident, nil
}
