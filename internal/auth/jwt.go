package auth

import (
	"context"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// JWT verifies HMAC-SHA256 signed bearer tokens. Tokens carry the caller
// in the "sub" and "name" claims and expire per their "exp" claim.
type JWT struct {
	secret []byte
}

// NewJWT returns a provider that accepts tokens signed with secret.
func NewJWT(secret []byte) *JWT {
	return &JWT{secret: secret}
}

func (j *JWT) Identify(ctx context.Context) (Identity, error) {
	tok := TokenFromContext(ctx)
	if tok == "" {
		return Identity{}, ErrNoIdentity
	}

	parsed, err := gojwt.Parse(tok, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, ErrNoIdentity
		}
		return j.secret, nil
	}, gojwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return Identity{}, ErrNoIdentity
	}

	claims, ok := parsed.Claims.(gojwt.MapClaims)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	ident := Identity{}
	if sub, ok := claims["sub"].(string); ok {
		ident.UserID = sub
	}
	if name, ok := claims["name"].(string); ok {
		ident.Name = name
	}
	if ident.UserID == "" {
		return Identity{}, ErrNoIdentity
	}
	return ident, nil
}

// IssueToken mints an HS256 token for ident, valid for ttl. A zero ttl
// issues a token without an expiry claim.
func IssueToken(secret []byte, ident Identity, ttl time.Duration) (string, error) {
	claims := gojwt.MapClaims{
		"sub":  ident.UserID,
		"name": ident.Name,
		"iat":  time.Now().Unix(),
	}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(secret)
}
