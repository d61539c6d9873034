package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "neuromath"

// Claims are the bearer token claims. The subject is the owner id every
// request is scoped to.
type Claims struct {
	jwt.RegisteredClaims
}

// Auth signs and verifies HS256 bearer tokens.
type Auth struct {
	secret []byte
	now    func() time.Time
}

func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret), now: time.Now}
}

// IssueToken mints a token for sub that expires after ttl.
func (a *Auth) IssueToken(sub string, ttl time.Duration) (string, error) {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", errors.New("subject is required")
	}
	now := a.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.secret)
}

// Parse verifies the token and returns its claims.
func (a *Auth) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if c.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return c, nil
}

type ownerKey struct{}

// Middleware rejects requests without a valid bearer token and stores the
// token subject as the request owner.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		claims, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "unauthorized", fmt.Sprintf("bad token: %v", err))
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerFrom returns the authenticated owner id.
func OwnerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
