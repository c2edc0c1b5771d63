package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "vault-ledger"

// ErrInvalidToken is returned for a missing, malformed or expired session token.
var ErrInvalidToken = errors.New("invalid session token")

// Sessions issues and validates HMAC-signed session tokens whose subject is
// the wallet address proven at login.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a session issuer.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for caller and its expiry.
func (s *Sessions) Issue(caller common.Address) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   caller.Hex(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, exp, nil
}

// Validate parses a token and returns its subject.
func (s *Sessions) Validate(tokenString string) (common.Address, error) {
	claims := new(jwt.RegisteredClaims)
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !common.IsHexAddress(claims.Subject) {
		return common.Address{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return common.HexToAddress(claims.Subject), nil
}

// Middleware authenticates requests carrying a bearer token and stores the
// caller in the request context. Requests without a valid token are refused
// with 401.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			http.Error(w, `{"error":"missing bearer token","code":401}`, http.StatusUnauthorized)
			return
		}
		caller, err := s.Validate(strings.TrimSpace(raw))
		if err != nil {
			http.Error(w, `{"error":"invalid session token","code":401}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}
