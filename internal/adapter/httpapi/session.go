package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"nimli/internal/usecase"
)

const (
	issuer     = "nimli"
	userIDKey  = "userID"
	bearerPref = "Bearer "
)

// ErrInvalidSession is returned for tokens that fail signature, issuer or
// expiry checks.
var ErrInvalidSession = errors.New("invalid session token")

// Sessions issues and checks HS256 session tokens whose subject is the
// user id returned by phone verification.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessions creates a token issuer. ttl must be positive.
func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for userID.
func (s *Sessions) Issue(userID string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return tok, exp, nil
}

// Parse validates raw and returns its subject.
func (s *Sessions) Parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !claims.VerifyIssuer(issuer, true) || claims.Subject == "" {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}

// requireSession rejects requests without a valid bearer token and stores
// the user id on the context.
func (s *Sessions) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(h, bearerPref)
		if !ok || raw == "" {
			abort(c, &usecase.Error{Kind: usecase.KindUnauthorized, Message: "bearer token required"})
			return
		}
		uid, err := s.Parse(raw)
		if err != nil {
			abort(c, &usecase.Error{Kind: usecase.KindUnauthorized, Message: "session expired or invalid", Cause: err})
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
