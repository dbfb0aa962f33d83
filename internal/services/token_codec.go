package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// SessionClaims is the payload of a session token: {"user_id": 42, "exp": 1700000000}.
type SessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Validate runs after the standard claim checks.
func (c *SessionClaims) Validate() error {
	if c.UserID <= 0 {
		return errors.New("user_id claim must be positive")
	}
	if c.ExpiresAt == nil {
		return jwt.ErrTokenRequiredClaimMissing
	}
	return nil
}

// TokenCodec issues and verifies HS256 session tokens with a process-wide secret.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a token for userID valid for the codec's TTL.
func (tc *TokenCodec) Issue(userID int64) (string, error) {
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(tc.now().Add(tc.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tc.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the token's user id.
// Every failure other than expiry collapses into ErrTokenInvalid.
func (tc *TokenCodec) Verify(raw string) (int64, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, tc.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tc.now),
	)
	if err != nil {
		// A bad signature is checked before claims, so an expired error
		// here always belongs to an authentic token.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	if !token.Valid {
		return 0, ErrTokenInvalid
	}
	return claims.UserID, nil
}

// Keyfunc hands the signing secret to the jwt parser for HS256 tokens only.
func (tc *TokenCodec) Keyfunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return tc.secret, nil
}
