package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const emailProofPurpose = "email_verification"

// EmailProofClaims is handed to the client that consumed a verification code.
// It has no user_id, so it never passes as a session token.
type EmailProofClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *EmailProofClaims) Validate() error {
	if c.Purpose != emailProofPurpose || c.Email == "" {
		return errors.New("not an email verification proof")
	}
	return nil
}

// EmailProofCodec signs short-lived proofs that an email was verified by the
// bearer. Registration requires one for the same address.
type EmailProofCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewEmailProofCodec(secret string, ttl time.Duration) *EmailProofCodec {
	return &EmailProofCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (pc *EmailProofCodec) Issue(email string) (string, error) {
	claims := &EmailProofClaims{
		Email:   email,
		Purpose: emailProofPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(pc.now().Add(pc.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(pc.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign email proof: %w", err)
	}
	return signed, nil
}

// Verify accepts raw only if it is an unexpired proof for email.
func (pc *EmailProofCodec) Verify(raw, email string) error {
	if raw == "" {
		return ErrEmailNotVerified
	}
	claims := &EmailProofClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return pc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(pc.now),
	)
	if err != nil || claims.Email != email {
		return ErrEmailNotVerified
	}
	return nil
}
