package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const refreshTokenBytes = 32

// RefreshTokenService persists long-lived refresh tokens. Only the SHA-256
// digest is stored; the plaintext is returned once to the caller.
type RefreshTokenService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

func NewRefreshTokenService(db *gorm.DB, ttl time.Duration) *RefreshTokenService {
	return &RefreshTokenService{db: db, ttl: ttl, now: time.Now}
}

func (s *RefreshTokenService) Issue(ctx context.Context, userID int64) (string, error) {
	rawBytes := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	rawToken := base64.RawURLEncoding.EncodeToString(rawBytes)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken(rawToken),
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

// HashToken is the hex SHA-256 digest stored in refresh_tokens.token_hash.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
