package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidEmail     = errors.New("invalid email")
	ErrCodeRequired     = errors.New("code is required")
	ErrCodeNotFound     = errors.New("code not found")
	ErrCodeExpired      = errors.New("code expired")
	ErrCodeInvalid      = errors.New("invalid code")
	ErrEmailNotVerified = errors.New("email is not verified")
)

const codeDigits = 6

// VerificationService issues single-use numeric codes that prove ownership of an email.
// Issuing a code expires every earlier code for the same address.
type VerificationService struct {
	db       *gorm.DB
	mailer   Mailer
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

func NewVerificationService(db *gorm.DB, mailer Mailer, ttl time.Duration) *VerificationService {
	return &VerificationService{
		db:       db,
		mailer:   mailer,
		ttl:      ttl,
		now:      time.Now,
		generate: randomCode,
	}
}

// NormalizeEmail lowercases and trims a bare address. Display names, angle
// brackets and comments are rejected so one mailbox has one spelling.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// IssueCode stores a fresh code for email and mails it. Delivery failures are
// only logged.
func (s *VerificationService) IssueCode(ctx context.Context, rawEmail string) (string, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return "", err
	}

	code, err := s.generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	now := s.now().UTC()
	record := models.VerificationCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.VerificationCode{}).
			Where("email = ? AND expires_at > ?", email, now).
			Update("expires_at", now).Error; err != nil {
			return fmt.Errorf("failed to expire previous codes: %w", err)
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to store code: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	body := fmt.Sprintf("Your verification code: %s\n\nThe code is valid for %d minutes.", code, int(s.ttl.Minutes()))
	if err := s.mailer.Send(ctx, email, "Verification code", body); err != nil {
		slog.Error("verification email delivery failed", "action", "email_send_code", "email", email, "error", err)
	}

	return code, nil
}

// VerifyCode checks code against the newest code issued for email and consumes it.
func (s *VerificationService) VerifyCode(ctx context.Context, rawEmail, rawCode string) (string, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return "", err
	}
	code := strings.TrimSpace(rawCode)
	if code == "" {
		return "", ErrCodeRequired
	}

	var latest models.VerificationCode
	err = s.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").Order("id DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load code: %w", err)
	}

	now := s.now().UTC()
	if now.After(latest.ExpiresAt) {
		return "", ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(code)) != 1 {
		return "", ErrCodeInvalid
	}

	// Guarded on expiry so two concurrent verifications cannot both consume it.
	result := s.db.WithContext(ctx).Model(&models.VerificationCode{}).
		Where("id = ? AND expires_at > ?", latest.ID, now).
		Updates(map[string]interface{}{
			"expires_at":  now,
			"consumed_at": now,
		})
	if result.Error != nil {
		return "", fmt.Errorf("failed to consume code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrCodeExpired
	}

	return email, nil
}

func randomCode() (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(codeDigits), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
