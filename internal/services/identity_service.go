package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// ProviderIdentity is what a completed OAuth exchange tells us about the user.
type ProviderIdentity struct {
	ProviderUserID string
	Email          string
	DisplayName    string
	AvatarURL      string
}

// IdentityService maps VK identities and verified emails to local users.
type IdentityService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db, now: time.Now}
}

// ResolveByProvider finds or creates the user owning a VK id and refreshes its
// name, avatar and last login. The insert is an upsert on vk_id so concurrent
// callbacks for one identity converge on a single row.
func (s *IdentityService) ResolveByProvider(ctx context.Context, id ProviderIdentity) (*models.User, error) {
	if id.ProviderUserID == "" {
		return nil, errors.New("provider user id is required")
	}
	now := s.now().UTC()
	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		var known int64
		if err := tx.Model(&models.User{}).Where("vk_id = ?", id.ProviderUserID).Count(&known).Error; err != nil {
			return fmt.Errorf("failed to look up provider user: %w", err)
		}

		email, _ := NormalizeEmail(id.Email)
		if known == 0 && email != "" {
			linked, err := s.linkByEmail(tx, id, email, now)
			if err != nil || linked {
				return err
			}
			// The address belongs to another VK account; keep it there.
			var owners int64
			if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&owners).Error; err != nil {
				return fmt.Errorf("failed to check email owner: %w", err)
			}
			if owners > 0 {
				email = ""
			}
		}

		vkID := id.ProviderUserID
		candidate := models.User{
			VKID:          &vkID,
			Email:         optional(email),
			Name:          id.DisplayName,
			AvatarURL:     optional(id.AvatarURL),
			EmailVerified: true,
			LastLoginAt:   &now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "avatar_url", "last_login_at", "updated_at"}),
		}).Create(&candidate).Error
		if err != nil {
			return fmt.Errorf("failed to upsert provider user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Where("vk_id = ?", id.ProviderUserID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to load provider user: %w", err)
	}
	return &user, nil
}

// linkByEmail attaches a VK id to an existing email-only account with the
// same address, so one person does not end up with two users.
func (s *IdentityService) linkByEmail(tx *gorm.DB, id ProviderIdentity, email string, now time.Time) (bool, error) {
	result := tx.Model(&models.User{}).
		Where("email = ? AND vk_id IS NULL", email).
		Updates(map[string]interface{}{
			"vk_id":          id.ProviderUserID,
			"name":           id.DisplayName,
			"avatar_url":     optional(id.AvatarURL),
			"email_verified": true,
			"last_login_at":  now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to link provider id: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ResolveByEmail finds or creates a user for an already normalized email.
// A stored password hash must match; an account without one adopts password.
func (s *IdentityService) ResolveByEmail(ctx context.Context, email, displayName, password string) (*models.User, error) {
	db := s.db.WithContext(ctx)
	now := s.now().UTC()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	candidate := models.User{
		Email:         &email,
		Name:          displayName,
		EmailVerified: true,
		PasswordHash:  string(hash),
		LastLoginAt:   &now,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&candidate)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create user: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return &candidate, nil
	}

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	updates := map[string]interface{}{"last_login_at": now}
	if user.PasswordHash == "" {
		updates["password_hash"] = string(hash)
		user.PasswordHash = string(hash)
	} else if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	user.LastLoginAt = &now
	return &user, nil
}

func (s *IdentityService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
