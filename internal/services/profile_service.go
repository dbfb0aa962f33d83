package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrInvalidPlan     = errors.New("invalid plan")
	ErrInvalidBirthday = errors.New("birthday must be YYYY-MM-DD")
	ErrActionRequired  = errors.New("action_type is required")
)

const premiumType = "pro_analytics"

var premiumPlans = map[string]time.Duration{
	"trial": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// ProfileService serves the account endpoints that sit behind a session token.
type ProfileService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db, now: time.Now}
}

func (s *ProfileService) load(ctx context.Context, userID int64) (*models.User, error) {
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

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*dto.ProfileResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.ProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		AvatarURL:   user.AvatarURL,
		Birthday:    formatDate(user.Birthday),
		IsPremium:   user.IsPremium(s.now()),
		PremiumType: user.PremiumType,
	}, nil
}

// UpdateProfile changes the fields present in req. An empty birthday is ignored.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) error {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Birthday != nil && *req.Birthday != "" {
		birthday, err := time.Parse(time.DateOnly, *req.Birthday)
		if err != nil {
			return ErrInvalidBirthday
		}
		updates["birthday"] = birthday
	}
	if len(updates) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *ProfileService) PremiumStatus(ctx context.Context, userID int64) (*dto.PremiumStatusResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	isBirthday := false
	if user.Birthday != nil {
		isBirthday = user.Birthday.Month() == now.Month() && user.Birthday.Day() == now.Day()
	}

	return &dto.PremiumStatusResponse{
		IsPremium:    user.IsPremium(now),
		PremiumType:  user.PremiumType,
		PremiumUntil: user.PremiumUntil,
		IsBirthday:   isBirthday,
	}, nil
}

// ActivatePremium sets premium_until to now plus the plan length. An empty plan means trial.
func (s *ProfileService) ActivatePremium(ctx context.Context, userID int64, plan string) (*dto.ActivatePremiumResponse, error) {
	if plan == "" {
		plan = "trial"
	}
	length, ok := premiumPlans[plan]
	if !ok {
		return nil, ErrInvalidPlan
	}

	until := s.now().UTC().Add(length)
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"premium_until": until,
		"premium_type":  premiumType,
	})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to activate premium: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}

	return &dto.ActivatePremiumResponse{
		Message:      "Premium activated",
		PremiumUntil: until,
		PremiumType:  premiumType,
	}, nil
}

func (s *ProfileService) RecordAction(ctx context.Context, userID int64, actionType string) error {
	actionType = strings.TrimSpace(actionType)
	if actionType == "" {
		return ErrActionRequired
	}
	stat := models.Statistic{UserID: userID, ActionType: actionType, CreatedAt: s.now().UTC()}
	if err := s.db.WithContext(ctx).Create(&stat).Error; err != nil {
		return fmt.Errorf("failed to record action: %w", err)
	}
	return nil
}

// Statistics aggregates recorded actions per type plus the last seven days.
func (s *ProfileService) Statistics(ctx context.Context, userID int64) (*dto.StatisticsResponse, error) {
	var rows []struct {
		ActionType string
		Count      int64
	}
	db := s.db.WithContext(ctx)
	err := db.Model(&models.Statistic{}).
		Select("action_type, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("action_type").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate statistics: %w", err)
	}

	resp := &dto.StatisticsResponse{ByType: make(map[string]int64, len(rows))}
	for _, r := range rows {
		resp.ByType[r.ActionType] = r.Count
		resp.TotalActions += r.Count
	}

	weekAgo := s.now().UTC().Add(-7 * 24 * time.Hour)
	if err := db.Model(&models.Statistic{}).
		Where("user_id = ? AND created_at > ?", userID, weekAgo).
		Count(&resp.WeekActions).Error; err != nil {
		return nil, fmt.Errorf("failed to count weekly actions: %w", err)
	}
	return resp, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
