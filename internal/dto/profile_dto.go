package dto

import "time"

type ProfileResponse struct {
	ID          int64   `json:"id"`
	Email       *string `json:"email"`
	Name        string  `json:"name"`
	AvatarURL   *string `json:"avatar_url"`
	Birthday    *string `json:"birthday"`
	IsPremium   bool    `json:"is_premium"`
	PremiumType *string `json:"premium_type"`
}

// UpdateProfileRequest uses pointers so absent fields are left untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Birthday *string `json:"birthday"`
}

type PremiumStatusResponse struct {
	IsPremium    bool       `json:"is_premium"`
	PremiumType  *string    `json:"premium_type"`
	PremiumUntil *time.Time `json:"premium_until"`
	IsBirthday   bool       `json:"is_birthday"`
}

type ActivatePremiumRequest struct {
	Plan string `json:"plan"`
}

type ActivatePremiumResponse struct {
	Message      string    `json:"message"`
	PremiumUntil time.Time `json:"premium_until"`
	PremiumType  string    `json:"premium_type"`
}

type RecordActionRequest struct {
	ActionType string `json:"action_type"`
}

type StatisticsResponse struct {
	TotalActions int64            `json:"total_actions"`
	WeekActions  int64            `json:"week_actions"`
	ByType       map[string]int64 `json:"by_type"`
}
