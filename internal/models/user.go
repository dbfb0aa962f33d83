package models

import "time"

// User is a local account. It is reachable either by its VK id or by its email.
type User struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	VKID          *string    `gorm:"column:vk_id;size:64;uniqueIndex" json:"-"`
	Email         *string    `gorm:"size:255;uniqueIndex" json:"email"`
	Name          string     `gorm:"size:255" json:"name"`
	AvatarURL     *string    `gorm:"type:text" json:"avatar_url"`
	Birthday      *time.Time `gorm:"type:date" json:"birthday"`
	PremiumUntil  *time.Time `json:"premium_until"`
	PremiumType   *string    `gorm:"size:50" json:"premium_type"`
	EmailVerified bool       `gorm:"not null;default:false" json:"email_verified"`
	PasswordHash  string     `gorm:"size:255" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

// IsPremium reports whether the premium period is still running at now.
func (u *User) IsPremium(now time.Time) bool {
	return u.PremiumUntil != nil && u.PremiumUntil.After(now)
}
