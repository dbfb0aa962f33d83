package models

import "time"

type VerificationCode struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string     `gorm:"size:255;not null;index" json:"email"`
	Code       string     `gorm:"size:6;not null" json:"-"`
	CreatedAt  time.Time  `gorm:"not null;index" json:"created_at"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
}

func (VerificationCode) TableName() string {
	return "email_verification_codes"
}
