package models

import "time"

// Statistic is one recorded user action.
type Statistic struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"not null;index" json:"user_id"`
	ActionType string    `gorm:"size:100;not null" json:"action_type"`
	CreatedAt  time.Time `gorm:"not null;index" json:"created_at"`
}

func (Statistic) TableName() string {
	return "statistics"
}
