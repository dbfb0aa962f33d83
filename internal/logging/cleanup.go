package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"gorm.io/gorm"
)

const logRetention = 30 * 24 * time.Hour

// StartCleanup runs a daily goroutine that deletes system_logs older than 30 days.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := PurgeBefore(db, time.Now().UTC().Add(-logRetention)); err != nil {
					slog.Error("log cleanup failed", "action", "log_cleanup", "error", err)
				}
			case <-done:
				return
			}
		}
	}()
}

// PurgeBefore deletes system logs written before cutoff.
func PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
