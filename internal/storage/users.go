package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertUser creates the user on first contact and refreshes profile fields
// afterwards.
func UpsertUser(db *gorm.DB, user *User) error {
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"username", "first_name", "last_name", "language_code", "updated_at",
		}),
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", user.UserID, err)
	}
	return nil
}

// GetUser returns nil when the user is unknown.
func GetUser(db *gorm.DB, userID int64) (*User, error) {
	var user User
	err := db.First(&user, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return &user, nil
}

// RecordMessage bumps the per-user voice or text counter.
func RecordMessage(db *gorm.DB, userID int64, voice bool) error {
	return bumpStats(db, userID, func(s *UserStats) {
		if voice {
			s.TotalVoiceMessages++
		} else {
			s.TotalTextMessages++
		}
	})
}

// GetUserStats returns zeroed stats for users with no activity row yet.
func GetUserStats(db *gorm.DB, userID int64) (*UserStats, error) {
	var stats UserStats
	err := db.First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &UserStats{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for user %d: %w", userID, err)
	}
	return &stats, nil
}

// bumpStats runs a read-modify-write on the stats row, creating it on first
// use. Callers that need atomicity with other writes pass a transaction.
func bumpStats(db *gorm.DB, userID int64, mutate func(*UserStats)) error {
	var stats UserStats
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = UserStats{UserID: userID}
		mutate(&stats)
		stats.LastActivity = time.Now()
		if err := db.Create(&stats).Error; err != nil {
			return fmt.Errorf("failed to create stats row: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stats row: %w", err)
	}

	mutate(&stats)
	stats.LastActivity = time.Now()
	if err := db.Save(&stats).Error; err != nil {
		return fmt.Errorf("failed to update stats row: %w", err)
	}
	return nil
}
