package storage

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SaveSticker persists one generated sticker and bumps the owner's counter
// in the same transaction.
func SaveSticker(db *gorm.DB, sticker *Sticker) (int64, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sticker).Error; err != nil {
			return fmt.Errorf("failed to save sticker: %w", err)
		}
		return bumpStats(tx, sticker.UserID, func(s *UserStats) {
			s.TotalStickers++
		})
	})
	if err != nil {
		return 0, err
	}
	zap.L().Debug("Saved sticker", zap.Int64("sticker_id", sticker.ID), zap.Int64("user_id", sticker.UserID))
	return sticker.ID, nil
}

// GetSticker fetches one non-deleted sticker owned by the given user.
func GetSticker(db *gorm.DB, stickerID int64, userID int64) (*Sticker, error) {
	var sticker Sticker
	err := db.Where("id = ? AND user_id = ? AND is_deleted = ?", stickerID, userID, false).First(&sticker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get sticker %d: %w", stickerID, err)
	}
	return &sticker, nil
}

// GetUserStickers lists a user's stickers, newest first.
func GetUserStickers(db *gorm.DB, userID int64, limit, offset int) ([]Sticker, error) {
	var stickers []Sticker
	err := db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&stickers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stickers: %w", err)
	}
	return stickers, nil
}

// UpdateStickerRating sets the 1-5 rating. Returns false when the sticker is
// missing or owned by someone else.
func UpdateStickerRating(db *gorm.DB, stickerID, userID int64, rating int) (bool, error) {
	if rating < 1 || rating > 5 {
		return false, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}
	result := db.Model(&Sticker{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", stickerID, userID, false).
		Update("rating", rating)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update rating: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateStickerFeedback stores the free-text comment.
func UpdateStickerFeedback(db *gorm.DB, stickerID, userID int64, comment string) (bool, error) {
	result := db.Model(&Sticker{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", stickerID, userID, false).
		Update("feedback_comment", comment)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update feedback: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpdateStickerFileID stores the transport file handle once known.
func UpdateStickerFileID(db *gorm.DB, stickerID int64, fileID string) error {
	err := db.Model(&Sticker{}).Where("id = ?", stickerID).Update("file_id", fileID).Error
	if err != nil {
		return fmt.Errorf("failed to update file id: %w", err)
	}
	return nil
}

// SoftDeleteSticker flags the sticker as deleted; the row stays.
func SoftDeleteSticker(db *gorm.DB, stickerID, userID int64) (bool, error) {
	result := db.Model(&Sticker{}).
		Where("id = ? AND user_id = ?", stickerID, userID).
		Update("is_deleted", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete sticker: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetTotalStats aggregates the admin-facing totals.
func GetTotalStats(db *gorm.DB) (*TotalStats, error) {
	var stats TotalStats

	if err := db.Model(&User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&Sticker{}).Where("is_deleted = ?", false).Count(&stats.TotalStickers).Error; err != nil {
		return nil, fmt.Errorf("failed to count stickers: %w", err)
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	if err := db.Model(&UserStats{}).Where("last_activity > ?", cutoff).Count(&stats.ActiveUsers24h).Error; err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	var avg *float64
	err := db.Model(&Sticker{}).
		Where("rating IS NOT NULL AND is_deleted = ?", false).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average ratings: %w", err)
	}
	if avg != nil {
		stats.AverageRating = *avg
	}

	return &stats, nil
}
