package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voicesticker/voicesticker-bot/internal/stickerpack"
)

// numeric-scheme names look like pack<N>_<userID>_by_<bot>
var ordinalFromName = regexp.MustCompile(`^pack(\d+)_`)

// PackRegistry implements stickerpack.Registry on the relational store.
// Operations for distinct users are safe to run concurrently; same-user
// serialization is the lifecycle manager's responsibility.
type PackRegistry struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPackRegistry(db *gorm.DB, logger *zap.Logger) *PackRegistry {
	return &PackRegistry{db: db, logger: logger.Named("pack_registry")}
}

// ListPacksForUser returns the user's known packs with item counts, ordinal
// ascending.
func (r *PackRegistry) ListPacksForUser(userID int64) ([]stickerpack.PackRecord, error) {
	var rows []struct {
		Name      string
		Ordinal   int
		ItemCount int
	}
	err := r.db.Model(&StickerPack{}).
		Select("sticker_packs.name, sticker_packs.ordinal, count(pack_items.id) as item_count").
		Joins("LEFT JOIN pack_items ON pack_items.pack_id = sticker_packs.id").
		Where("sticker_packs.user_id = ?", userID).
		Group("sticker_packs.id").
		Order("sticker_packs.ordinal ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list packs: %w", err)
	}

	records := make([]stickerpack.PackRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, stickerpack.PackRecord{
			Name:      row.Name,
			Ordinal:   row.Ordinal,
			ItemCount: row.ItemCount,
		})
	}
	return records, nil
}

// RecordPackCreated upserts the pack row. On conflict only the timestamp is
// refreshed, so repeat calls never duplicate. Ordinal 0 derives the ordinal
// from the name's numeric prefix where parseable, defaulting to 1.
func (r *PackRegistry) RecordPackCreated(userID int64, name string, ordinal int) error {
	if ordinal <= 0 {
		ordinal = DeriveOrdinal(name)
	}

	pack := StickerPack{
		UserID:  userID,
		Name:    name,
		Ordinal: ordinal,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now()}),
	}).Create(&pack).Error
	if err != nil {
		r.logger.Error("Failed to record pack", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("failed to record pack %s: %w", name, err)
	}
	return nil
}

// RecordItemAdded associates a sticker with a pack inside one transaction.
// A repeat call for the same pair is a no-op; a missing pack row is created
// defensively.
func (r *PackRegistry) RecordItemAdded(userID int64, packName string, stickerID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pack StickerPack
		err := tx.Where("user_id = ? AND name = ?", userID, packName).First(&pack).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Warn("Pack record missing on item add, creating",
				zap.Int64("user_id", userID), zap.String("name", packName))
			pack = StickerPack{UserID: userID, Name: packName, Ordinal: DeriveOrdinal(packName)}
			if err := tx.Create(&pack).Error; err != nil {
				return fmt.Errorf("failed to create missing pack record: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to look up pack %s: %w", packName, err)
		}

		item := PackItem{PackID: pack.ID, StickerID: stickerID}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pack_id"}, {Name: "sticker_id"}},
			DoNothing: true,
		}).Create(&item).Error
		if err != nil {
			return fmt.Errorf("failed to record pack item: %w", err)
		}
		return nil
	})
}

// ForgetPack deletes the pack row and its item associations. Used only when
// the transport reports the external set gone.
func (r *PackRegistry) ForgetPack(userID int64, name string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pack StickerPack
		err := tx.Where("user_id = ? AND name = ?", userID, name).First(&pack).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up pack %s: %w", name, err)
		}

		if err := tx.Where("pack_id = ?", pack.ID).Delete(&PackItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete pack items: %w", err)
		}
		if err := tx.Delete(&pack).Error; err != nil {
			return fmt.Errorf("failed to delete pack: %w", err)
		}
		return nil
	})
}

// DeriveOrdinal parses the ordinal out of a numeric-scheme pack name.
// Transliterated first-pack names carry no number and default to 1.
func DeriveOrdinal(name string) int {
	match := ordinalFromName.FindStringSubmatch(name)
	if match == nil {
		return 1
	}
	ordinal, err := strconv.Atoi(match[1])
	if err != nil || ordinal < 1 {
		return 1
	}
	return ordinal
}
