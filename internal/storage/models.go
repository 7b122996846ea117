package storage

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// User mirrors the Telegram account. Created on first interaction, never
// deleted, mutated only to refresh profile fields.
type User struct {
	UserID       int64 `gorm:"primaryKey"`
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sticker is one produced image artifact. A text-overlay edit creates a new
// row; rows are never hard-deleted, only flagged.
type Sticker struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	UserID          int64  `gorm:"index;not null"`
	Prompt          string `gorm:"not null"`
	Style           string
	Background      string
	FilePath        string
	FileID          string
	Rating          *int
	FeedbackComment string
	Meta            datatypes.JSON
	CreatedAt       time.Time `gorm:"index"`
	IsDeleted       bool      `gorm:"index;default:false"`
}

// GenerationMeta is the typed metadata bag attached to a sticker. Known
// fields are explicit; Extra keeps room for forward-compatible additions.
type GenerationMeta struct {
	EnhancedPrompt    string            `json:"enhanced_prompt,omitempty"`
	Model             string            `json:"model,omitempty"`
	GenerationSeconds float64           `json:"generation_seconds,omitempty"`
	ImageURL          string            `json:"image_url,omitempty"`
	OverlayText       string            `json:"overlay_text,omitempty"`
	OverlayPosition   string            `json:"overlay_position,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// ToJSON serializes the bag for the Meta column.
func (m GenerationMeta) ToJSON() (datatypes.JSON, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// MetaFromJSON parses the Meta column back into the typed bag.
func MetaFromJSON(raw datatypes.JSON) (GenerationMeta, error) {
	var m GenerationMeta
	if len(raw) == 0 {
		return m, nil
	}
	err := json.Unmarshal(raw, &m)
	return m, err
}

// StickerPack is one external sticker set owned by a single user. The name
// is globally unique transport-wide; the (user, name) pair is unique here.
// The row is deleted the moment the transport reports the set invalid.
type StickerPack struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_pack_user_name"`
	Name      string `gorm:"not null;uniqueIndex:idx_pack_user_name"`
	Ordinal   int    `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PackItem associates one sticker with one pack. A (pack, sticker) pair
// appears at most once.
type PackItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	PackID    int64     `gorm:"not null;uniqueIndex:idx_pack_item"`
	StickerID int64     `gorm:"not null;uniqueIndex:idx_pack_item"`
	AddedAt   time.Time `gorm:"autoCreateTime"`
}

// UserStats carries per-user activity counters.
type UserStats struct {
	UserID             int64 `gorm:"primaryKey"`
	TotalStickers      int
	TotalVoiceMessages int
	TotalTextMessages  int
	LastActivity       time.Time
}

// TotalStats is the admin-facing aggregate.
type TotalStats struct {
	TotalUsers     int64
	TotalStickers  int64
	ActiveUsers24h int64
	AverageRating  float64
}
