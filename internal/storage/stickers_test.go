package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func saveTestSticker(t *testing.T, db *gorm.DB, userID int64) int64 {
	t.Helper()
	meta, err := GenerationMeta{Model: "sticker-maker", EnhancedPrompt: "a fox, cartoon style"}.ToJSON()
	require.NoError(t, err)
	id, err := SaveSticker(db, &Sticker{
		UserID:     userID,
		Prompt:     "лиса",
		Style:      "cartoon",
		Background: "transparent",
		FilePath:   "/tmp/fox.png",
		Meta:       meta,
	})
	require.NoError(t, err)
	return id
}

func TestSaveStickerBumpsCounter(t *testing.T) {
	db := testDB(t)

	id := saveTestSticker(t, db, 42)
	assert.Positive(t, id)

	stats, err := GetUserStats(db, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalStickers)
}

func TestGetStickerScopesToOwner(t *testing.T) {
	db := testDB(t)
	id := saveTestSticker(t, db, 42)

	sticker, err := GetSticker(db, id, 42)
	require.NoError(t, err)
	assert.Equal(t, "лиса", sticker.Prompt)

	meta, err := MetaFromJSON(sticker.Meta)
	require.NoError(t, err)
	assert.Equal(t, "sticker-maker", meta.Model)

	_, err = GetSticker(db, id, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetUserStickersNewestFirst(t *testing.T) {
	db := testDB(t)
	first := saveTestSticker(t, db, 42)
	second := saveTestSticker(t, db, 42)
	saveTestSticker(t, db, 7)

	stickers, err := GetUserStickers(db, 42, 10, 0)
	require.NoError(t, err)
	require.Len(t, stickers, 2)
	// Same-second timestamps keep insertion order ambiguity out by id check.
	ids := []int64{stickers[0].ID, stickers[1].ID}
	assert.ElementsMatch(t, []int64{first, second}, ids)
}

func TestUpdateStickerRating(t *testing.T) {
	db := testDB(t)
	id := saveTestSticker(t, db, 42)

	ok, err := UpdateStickerRating(db, id, 42, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	sticker, err := GetSticker(db, id, 42)
	require.NoError(t, err)
	require.NotNil(t, sticker.Rating)
	assert.Equal(t, 5, *sticker.Rating)

	_, err = UpdateStickerRating(db, id, 42, 7)
	assert.Error(t, err)

	ok, err = UpdateStickerRating(db, id, 999, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateStickerFeedback(t *testing.T) {
	db := testDB(t)
	id := saveTestSticker(t, db, 42)

	ok, err := UpdateStickerFeedback(db, id, 42, "more whiskers please")
	require.NoError(t, err)
	assert.True(t, ok)

	sticker, err := GetSticker(db, id, 42)
	require.NoError(t, err)
	assert.Equal(t, "more whiskers please", sticker.FeedbackComment)
}

func TestSoftDeleteStickerHidesRow(t *testing.T) {
	db := testDB(t)
	id := saveTestSticker(t, db, 42)

	ok, err := SoftDeleteSticker(db, id, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = GetSticker(db, id, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestGetTotalStats(t *testing.T) {
	db := testDB(t)
	require.NoError(t, UpsertUser(db, &User{UserID: 42, FirstName: "Иван"}))
	require.NoError(t, UpsertUser(db, &User{UserID: 7, FirstName: "Anna"}))
	id := saveTestSticker(t, db, 42)
	saveTestSticker(t, db, 7)

	_, err := UpdateStickerRating(db, id, 42, 4)
	require.NoError(t, err)

	total, err := GetTotalStats(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total.TotalUsers)
	assert.Equal(t, int64(2), total.TotalStickers)
	assert.InDelta(t, 4.0, total.AverageRating, 0.001)
}

func TestUpsertUserRefreshesProfile(t *testing.T) {
	db := testDB(t)

	require.NoError(t, UpsertUser(db, &User{UserID: 42, Username: "old", FirstName: "Иван"}))
	require.NoError(t, UpsertUser(db, &User{UserID: 42, Username: "new", FirstName: "Иван", LanguageCode: "ru"}))

	user, err := GetUser(db, 42)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "new", user.Username)
	assert.Equal(t, "ru", user.LanguageCode)

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetUserUnknownReturnsNil(t *testing.T) {
	db := testDB(t)
	user, err := GetUser(db, 123456)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRecordMessageCounters(t *testing.T) {
	db := testDB(t)

	require.NoError(t, RecordMessage(db, 42, true))
	require.NoError(t, RecordMessage(db, 42, true))
	require.NoError(t, RecordMessage(db, 42, false))

	stats, err := GetUserStats(db, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalVoiceMessages)
	assert.Equal(t, 1, stats.TotalTextMessages)
	assert.False(t, stats.LastActivity.IsZero())
}

func TestGetUserStatsZeroForUnknown(t *testing.T) {
	db := testDB(t)
	stats, err := GetUserStats(db, 555)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalStickers)
	assert.Zero(t, stats.TotalVoiceMessages)
}
