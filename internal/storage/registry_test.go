package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func testRegistry(t *testing.T) *PackRegistry {
	t.Helper()
	return NewPackRegistry(testDB(t), zap.NewNop())
}

func TestRecordPackCreatedIsIdempotent(t *testing.T) {
	r := testRegistry(t)

	require.NoError(t, r.RecordPackCreated(42, "ivan_stickers_by_TestBot", 1))
	require.NoError(t, r.RecordPackCreated(42, "ivan_stickers_by_TestBot", 1))

	packs, err := r.ListPacksForUser(42)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, "ivan_stickers_by_TestBot", packs[0].Name)
	assert.Equal(t, 1, packs[0].Ordinal)
}

func TestRecordPackCreatedDerivesOrdinalWhenUnset(t *testing.T) {
	r := testRegistry(t)

	require.NoError(t, r.RecordPackCreated(42, "pack3_42_by_TestBot", 0))

	packs, err := r.ListPacksForUser(42)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, 3, packs[0].Ordinal)
}

func TestListPacksForUserOrdersByOrdinal(t *testing.T) {
	r := testRegistry(t)

	require.NoError(t, r.RecordPackCreated(42, "pack3_42_by_TestBot", 3))
	require.NoError(t, r.RecordPackCreated(42, "ivan_stickers_by_TestBot", 1))
	require.NoError(t, r.RecordPackCreated(42, "pack2_42_by_TestBot", 2))
	require.NoError(t, r.RecordPackCreated(7, "pack1_7_by_TestBot", 1))

	packs, err := r.ListPacksForUser(42)
	require.NoError(t, err)
	require.Len(t, packs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{packs[0].Ordinal, packs[1].Ordinal, packs[2].Ordinal})
	assert.Equal(t, "ivan_stickers_by_TestBot", packs[0].Name)
}

func TestRecordItemAddedIsIdempotent(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RecordPackCreated(42, "ivan_stickers_by_TestBot", 1))

	require.NoError(t, r.RecordItemAdded(42, "ivan_stickers_by_TestBot", 77))
	require.NoError(t, r.RecordItemAdded(42, "ivan_stickers_by_TestBot", 77))
	require.NoError(t, r.RecordItemAdded(42, "ivan_stickers_by_TestBot", 78))

	packs, err := r.ListPacksForUser(42)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, 2, packs[0].ItemCount)
}

func TestRecordItemAddedCreatesMissingPackRow(t *testing.T) {
	r := testRegistry(t)

	require.NoError(t, r.RecordItemAdded(42, "pack2_42_by_TestBot", 77))

	packs, err := r.ListPacksForUser(42)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, 2, packs[0].Ordinal)
	assert.Equal(t, 1, packs[0].ItemCount)
}

func TestForgetPackDropsRowAndItems(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RecordPackCreated(42, "ivan_stickers_by_TestBot", 1))
	require.NoError(t, r.RecordItemAdded(42, "ivan_stickers_by_TestBot", 77))

	require.NoError(t, r.ForgetPack(42, "ivan_stickers_by_TestBot"))

	packs, err := r.ListPacksForUser(42)
	require.NoError(t, err)
	assert.Empty(t, packs)

	var itemCount int64
	require.NoError(t, r.db.Model(&PackItem{}).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestForgetPackMissingIsNoop(t *testing.T) {
	r := testRegistry(t)
	assert.NoError(t, r.ForgetPack(42, "never_existed_by_TestBot"))
}

func TestDeriveOrdinal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"numeric scheme", "pack5_42_by_TestBot", 5},
		{"first numeric", "pack1_42_by_TestBot", 1},
		{"transliterated name", "ivan_stickers_by_TestBot", 1},
		{"zero ordinal", "pack0_42_by_TestBot", 1},
		{"no prefix", "stickers_by_TestBot", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveOrdinal(tt.input))
		})
	}
}
