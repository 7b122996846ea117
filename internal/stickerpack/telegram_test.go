package stickerpack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTransportClassify(t *testing.T) {
	tr := &TelegramTransport{logger: zap.NewNop()}

	tests := []struct {
		name     string
		apiErr   string
		sentinel error
	}{
		{"invalid set", "Bad Request: STICKERSET_INVALID", ErrSetInvalid},
		{"missing set", "Bad Request: STICKERSET_NOT_FOUND", ErrSetInvalid},
		{"too much", "Bad Request: STICKERS_TOO_MUCH", ErrSetFull},
		{"too many", "Bad Request: STICKERS_TOO_MANY", ErrSetFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.classify("append", errors.New(tt.apiErr))
			assert.ErrorIs(t, got, tt.sentinel)
		})
	}
}

func TestTransportClassifyPassesThroughUnknown(t *testing.T) {
	tr := &TelegramTransport{logger: zap.NewNop()}
	raw := errors.New("Too Many Requests: retry after 5")
	got := tr.classify("create", raw)
	assert.NotErrorIs(t, got, ErrSetInvalid)
	assert.NotErrorIs(t, got, ErrSetFull)
	assert.ErrorIs(t, got, raw)
}

func TestDeepLink(t *testing.T) {
	tr := &TelegramTransport{logger: zap.NewNop()}
	assert.Equal(t, "https://t.me/addstickers/ivan_stickers_by_TestBot", tr.DeepLink("ivan_stickers_by_TestBot"))
}
