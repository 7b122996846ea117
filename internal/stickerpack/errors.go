package stickerpack

import (
	"errors"
	"fmt"
)

// Classified transport failures. The Telegram adapter is the only place that
// looks at raw API error text; everything above it switches on these
// variants instead of matching substrings.
var (
	// ErrSetInvalid means the external sticker set no longer exists, e.g.
	// the user deleted it through the native client.
	ErrSetInvalid = errors.New("sticker set no longer exists")
	// ErrSetFull means the set hit the transport's per-set sticker cap.
	ErrSetFull = errors.New("sticker set is full")
)

// PackLimitError is returned when the user already owns the maximum number
// of packs and none of them can accept another sticker.
type PackLimitError struct {
	Limit int
}

func (e *PackLimitError) Error() string {
	return fmt.Sprintf("sticker pack limit reached (%d)", e.Limit)
}

// Stable failure reason tags for presentation logic.
const (
	ReasonInvalid   = "invalid"
	ReasonFull      = "full"
	ReasonPackLimit = "pack_limit_reached"
	ReasonOther     = "other"
)

// Classify maps an error returned by the manager to a reason tag so callers
// can pick wording without parsing error strings.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSetInvalid):
		return ReasonInvalid
	case errors.Is(err, ErrSetFull):
		return ReasonFull
	}
	var limitErr *PackLimitError
	if errors.As(err, &limitErr) {
		return ReasonPackLimit
	}
	return ReasonOther
}
