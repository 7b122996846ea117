package stickerpack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// PackRecord is the registry's view of one external sticker set.
type PackRecord struct {
	Name      string
	Ordinal   int
	ItemCount int
}

// Registry is the local bookkeeping of which set names belong to which user.
// It mirrors external reality and can go stale; the transport stays
// authoritative and the manager reconciles on drift.
type Registry interface {
	// ListPacksForUser returns the user's known packs, ordinal ascending.
	ListPacksForUser(userID int64) ([]PackRecord, error)
	// RecordPackCreated upserts a pack row. Ordinal 0 means "derive from the
	// name's numeric suffix where parseable, else 1".
	RecordPackCreated(userID int64, name string, ordinal int) error
	// RecordItemAdded associates a sticker with a pack; a repeat call for
	// the same pair is a no-op.
	RecordItemAdded(userID int64, packName string, stickerID int64) error
	// ForgetPack drops the pack row and its item associations.
	ForgetPack(userID int64, name string) error
}

// AddResult is the success outcome of GetOrCreatePack.
type AddResult struct {
	PackName string
	Link     string
	// Created is true when a brand-new set was made for this sticker.
	Created bool
}

// Manager routes each freshly generated sticker into some valid sticker set
// of its owner: it scans known packs in ordinal order, self-heals packs that
// were deleted externally, skips full ones, and rolls over to a new set when
// nothing else accepts the sticker.
type Manager struct {
	transport   SetTransport
	registry    Registry
	botUsername string
	maxPacks    int
	logger      *zap.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

func NewManager(transport SetTransport, registry Registry, botUsername string, maxPacks int, logger *zap.Logger) *Manager {
	return &Manager{
		transport:   transport,
		registry:    registry,
		botUsername: botUsername,
		maxPacks:    maxPacks,
		logger:      logger.Named("pack_manager"),
		userLocks:   make(map[int64]*sync.Mutex),
	}
}

// lockUser serializes concurrent add requests for the same user so duplicate
// taps cannot race to create two packs or double-count ordinals.
func (m *Manager) lockUser(userID int64) func() {
	m.mu.Lock()
	lock, ok := m.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.userLocks[userID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// GetOrCreatePack makes the sticker visible in some valid set belonging to
// the user and returns the set's name and deep link. Failures carry a
// classification (see Classify) so callers can render a specific message.
func (m *Manager) GetOrCreatePack(ctx context.Context, userID int64, displayName string, stickerID int64, stickerBytes []byte, emoji string) (*AddResult, error) {
	unlock := m.lockUser(userID)
	defer unlock()

	prepared, err := PrepareStickerFile(stickerBytes)
	if err != nil {
		return nil, err
	}

	packs, err := m.registry.ListPacksForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list packs for user %d: %w", userID, err)
	}

	remaining := len(packs)
	maxOrdinal := 0
	for _, pack := range packs {
		appendErr := m.transport.AppendSticker(ctx, userID, pack.Name, prepared, emoji)
		switch {
		case appendErr == nil:
			m.recordItem(userID, pack.Name, stickerID)
			m.logger.Info("Added sticker to existing pack",
				zap.Int64("user_id", userID), zap.String("pack", pack.Name))
			return &AddResult{PackName: pack.Name, Link: m.transport.DeepLink(pack.Name)}, nil

		case errors.Is(appendErr, ErrSetInvalid):
			// The user removed the set outside the bot; drop the stale
			// record and keep scanning.
			m.logger.Warn("Pack is invalid, purging from registry",
				zap.Int64("user_id", userID), zap.String("pack", pack.Name))
			if forgetErr := m.registry.ForgetPack(userID, pack.Name); forgetErr != nil {
				m.logger.Error("Failed to purge invalid pack",
					zap.String("pack", pack.Name), zap.Error(forgetErr))
			}
			remaining--

		case errors.Is(appendErr, ErrSetFull):
			// Still a valid pack, just at capacity. Leave the record alone.
			m.logger.Info("Pack is full, trying next",
				zap.Int64("user_id", userID), zap.String("pack", pack.Name))
			if pack.Ordinal > maxOrdinal {
				maxOrdinal = pack.Ordinal
			}

		default:
			return nil, appendErr
		}
	}

	if remaining >= m.maxPacks {
		m.logger.Warn("User reached pack limit", zap.Int64("user_id", userID), zap.Int("limit", m.maxPacks))
		return nil, &PackLimitError{Limit: m.maxPacks}
	}

	// The next ordinal must clear every surviving pack's ordinal, not just
	// the surviving count: after a purge the count can land on a full
	// pack's ordinal and regenerate its exact name.
	ordinal := maxOrdinal + 1
	nameSource := ""
	if ordinal == 1 {
		nameSource = displayName
	}
	name := PackName(m.botUsername, userID, ordinal, nameSource)
	title := PackTitle(m.displayNameOrFallback(displayName, userID), ordinal)

	if err := m.transport.CreateSet(ctx, userID, name, title, prepared, emoji); err != nil {
		return nil, err
	}

	if err := m.registry.RecordPackCreated(userID, name, ordinal); err != nil {
		// The external set exists now; a registry hiccup must not hide that
		// from the user. Log and carry on.
		m.logger.Error("Failed to record created pack", zap.String("pack", name), zap.Error(err))
	}
	m.recordItem(userID, name, stickerID)

	m.logger.Info("Created new pack",
		zap.Int64("user_id", userID), zap.String("pack", name), zap.Int("ordinal", ordinal))
	return &AddResult{PackName: name, Link: m.transport.DeepLink(name), Created: true}, nil
}

// CleanupInvalidPacks probes every registered set of the user and forgets
// the ones the transport no longer knows. Returns the purge count.
func (m *Manager) CleanupInvalidPacks(ctx context.Context, userID int64) (int, error) {
	unlock := m.lockUser(userID)
	defer unlock()

	packs, err := m.registry.ListPacksForUser(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list packs for user %d: %w", userID, err)
	}

	removed := 0
	for _, pack := range packs {
		_, getErr := m.transport.GetSet(ctx, pack.Name)
		if getErr == nil {
			continue
		}
		if errors.Is(getErr, ErrSetInvalid) {
			m.logger.Warn("Removing invalid pack", zap.String("pack", pack.Name))
			if forgetErr := m.registry.ForgetPack(userID, pack.Name); forgetErr != nil {
				m.logger.Error("Failed to forget pack", zap.String("pack", pack.Name), zap.Error(forgetErr))
				continue
			}
			removed++
		} else {
			m.logger.Error("Failed to check pack", zap.String("pack", pack.Name), zap.Error(getErr))
		}
	}
	return removed, nil
}

func (m *Manager) recordItem(userID int64, packName string, stickerID int64) {
	if err := m.registry.RecordItemAdded(userID, packName, stickerID); err != nil {
		m.logger.Error("Failed to record pack item",
			zap.String("pack", packName), zap.Int64("sticker_id", stickerID), zap.Error(err))
	}
}

func (m *Manager) displayNameOrFallback(displayName string, userID int64) string {
	if displayName != "" {
		return displayName
	}
	return fmt.Sprintf("user%d", userID)
}
