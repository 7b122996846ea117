package bot

import (
	"sync"
	"time"

	"github.com/voicesticker/voicesticker-bot/internal/imaging"
	"github.com/voicesticker/voicesticker-bot/internal/prompt"
)

// Conversation actions.
const (
	actionAwaitingStyle      = "awaiting_style"
	actionAwaitingBackground = "awaiting_background"
	actionAwaitingComment    = "awaiting_comment"
	actionAwaitingOverlay    = "awaiting_overlay_text"
)

const stateTTL = 30 * time.Minute

type UserState struct {
	UserID      int64
	Action      string
	Prompt      string
	Style       prompt.Style
	Background  imaging.Background
	StickerID   int64 // set when the action refers to an already generated sticker
	MessageID   int   // menu message to edit in place
	FromVoice   bool
	LastUpdated time.Time
}

type StateManager struct {
	states map[int64]*UserState
	mu     sync.RWMutex
}

func NewStateManager() *StateManager {
	return &StateManager{
		states: make(map[int64]*UserState),
	}
}

func (sm *StateManager) SetState(userID int64, state *UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	state.LastUpdated = time.Now()
	sm.states[userID] = state
}

// GetState returns the current state. Expired states are dropped.
func (sm *StateManager) GetState(userID int64) (*UserState, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	state, ok := sm.states[userID]
	if !ok {
		return nil, false
	}
	if time.Since(state.LastUpdated) > stateTTL {
		delete(sm.states, userID)
		return nil, false
	}
	return state, true
}

func (sm *StateManager) ClearState(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.states, userID)
}
