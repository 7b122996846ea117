package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicesticker/voicesticker-bot/internal/prompt"
)

func TestStateManagerRoundTrip(t *testing.T) {
	sm := NewStateManager()

	_, ok := sm.GetState(42)
	assert.False(t, ok)

	sm.SetState(42, &UserState{UserID: 42, Action: actionAwaitingStyle, Prompt: "кот"})

	state, ok := sm.GetState(42)
	require.True(t, ok)
	assert.Equal(t, "кот", state.Prompt)
	assert.Equal(t, actionAwaitingStyle, state.Action)
	assert.False(t, state.LastUpdated.IsZero())

	sm.ClearState(42)
	_, ok = sm.GetState(42)
	assert.False(t, ok)
}

func TestStateManagerExpiry(t *testing.T) {
	sm := NewStateManager()
	sm.SetState(42, &UserState{UserID: 42, Action: actionAwaitingStyle})

	// Age the state past the TTL by hand.
	sm.mu.Lock()
	sm.states[42].LastUpdated = time.Now().Add(-stateTTL - time.Minute)
	sm.mu.Unlock()

	_, ok := sm.GetState(42)
	assert.False(t, ok)

	// The expired entry is gone, not just hidden.
	sm.mu.Lock()
	_, present := sm.states[42]
	sm.mu.Unlock()
	assert.False(t, present)
}

func TestStateManagerIsolatesUsers(t *testing.T) {
	sm := NewStateManager()
	sm.SetState(42, &UserState{UserID: 42, Style: prompt.StyleCartoon})
	sm.SetState(7, &UserState{UserID: 7, Style: prompt.StyleAnime})

	a, _ := sm.GetState(42)
	b, _ := sm.GetState(7)
	assert.Equal(t, prompt.StyleCartoon, a.Style)
	assert.Equal(t, prompt.StyleAnime, b.Style)
}

func TestStateManagerConcurrentAccess(t *testing.T) {
	sm := NewStateManager()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sm.SetState(id, &UserState{UserID: id})
			sm.GetState(id)
			sm.ClearState(id)
		}(i)
	}
	wg.Wait()
}
