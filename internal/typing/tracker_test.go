package typing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalMarksTypist(t *testing.T) {
	tracker := NewTracker(10*time.Millisecond, time.Minute, nil)
	defer tracker.Stop()

	require.True(t, tracker.Signal("u1", "Ana"))
	typists := tracker.Typing()
	require.Len(t, typists, 1)
	assert.Equal(t, "u1", typists[0].UserID)
	assert.Equal(t, "Ana", typists[0].DisplayName)
}

func TestSignalDebounce(t *testing.T) {
	tracker := NewTracker(time.Minute, time.Hour, nil)
	defer tracker.Stop()

	require.True(t, tracker.Signal("u1", "Ana"))
	assert.False(t, tracker.Signal("u1", "Ana"), "second signal inside the debounce window must not rebroadcast")
}

func TestExpiryRemovesTypist(t *testing.T) {
	var mu sync.Mutex
	var expired []string
	tracker := NewTracker(time.Millisecond, 30*time.Millisecond, func(userID string) {
		mu.Lock()
		expired = append(expired, userID)
		mu.Unlock()
	})
	defer tracker.Stop()

	tracker.Signal("u1", "Ana")

	require.Eventually(t, func() bool {
		return len(tracker.Typing()) == 0
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"u1"}, expired)
}

func TestRenewedSignalResetsWindow(t *testing.T) {
	tracker := NewTracker(time.Millisecond, 60*time.Millisecond, nil)
	defer tracker.Stop()

	tracker.Signal("u1", "Ana")

	// Keep renewing past the original deadline; the typist must survive.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		tracker.Signal("u1", "Ana")
	}
	assert.Len(t, tracker.Typing(), 1)

	require.Eventually(t, func() bool {
		return len(tracker.Typing()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestMultipleConcurrentTypists(t *testing.T) {
	tracker := NewTracker(time.Millisecond, time.Minute, nil)
	defer tracker.Stop()

	tracker.Signal("u1", "Ana")
	tracker.Signal("u2", "Bruno")

	typists := tracker.Typing()
	require.Len(t, typists, 2)
	assert.Equal(t, "u1", typists[0].UserID)
	assert.Equal(t, "u2", typists[1].UserID)

	tracker.Remove("u1")
	assert.Len(t, tracker.Typing(), 1)
}
