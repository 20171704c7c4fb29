package fleet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqIDGenerator hands out predictable ids for assertions.
type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("act-%d", g.n)
}

func TestTrackerMailbox(t *testing.T) {
	key := "GG-AAAAA-BBBBB-CCCCC-2F"

	t.Run("drain returns queued actions in FIFO order and empties the queue", func(t *testing.T) {
		tr := newTestTracker(t)

		tr.EnqueueAction(key, "restart", nil)
		tr.EnqueueAction(key, "broadcast", json.RawMessage(`{"message":"maintenance in 5"}`))
		tr.EnqueueAction(key, "kick", json.RawMessage(`{"player_id":"p1"}`))

		actions := tr.DrainActions(key)
		require.Len(t, actions, 3)
		assert.Equal(t, "restart", actions[0].Type)
		assert.Equal(t, "broadcast", actions[1].Type)
		assert.Equal(t, "kick", actions[2].Type)

		assert.Empty(t, tr.DrainActions(key), "second drain finds nothing")
	})

	t.Run("payload passes through untouched", func(t *testing.T) {
		tr := newTestTracker(t)
		payload := json.RawMessage(`{"player_id":"p1","reason":"afk"}`)

		tr.EnqueueAction(key, "kick", payload)

		actions := tr.DrainActions(key)
		require.Len(t, actions, 1)
		assert.JSONEq(t, string(payload), string(actions[0].Payload))
	})

	t.Run("enqueue assigns ids from the injected generator", func(t *testing.T) {
		tr := NewTracker(&seqIDGenerator{}, nil)
		stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		tr.now = func() time.Time { return stamp }

		first := tr.EnqueueAction(key, "restart", nil)
		second := tr.EnqueueAction(key, "restart", nil)

		assert.Equal(t, "act-1", first.ID)
		assert.Equal(t, "act-2", second.ID)
		assert.Equal(t, stamp, first.CreatedAt)
	})

	t.Run("default generator ids are unique", func(t *testing.T) {
		tr := newTestTracker(t)
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			a := tr.EnqueueAction(key, "ping", nil)
			require.NotEmpty(t, a.ID)
			assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
			seen[a.ID] = true
		}
	})

	t.Run("overflow evicts the oldest actions in one batch", func(t *testing.T) {
		tr := newTestTracker(t)

		for i := 0; i < MailboxCapacity; i++ {
			tr.EnqueueAction(key, strconv.Itoa(i), nil)
		}
		tr.EnqueueAction(key, strconv.Itoa(MailboxCapacity), nil)

		actions := tr.DrainActions(key)
		require.Len(t, actions, MailboxCapacity-mailboxEvictBatch+1)
		assert.Equal(t, strconv.Itoa(mailboxEvictBatch), actions[0].Type, "oldest surviving action")
		assert.Equal(t, strconv.Itoa(MailboxCapacity), actions[len(actions)-1].Type, "the action that forced the trim")
	})

	t.Run("drain on an unknown license is empty and allocates nothing", func(t *testing.T) {
		tr := newTestTracker(t)
		assert.Empty(t, tr.DrainActions(key))
		assert.Zero(t, tr.SessionCount())
	})
}
