package fleet

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/realghost120/ghostgaurd-becakd/internal/license"
)

// EnqueueAction queues a command for the license's agent and returns it
// with its assigned id. When the append would push the queue past
// MailboxCapacity the oldest mailboxEvictBatch actions are dropped
// first; an agent that never polls loses its oldest commands.
func (t *Tracker) EnqueueAction(key, actionType string, payload json.RawMessage) Action {
	action := Action{
		ID:        t.idGen.NewID(),
		Type:      actionType,
		Payload:   payload,
		CreatedAt: t.now(),
	}

	s := t.session(key)
	var evicted int
	s.mu.Lock()
	if len(s.actions)+1 > MailboxCapacity {
		evicted = mailboxEvictBatch
		s.actions = append([]Action(nil), s.actions[evicted:]...)
	}
	s.actions = append(s.actions, action)
	queueLen := len(s.actions)
	s.mu.Unlock()

	if evicted > 0 {
		t.logger.Warn("action mailbox overflow",
			slog.String("license_key", license.MaskKey(key)),
			slog.Int("evicted", evicted),
			slog.Int("queue_len", queueLen))
	}
	if t.metrics != nil {
		ctx := context.Background()
		t.metrics.ActionsEnqueued.Add(ctx, 1)
		if evicted > 0 {
			t.metrics.ActionsEvicted.Add(ctx, int64(evicted))
		}
	}
	return action
}

// DrainActions atomically takes all queued actions for key, oldest
// first, leaving the queue empty. Each action is delivered at most
// once; there is no acknowledgement and no retry.
func (t *Tracker) DrainActions(key string) []Action {
	s, ok := t.lookup(key)
	if !ok {
		return []Action{}
	}

	s.mu.Lock()
	actions := s.actions
	s.actions = nil
	s.mu.Unlock()

	if len(actions) == 0 {
		return []Action{}
	}
	if t.metrics != nil {
		t.metrics.ActionsDrained.Add(context.Background(), int64(len(actions)))
	}
	return actions
}
