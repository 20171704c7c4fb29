package fleet

import "context"

// AppendLog prepends entry to the license's log buffer. The buffer
// keeps the most recent LogCapacity entries and silently drops the
// rest; it is a diagnostic aid, not an audit trail. A zero Time is
// stamped with the current time and an empty Kind defaults to "info".
func (t *Tracker) AppendLog(key string, entry LogEntry) {
	if entry.Time.IsZero() {
		entry.Time = t.now()
	}
	if entry.Kind == "" {
		entry.Kind = "info"
	}

	s := t.session(key)
	s.mu.Lock()
	s.logs = append([]LogEntry{entry}, s.logs...)
	if len(s.logs) > LogCapacity {
		s.logs = s.logs[:LogCapacity]
	}
	s.mu.Unlock()

	if t.metrics != nil {
		t.metrics.LogsAppended.Add(context.Background(), 1)
	}
}

// Logs returns the buffered log entries for key, newest first.
func (t *Tracker) Logs(key string) []LogEntry {
	s, ok := t.lookup(key)
	if !ok {
		return []LogEntry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}
