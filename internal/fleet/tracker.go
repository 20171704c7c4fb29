package fleet

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// session is all ephemeral state tracked for one license key. Every
// field is guarded by the session's own mutex.
type session struct {
	mu            sync.Mutex
	lastHeartbeat time.Time
	version       string
	uptime        int64
	roster        []RosterEntry
	bans          []BanEntry
	logs          []LogEntry
	actions       []Action
}

// Tracker holds the live fleet state, sharded by license key. A
// read-write mutex guards the session map itself; each session carries
// its own lock, so concurrent traffic for different licenses never
// contends.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*session

	idGen   IDGenerator
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewTracker creates an empty tracker. A nil idGen selects the default
// timestamp generator.
func NewTracker(idGen IDGenerator, logger *slog.Logger) *Tracker {
	if idGen == nil {
		idGen = NewIDGenerator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		sessions: make(map[string]*session),
		idGen:    idGen,
		logger:   logger.With(slog.String("component", "fleet")),
		now:      time.Now,
	}
}

// SetMetrics attaches fleet metrics to the tracker.
func (t *Tracker) SetMetrics(m *Metrics) {
	t.metrics = m
}

// session returns the state slot for key, creating it on first use.
func (t *Tracker) session(key string) *session {
	t.mu.RLock()
	s, ok := t.sessions[key]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[key]; ok {
		return s
	}
	s = &session{}
	t.sessions[key] = s
	return s
}

// lookup returns the slot for key without creating one, so read paths
// for unknown licenses allocate nothing.
func (t *Tracker) lookup(key string) (*session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[key]
	return s, ok
}

// Heartbeat ingests one liveness report. The stored roster, version and
// uptime are replaced, not merged: whatever the agent reports is the
// new truth, and omitted fields reset.
func (t *Tracker) Heartbeat(key string, roster []RosterEntry, version string, uptime int64) {
	s := t.session(key)
	now := t.now()

	s.mu.Lock()
	s.lastHeartbeat = now
	s.roster = append([]RosterEntry(nil), roster...)
	s.version = version
	s.uptime = uptime
	s.mu.Unlock()

	if t.metrics != nil {
		t.metrics.Heartbeats.Add(context.Background(), 1)
	}
}

// Status derives the liveness view for key. A server is online while
// its last heartbeat is younger than OnlineTTL; there is no background
// sweep. The last reported roster size, version and uptime stay visible
// after the server goes stale.
func (t *Tracker) Status(key string) StatusView {
	s, ok := t.lookup(key)
	if !ok {
		return StatusView{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := StatusView{
		Players: len(s.roster),
		Uptime:  s.uptime,
		Version: s.version,
	}
	if !s.lastHeartbeat.IsZero() {
		hb := s.lastHeartbeat
		view.LastHeartbeat = &hb
		view.Online = t.now().Sub(hb) < OnlineTTL
	}
	return view
}

// SessionCount reports how many licenses have state in the tracker.
func (t *Tracker) SessionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
