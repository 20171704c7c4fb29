package fleet

import "context"

// Players returns the last reported roster for key, empty if the
// license has never heartbeated.
func (t *Tracker) Players(key string) []RosterEntry {
	s, ok := t.lookup(key)
	if !ok {
		return []RosterEntry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RosterEntry, len(s.roster))
	copy(out, s.roster)
	return out
}

// Ban appends a ban event for player and returns the recorded entry.
// The list is unbounded and never deduplicated: banning the same player
// twice records two events.
func (t *Tracker) Ban(key, player string) BanEntry {
	entry := BanEntry{Player: player, Time: t.now()}

	s := t.session(key)
	s.mu.Lock()
	s.bans = append(s.bans, entry)
	s.mu.Unlock()

	if t.metrics != nil {
		t.metrics.BansRecorded.Add(context.Background(), 1)
	}
	return entry
}

// Bans returns the ban history for key in insertion order.
func (t *Tracker) Bans(key string) []BanEntry {
	s, ok := t.lookup(key)
	if !ok {
		return []BanEntry{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BanEntry, len(s.bans))
	copy(out, s.bans)
	return out
}
