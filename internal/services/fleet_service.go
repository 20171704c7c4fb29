package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/realghost120/ghostgaurd-becakd/internal/fleet"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
)

// EventBroadcaster pushes fleet events to connected consoles. It is
// satisfied by the websocket hub; a nil broadcaster disables the feed.
type EventBroadcaster interface {
	BroadcastHeartbeat(ctx context.Context, licenseKey string, players int, version string, uptime int64)
	BroadcastBan(ctx context.Context, licenseKey, player string, when time.Time)
	BroadcastActionQueued(ctx context.Context, licenseKey, actionID, actionType string)
	BroadcastActionsDrained(ctx context.Context, licenseKey string, count int)
	BroadcastLog(ctx context.Context, licenseKey, kind, message string)
}

// FleetService routes agent traffic and console reads through the
// per-license tracker and mirrors the write side onto the console feed.
// Reads of unknown keys yield zero views by contract, so the service
// never returns errors for fleet state.
type FleetService struct {
	tracker *fleet.Tracker
	feed    EventBroadcaster
	logger  *slog.Logger
}

// NewFleetService creates a fleet service over tracker. feed may be nil.
func NewFleetService(tracker *fleet.Tracker, feed EventBroadcaster, logger *slog.Logger) *FleetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FleetService{
		tracker: tracker,
		feed:    feed,
		logger:  logger.With(slog.String("service", "fleet")),
	}
}

// Heartbeat ingests one agent heartbeat: the roster, version and uptime
// replace the previous snapshot wholesale.
func (s *FleetService) Heartbeat(ctx context.Context, licenseKey string, roster []fleet.RosterEntry, version string, uptime int64) {
	s.tracker.Heartbeat(licenseKey, roster, version, uptime)

	s.logger.DebugContext(ctx, "heartbeat ingested",
		slog.String("license_key", license.MaskKey(licenseKey)),
		slog.Int("players", len(roster)),
		slog.String("version", version),
		slog.Int64("uptime", uptime))

	if s.feed != nil {
		s.feed.BroadcastHeartbeat(ctx, licenseKey, len(roster), version, uptime)
	}
}

// Status returns the derived liveness snapshot for licenseKey.
func (s *FleetService) Status(ctx context.Context, licenseKey string) fleet.StatusView {
	return s.tracker.Status(licenseKey)
}

// Players returns the most recent roster for licenseKey.
func (s *FleetService) Players(ctx context.Context, licenseKey string) []fleet.RosterEntry {
	return s.tracker.Players(licenseKey)
}

// Ban records a ban event for player on licenseKey's server.
func (s *FleetService) Ban(ctx context.Context, licenseKey, player string) fleet.BanEntry {
	entry := s.tracker.Ban(licenseKey, player)

	s.logger.InfoContext(ctx, "player banned",
		slog.String("license_key", license.MaskKey(licenseKey)),
		slog.String("player", player))

	if s.feed != nil {
		s.feed.BroadcastBan(ctx, licenseKey, entry.Player, entry.Time)
	}
	return entry
}

// Bans returns the ban history for licenseKey in insertion order.
func (s *FleetService) Bans(ctx context.Context, licenseKey string) []fleet.BanEntry {
	return s.tracker.Bans(licenseKey)
}

// PushLog appends a log entry to the license's ring buffer.
func (s *FleetService) PushLog(ctx context.Context, licenseKey string, entry fleet.LogEntry) {
	if entry.Kind == "" {
		entry.Kind = "info"
	}
	s.tracker.AppendLog(licenseKey, entry)

	if s.feed != nil {
		s.feed.BroadcastLog(ctx, licenseKey, entry.Kind, entry.Message)
	}
}

// Logs returns the buffered log entries for licenseKey, newest first.
func (s *FleetService) Logs(ctx context.Context, licenseKey string) []fleet.LogEntry {
	return s.tracker.Logs(licenseKey)
}

// EnqueueAction queues an action for the license's agent and returns it
// with its assigned id.
func (s *FleetService) EnqueueAction(ctx context.Context, licenseKey, actionType string, payload json.RawMessage) fleet.Action {
	action := s.tracker.EnqueueAction(licenseKey, actionType, payload)

	s.logger.InfoContext(ctx, "action enqueued",
		slog.String("license_key", license.MaskKey(licenseKey)),
		slog.String("action_id", action.ID),
		slog.String("action_type", action.Type))

	if s.feed != nil {
		s.feed.BroadcastActionQueued(ctx, licenseKey, action.ID, action.Type)
	}
	return action
}

// DrainActions empties the license's mailbox and returns the actions in
// FIFO order. Delivery is consume-once: a second drain returns nothing.
func (s *FleetService) DrainActions(ctx context.Context, licenseKey string) []fleet.Action {
	actions := s.tracker.DrainActions(licenseKey)

	if len(actions) > 0 {
		s.logger.DebugContext(ctx, "actions drained",
			slog.String("license_key", license.MaskKey(licenseKey)),
			slog.Int("count", len(actions)))

		if s.feed != nil {
			s.feed.BroadcastActionsDrained(ctx, licenseKey, len(actions))
		}
	}
	return actions
}

// SessionCount reports how many licenses hold fleet state.
func (s *FleetService) SessionCount() int {
	return s.tracker.SessionCount()
}
