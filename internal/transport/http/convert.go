package http

import (
	"github.com/realghost120/ghostgaurd-becakd/internal/fleet"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/domain"
)

// Boundary mapping between internal records and the wire contracts.
// Slice conversions always return a non-nil slice so empty collections
// serialize as [] rather than null.

func toRoster(players []api.PlayerInput) []fleet.RosterEntry {
	roster := make([]fleet.RosterEntry, 0, len(players))
	for _, p := range players {
		roster = append(roster, fleet.RosterEntry{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Ping:     p.Ping,
		})
	}
	return roster
}

func toDomainPlayers(roster []fleet.RosterEntry) []domain.Player {
	players := make([]domain.Player, 0, len(roster))
	for _, e := range roster {
		players = append(players, domain.Player{
			PlayerID: e.PlayerID,
			Name:     e.Name,
			Ping:     e.Ping,
		})
	}
	return players
}

func toDomainBans(bans []fleet.BanEntry) []domain.Ban {
	out := make([]domain.Ban, 0, len(bans))
	for _, b := range bans {
		out = append(out, domain.Ban{Player: b.Player, Time: b.Time})
	}
	return out
}

func toDomainLogs(logs []fleet.LogEntry) []domain.LogEntry {
	out := make([]domain.LogEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, domain.LogEntry{
			Time:    l.Time,
			Kind:    l.Kind,
			Message: l.Message,
			Title:   l.Title,
			Meta:    l.Meta,
		})
	}
	return out
}

func toDomainActions(actions []fleet.Action) []domain.Action {
	out := make([]domain.Action, 0, len(actions))
	for _, a := range actions {
		out = append(out, domain.Action{
			ID:        a.ID,
			Type:      a.Type,
			Payload:   a.Payload,
			CreatedAt: a.CreatedAt,
		})
	}
	return out
}

func toDomainStatus(view fleet.StatusView) domain.ServerStatus {
	return domain.ServerStatus{
		Online:        view.Online,
		Players:       view.Players,
		Uptime:        view.Uptime,
		Version:       view.Version,
		LastHeartbeat: view.LastHeartbeat,
	}
}

func toDomainLicense(rec *store.LicenseRecord) *domain.License {
	if rec == nil {
		return nil
	}
	return &domain.License{
		LicenseKey: rec.LicenseKey,
		Status:     domain.LicenseStatus(rec.Status),
		ExpiresAt:  rec.ExpiresAt,
		HWID:       rec.HWID,
		LastSeen:   rec.LastSeen,
		CreatedAt:  rec.CreatedAt,
	}
}

func toDomainLicenses(recs []*store.LicenseRecord) []domain.License {
	out := make([]domain.License, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *toDomainLicense(rec))
	}
	return out
}

func toDomainCustomer(rec *store.CustomerRecord) *domain.Customer {
	if rec == nil {
		return nil
	}
	return &domain.Customer{
		Username:   rec.Username,
		LicenseKey: rec.LicenseKey,
		CreatedAt:  rec.CreatedAt,
	}
}
