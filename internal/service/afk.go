package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/kangminLeo/Ironbot/internal/gateway"
)

// AFKPolicy holds the relocation thresholds, both boundary-inclusive.
type AFKPolicy struct {
	AFKSeconds       int64
	MuteGraceSeconds int64
}

type muteKey struct {
	communityID   int64
	participantID int64
}

// Guard periodically relocates long-inactive or long-muted participants into
// the community's holding room. Mute timers live only in memory: losing them
// on restart delays relocation by at most one grace period, never accelerates
// it.
type Guard struct {
	settings SettingsStore
	activity ActivityStore
	rooms    gateway.RoomManager
	policy   AFKPolicy
	now      func() time.Time

	mu        sync.Mutex
	muteSince map[muteKey]time.Time
}

func NewGuard(settings SettingsStore, activity ActivityStore, rooms gateway.RoomManager, policy AFKPolicy) *Guard {
	if policy.AFKSeconds <= 0 {
		policy.AFKSeconds = 60 * 60
	}
	if policy.MuteGraceSeconds <= 0 {
		policy.MuteGraceSeconds = 60 * 60
	}
	return &Guard{
		settings:  settings,
		activity:  activity,
		rooms:     rooms,
		policy:    policy,
		now:       time.Now,
		muteSince: make(map[muteKey]time.Time),
	}
}

func (g *Guard) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("afk guard started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("afk guard stopped")
			return
		case <-ticker.C:
			g.Sweep(ctx)
		}
	}
}

func (g *Guard) Sweep(ctx context.Context) {
	ctx, span := otel.Tracer("ironbot").Start(ctx, "afk.sweep")
	defer span.End()

	communities, err := g.rooms.ListCommunities(ctx)
	if err != nil {
		slog.WarnContext(ctx, "afk: list communities", "err", err)
		return
	}
	for _, cid := range communities {
		if err := g.sweepCommunity(ctx, cid); err != nil {
			slog.WarnContext(ctx, "afk: community sweep", "community", cid, "err", err)
		}
	}
}

func (g *Guard) sweepCommunity(ctx context.Context, communityID int64) error {
	st, err := g.settings.Get(ctx, communityID)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if st.AFKRoomID == nil {
		return nil
	}
	holdingRoom := *st.AFKRoomID
	now := g.now()

	rooms, err := g.rooms.ListRooms(ctx, communityID)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}

	for _, room := range rooms {
		if room.ID == holdingRoom {
			continue
		}
		members, err := g.rooms.ListPresent(ctx, room.ID)
		if err != nil {
			slog.WarnContext(ctx, "afk: list present", "room", room.ID, "err", err)
			continue
		}

		for _, m := range members {
			if m.Bot {
				continue
			}
			key := muteKey{communityID: communityID, participantID: m.ParticipantID}

			rec, err := g.activity.LastActive(ctx, communityID, m.ParticipantID)
			if err != nil {
				slog.WarnContext(ctx, "afk: last active", "participant", m.ParticipantID, "err", err)
				continue
			}
			lastAt := now // brand-new accounts start fresh
			if rec != nil {
				lastAt = rec.LastActiveAt
			}
			inactiveTooLong := int64(now.Sub(lastAt)/time.Second) >= g.policy.AFKSeconds

			mutedTooLong := g.trackMute(key, m.Muted(), now)

			if !inactiveTooLong && !mutedTooLong {
				continue
			}

			if err := g.rooms.MoveParticipant(ctx, communityID, m.ParticipantID, holdingRoom); err != nil {
				// Refused or already-moved relocations are skipped, never
				// fatal to the sweep.
				if errors.Is(err, gateway.ErrForbidden) {
					slog.DebugContext(ctx, "afk: relocation forbidden", "participant", m.ParticipantID)
				} else {
					slog.WarnContext(ctx, "afk: relocation failed", "participant", m.ParticipantID, "err", err)
				}
				continue
			}
			g.clearMute(key)
			slog.InfoContext(ctx, "afk: relocated participant",
				"community", communityID, "participant", m.ParticipantID,
				"inactive", inactiveTooLong, "muted", mutedTooLong)
		}
	}
	return nil
}

// trackMute debounces the mute signal: a timer starts when a participant is
// first seen muted and is dropped the instant the mute clears, so momentary
// mute toggles never trigger relocation.
func (g *Guard) trackMute(key muteKey, muted bool, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !muted {
		delete(g.muteSince, key)
		return false
	}
	since, ok := g.muteSince[key]
	if !ok {
		g.muteSince[key] = now
		return false
	}
	return int64(now.Sub(since)/time.Second) >= g.policy.MuteGraceSeconds
}

func (g *Guard) clearMute(key muteKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.muteSince, key)
}
