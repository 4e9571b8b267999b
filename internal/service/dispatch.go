package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// Dispatcher fans a gateway event out to the interested services.
type Dispatcher struct {
	groups   *Groups
	tracker  *Tracker
	accounts AccountStore
	activity ActivityStore
}

func NewDispatcher(groups *Groups, tracker *Tracker, accounts AccountStore, activity ActivityStore) *Dispatcher {
	return &Dispatcher{groups: groups, tracker: tracker, accounts: accounts, activity: activity}
}

// HandleVoiceState routes one presence change. Room lifecycle runs first so
// that a trigger-room entry spawns its group before accrual looks at the
// destination.
func (d *Dispatcher) HandleVoiceState(ctx context.Context, ev domain.VoiceState) {
	if ev.Bot {
		return
	}
	d.groups.HandleVoiceState(ctx, ev)
	if err := d.tracker.HandleVoiceState(ctx, ev); err != nil {
		slog.Error("dispatch: voice state", "community", ev.CommunityID, "participant", ev.ParticipantID, "err", err)
	}
}

// HandleMessage records text activity: it keeps the account known and bumps
// the activity timestamp the inactivity guard reads.
func (d *Dispatcher) HandleMessage(ctx context.Context, communityID, participantID int64, bot bool) {
	if bot {
		return
	}
	if err := d.accounts.Ensure(ctx, communityID, participantID); err != nil {
		slog.Warn("dispatch: ensure account", "participant", participantID, "err", err)
		return
	}
	if err := d.activity.MarkActive(ctx, communityID, participantID, time.Now()); err != nil {
		slog.Warn("dispatch: mark active", "participant", participantID, "err", err)
	}
}
