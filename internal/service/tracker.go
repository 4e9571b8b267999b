package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// Tracker drives the per-participant session state machine from presence
// events. Idle: no session start stored. Accruing: session start set. A
// countable room is any voice room other than the community's holding room.
type Tracker struct {
	accounts AccountStore
	activity ActivityStore
	settings SettingsStore
	notify   *Notify
	policy   Policy
	now      func() time.Time
}

func NewTracker(accounts AccountStore, activity ActivityStore, settings SettingsStore, notify *Notify, policy Policy) *Tracker {
	return &Tracker{
		accounts: accounts,
		activity: activity,
		settings: settings,
		notify:   notify,
		policy:   policy,
		now:      time.Now,
	}
}

// HandleVoiceState processes one presence-change event.
//
// Leaving a countable room while accruing closes the session and grants the
// elapsed time. Entering a countable room while idle opens a session. Both
// guards make duplicate events no-ops: entering while already accruing does
// not reset the session start, and leaving while idle grants nothing.
func (t *Tracker) HandleVoiceState(ctx context.Context, ev domain.VoiceState) error {
	now := t.now()

	st, err := t.settings.Get(ctx, ev.CommunityID)
	if err != nil {
		return fmt.Errorf("tracker: settings: %w", err)
	}
	countable := func(r *domain.RoomRef) bool {
		return r != nil && (st.AFKRoomID == nil || r.ID != *st.AFKRoomID)
	}

	var awarded, newTotal int64
	err = t.accounts.Mutate(ctx, ev.CommunityID, ev.ParticipantID, func(acc *domain.Account) error {
		if countable(ev.Before) && acc.SessionStart != nil {
			elapsed := int64(now.Sub(*acc.SessionStart) / time.Second)
			awarded = t.policy.apply(acc, elapsed)
			acc.SessionStart = nil
		}
		if countable(ev.After) && acc.SessionStart == nil {
			start := now
			acc.SessionStart = &start
		}
		newTotal = acc.Points
		return nil
	})
	if err != nil {
		// A failed store transaction must surface: proceeding as if it
		// succeeded risks silent point loss.
		return fmt.Errorf("tracker: session transition: %w", err)
	}

	if countable(ev.After) && !ev.SelfMute && !ev.SelfDeaf {
		if err := t.activity.MarkActive(ctx, ev.CommunityID, ev.ParticipantID, now); err != nil {
			slog.Warn("tracker: mark active", "community", ev.CommunityID, "participant", ev.ParticipantID, "err", err)
		}
	}

	if awarded > 0 {
		t.notify.GrantAwarded(ctx, ev.CommunityID, ev.ParticipantID, awarded, newTotal)
	}
	return nil
}
