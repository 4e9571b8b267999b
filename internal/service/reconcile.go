package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/kangminLeo/Ironbot/internal/domain"
	"github.com/kangminLeo/Ironbot/internal/gateway"
)

// Reconciler is the correctness backstop for the accrual ledger. On every
// sweep it grants the elapsed time of each open session and restarts the
// session for participants still present, so a missed leave event can never
// freeze a session open without further awards.
type Reconciler struct {
	accounts AccountStore
	activity ActivityStore
	settings SettingsStore
	rooms    gateway.RoomManager
	notify   *Notify
	policy   Policy
	now      func() time.Time
}

func NewReconciler(accounts AccountStore, activity ActivityStore, settings SettingsStore, rooms gateway.RoomManager, notify *Notify, policy Policy) *Reconciler {
	return &Reconciler{
		accounts: accounts,
		activity: activity,
		settings: settings,
		rooms:    rooms,
		notify:   notify,
		policy:   policy,
		now:      time.Now,
	}
}

// Run sweeps on the given interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("reconciler started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Reconciler) Sweep(ctx context.Context) {
	ctx, span := otel.Tracer("ironbot").Start(ctx, "reconcile.sweep")
	defer span.End()

	communities, err := r.rooms.ListCommunities(ctx)
	if err != nil {
		slog.WarnContext(ctx, "reconcile: list communities", "err", err)
		return
	}
	for _, cid := range communities {
		if err := r.sweepCommunity(ctx, cid); err != nil {
			slog.WarnContext(ctx, "reconcile: community sweep", "community", cid, "err", err)
		}
	}
}

type grantNote struct {
	participantID int64
	awarded       int64
	newTotal      int64
}

func (r *Reconciler) sweepCommunity(ctx context.Context, communityID int64) error {
	now := r.now()

	st, err := r.settings.Get(ctx, communityID)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	rooms, err := r.rooms.ListRooms(ctx, communityID)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}

	present := make(map[int64]struct{})
	for _, room := range rooms {
		if st.AFKRoomID != nil && room.ID == *st.AFKRoomID {
			continue
		}
		members, err := r.rooms.ListPresent(ctx, room.ID)
		if err != nil {
			slog.WarnContext(ctx, "reconcile: list present", "room", room.ID, "err", err)
			continue
		}
		for _, m := range members {
			if m.Bot {
				continue
			}
			present[m.ParticipantID] = struct{}{}
			if !m.Muted() {
				if err := r.activity.MarkActive(ctx, communityID, m.ParticipantID, now); err != nil {
					slog.WarnContext(ctx, "reconcile: mark active", "participant", m.ParticipantID, "err", err)
				}
			}
		}
	}

	open, err := r.accounts.OpenSessions(ctx, communityID)
	if err != nil {
		return fmt.Errorf("open sessions: %w", err)
	}

	var notes []grantNote
	for _, session := range open {
		pid := session.ParticipantID
		var awarded, newTotal int64
		err := r.accounts.Mutate(ctx, communityID, pid, func(acc *domain.Account) error {
			if acc.SessionStart == nil {
				// closed by a racing leave event; nothing to reconcile
				return nil
			}
			elapsed := int64(now.Sub(*acc.SessionStart) / time.Second)
			awarded = r.policy.apply(acc, elapsed)
			if _, ok := present[pid]; ok {
				start := now
				acc.SessionStart = &start
			} else {
				acc.SessionStart = nil
			}
			newTotal = acc.Points
			return nil
		})
		if err != nil {
			slog.ErrorContext(ctx, "reconcile: grant", "community", communityID, "participant", pid, "err", err)
			continue
		}
		if awarded > 0 {
			notes = append(notes, grantNote{participantID: pid, awarded: awarded, newTotal: newTotal})
		}
	}

	// Notifications go out only after every transaction has committed, so no
	// lock is held during network calls.
	for _, n := range notes {
		r.notify.GrantAwarded(ctx, communityID, n.participantID, n.awarded, n.newTotal)
	}
	return nil
}
