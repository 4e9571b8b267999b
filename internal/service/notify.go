package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kangminLeo/Ironbot/internal/gateway"
)

// Notify delivers best-effort messages to the community's log room. Delivery
// failure is swallowed: the notification path never influences whether a
// ledger mutation commits.
type Notify struct {
	settings SettingsStore
	sender   gateway.Notifier
	policy   Policy
}

func NewNotify(settings SettingsStore, sender gateway.Notifier, policy Policy) *Notify {
	return &Notify{settings: settings, sender: sender, policy: policy}
}

// GrantAwarded announces a nonzero point award in the log room, if one is
// configured.
func (n *Notify) GrantAwarded(ctx context.Context, communityID, participantID, awarded, newTotal int64) {
	st, err := n.settings.Get(ctx, communityID)
	if err != nil {
		slog.Warn("notify: read settings", "community", communityID, "err", err)
		return
	}
	if st.LogRoomID == nil {
		return
	}

	blocks := awarded / n.policy.PointsPerBlock
	minutes := blocks * (n.policy.BlockSeconds / 60)
	text := fmt.Sprintf("<@%d> earned **%dp** for **%d minutes** of voice activity! (total %dp)",
		participantID, awarded, minutes, newTotal)

	if err := n.sender.SendMessage(ctx, *st.LogRoomID, text); err != nil {
		slog.Debug("notify: send grant message", "community", communityID, "participant", participantID, "err", err)
	}
}
