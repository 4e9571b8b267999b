package service

import (
	"context"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// Store interfaces cover exactly what the services consume; the postgres
// repositories satisfy them, and tests swap in in-memory fakes.

type AccountStore interface {
	Ensure(ctx context.Context, communityID, participantID int64) error
	// Mutate applies fn to the account under the store's per-account
	// serialization; concurrent mutations of one account never interleave.
	Mutate(ctx context.Context, communityID, participantID int64, fn func(acc *domain.Account) error) error
	Get(ctx context.Context, communityID, participantID int64) (*domain.Account, error)
	Leaderboard(ctx context.Context, communityID int64, limit int) ([]domain.LeaderboardEntry, error)
	OpenSessions(ctx context.Context, communityID int64) ([]domain.Account, error)
}

type ActivityStore interface {
	MarkActive(ctx context.Context, communityID, participantID int64, at time.Time) error
	LastActive(ctx context.Context, communityID, participantID int64) (*domain.ActivityRecord, error)
}

type SettingsStore interface {
	Get(ctx context.Context, communityID int64) (domain.CommunitySettings, error)
	SetAFKRoom(ctx context.Context, communityID int64, roomID *int64) error
	SetLogRoom(ctx context.Context, communityID int64, roomID *int64) error
}

type ShopStore interface {
	Add(ctx context.Context, item *domain.ShopItem) error
	List(ctx context.Context, communityID int64) ([]domain.ShopItem, error)
	Purchase(ctx context.Context, communityID, participantID, itemID int64) (*domain.ShopItem, error)
	History(ctx context.Context, communityID, participantID int64) ([]domain.Purchase, error)
}
