package postgres

import (
	"context"
	"fmt"

	"github.com/kangminLeo/Ironbot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepository struct {
	db *pgxpool.Pool
}

func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns zero-valued settings when the community has none stored.
func (r *SettingsRepository) Get(ctx context.Context, communityID int64) (domain.CommunitySettings, error) {
	st := domain.CommunitySettings{CommunityID: communityID}
	err := r.db.QueryRow(ctx, `
		SELECT afk_room_id, log_room_id
		FROM community_settings
		WHERE community_id=$1
	`, communityID).Scan(&st.AFKRoomID, &st.LogRoomID)
	if err != nil && err != pgx.ErrNoRows {
		return st, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (r *SettingsRepository) SetAFKRoom(ctx context.Context, communityID int64, roomID *int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO community_settings (community_id, afk_room_id)
		VALUES ($1, $2)
		ON CONFLICT (community_id) DO UPDATE SET afk_room_id=excluded.afk_room_id
	`, communityID, roomID)
	if err != nil {
		return fmt.Errorf("set afk room: %w", err)
	}
	return nil
}

func (r *SettingsRepository) SetLogRoom(ctx context.Context, communityID int64, roomID *int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO community_settings (community_id, log_room_id)
		VALUES ($1, $2)
		ON CONFLICT (community_id) DO UPDATE SET log_room_id=excluded.log_room_id
	`, communityID, roomID)
	if err != nil {
		return fmt.Errorf("set log room: %w", err)
	}
	return nil
}
