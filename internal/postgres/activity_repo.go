package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kangminLeo/Ironbot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) MarkActive(ctx context.Context, communityID, participantID int64, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO activity (community_id, participant_id, last_active_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (community_id, participant_id)
		DO UPDATE SET last_active_at=excluded.last_active_at
	`, communityID, participantID, at)
	if err != nil {
		return fmt.Errorf("mark active: %w", err)
	}
	return nil
}

// LastActive returns nil when the participant has no record yet.
func (r *ActivityRepository) LastActive(ctx context.Context, communityID, participantID int64) (*domain.ActivityRecord, error) {
	var rec domain.ActivityRecord
	err := r.db.QueryRow(ctx, `
		SELECT community_id, participant_id, last_active_at FROM activity
		WHERE community_id=$1 AND participant_id=$2
	`, communityID, participantID).Scan(&rec.CommunityID, &rec.ParticipantID, &rec.LastActiveAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("last active: %w", err)
	}
	return &rec, nil
}
