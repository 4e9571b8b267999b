package postgres

import (
	"context"
	"fmt"

	"github.com/kangminLeo/Ironbot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Ensure creates the account row lazily on first contact.
func (r *AccountRepository) Ensure(ctx context.Context, communityID, participantID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (community_id, participant_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, communityID, participantID)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// Mutate runs fn against the account row inside a transaction with the row
// locked. Concurrent mutations of the same account serialize on the row lock,
// so a leave event racing the reconciliation sweep cannot lose an update.
func (r *AccountRepository) Mutate(ctx context.Context, communityID, participantID int64, fn func(acc *domain.Account) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO accounts (community_id, participant_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, communityID, participantID); err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}

	acc := domain.Account{CommunityID: communityID, ParticipantID: participantID}
	err = tx.QueryRow(ctx, `
		SELECT points, carry_seconds, session_start
		FROM accounts
		WHERE community_id=$1 AND participant_id=$2
		FOR UPDATE
	`, communityID, participantID).Scan(&acc.Points, &acc.CarrySeconds, &acc.SessionStart)
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}

	if err := fn(&acc); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts
		SET points=$3, carry_seconds=$4, session_start=$5
		WHERE community_id=$1 AND participant_id=$2
	`, communityID, participantID, acc.Points, acc.CarrySeconds, acc.SessionStart); err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Get returns the account, or a zero-valued one when the row does not exist.
func (r *AccountRepository) Get(ctx context.Context, communityID, participantID int64) (*domain.Account, error) {
	acc := domain.Account{CommunityID: communityID, ParticipantID: participantID}
	err := r.db.QueryRow(ctx, `
		SELECT points, carry_seconds, session_start
		FROM accounts
		WHERE community_id=$1 AND participant_id=$2
	`, communityID, participantID).Scan(&acc.Points, &acc.CarrySeconds, &acc.SessionStart)
	if err != nil {
		if err == pgx.ErrNoRows {
			return &acc, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &acc, nil
}

func (r *AccountRepository) Leaderboard(ctx context.Context, communityID int64, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT participant_id, points
		FROM accounts
		WHERE community_id=$1 AND points > 0
		ORDER BY points DESC, participant_id ASC
		LIMIT $2
	`, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.ParticipantID, &e.Points); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// OpenSessions lists accounts currently being timed in the community.
func (r *AccountRepository) OpenSessions(ctx context.Context, communityID int64) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT participant_id, points, carry_seconds, session_start
		FROM accounts
		WHERE community_id=$1 AND session_start IS NOT NULL
	`, communityID)
	if err != nil {
		return nil, fmt.Errorf("open sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		acc := domain.Account{CommunityID: communityID}
		if err := rows.Scan(&acc.ParticipantID, &acc.Points, &acc.CarrySeconds, &acc.SessionStart); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}
