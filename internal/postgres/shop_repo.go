package postgres

import (
	"context"
	"fmt"

	"github.com/kangminLeo/Ironbot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShopRepository struct {
	db *pgxpool.Pool
}

func NewShopRepository(db *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{db: db}
}

func (r *ShopRepository) Add(ctx context.Context, item *domain.ShopItem) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO shop_items (community_id, name, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, item.CommunityID, item.Name, item.Price, item.Stock).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("add shop item: %w", err)
	}
	return nil
}

func (r *ShopRepository) List(ctx context.Context, communityID int64) ([]domain.ShopItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, community_id, name, price, stock
		FROM shop_items
		WHERE community_id=$1
		ORDER BY id ASC
	`, communityID)
	if err != nil {
		return nil, fmt.Errorf("list shop items: %w", err)
	}
	defer rows.Close()

	var out []domain.ShopItem
	for rows.Next() {
		var it domain.ShopItem
		if err := rows.Scan(&it.ID, &it.CommunityID, &it.Name, &it.Price, &it.Stock); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Purchase debits the buyer and decrements stock in one transaction. Item and
// account rows are locked in a fixed order so concurrent purchases serialize.
// Precondition failures come back as domain errors for the caller to report.
func (r *ShopRepository) Purchase(ctx context.Context, communityID, participantID, itemID int64) (*domain.ShopItem, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var it domain.ShopItem
	err = tx.QueryRow(ctx, `
		SELECT id, community_id, name, price, stock
		FROM shop_items
		WHERE community_id=$1 AND id=$2
		FOR UPDATE
	`, communityID, itemID).Scan(&it.ID, &it.CommunityID, &it.Name, &it.Price, &it.Stock)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("lock item: %w", err)
	}
	if it.Stock != nil && *it.Stock <= 0 {
		return nil, domain.ErrSoldOut
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO accounts (community_id, participant_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, communityID, participantID); err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	var points int64
	err = tx.QueryRow(ctx, `
		SELECT points FROM accounts
		WHERE community_id=$1 AND participant_id=$2
		FOR UPDATE
	`, communityID, participantID).Scan(&points)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	if points < it.Price {
		return nil, domain.ErrInsufficientPoints
	}

	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET points=points-$3
		WHERE community_id=$1 AND participant_id=$2
	`, communityID, participantID, it.Price); err != nil {
		return nil, fmt.Errorf("debit account: %w", err)
	}
	if it.Stock != nil {
		if _, err := tx.Exec(ctx, `UPDATE shop_items SET stock=stock-1 WHERE id=$1`, it.ID); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO purchases (community_id, participant_id, item_id)
		VALUES ($1, $2, $3)
	`, communityID, participantID, it.ID); err != nil {
		return nil, fmt.Errorf("record purchase: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &it, nil
}

// History lists a participant's purchases, newest first.
func (r *ShopRepository) History(ctx context.Context, communityID, participantID int64) ([]domain.Purchase, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, community_id, participant_id, item_id, created_at
		FROM purchases
		WHERE community_id=$1 AND participant_id=$2
		ORDER BY created_at DESC, id DESC
	`, communityID, participantID)
	if err != nil {
		return nil, fmt.Errorf("purchase history: %w", err)
	}
	defer rows.Close()

	var out []domain.Purchase
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.CommunityID, &p.ParticipantID, &p.ItemID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
