package domain

import "time"

// ShopItem is a purchasable reward. Stock nil means unlimited.
type ShopItem struct {
	ID          int64  `db:"id"`
	CommunityID int64  `db:"community_id"`
	Name        string `db:"name"`
	Price       int64  `db:"price"`
	Stock       *int64 `db:"stock"`
}

type Purchase struct {
	ID            int64     `db:"id"`
	CommunityID   int64     `db:"community_id"`
	ParticipantID int64     `db:"participant_id"`
	ItemID        int64     `db:"item_id"`
	CreatedAt     time.Time `db:"created_at"`
}
