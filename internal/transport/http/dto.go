package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type BalanceResponse struct {
	CommunityID   int64 `json:"community_id"`
	ParticipantID int64 `json:"participant_id"`
	Points        int64 `json:"points"`
}

type PointsRequest struct {
	Amount int64 `json:"amount"`
}

type SetPointsRequest struct {
	Value int64 `json:"value"`
}

type LeaderboardResponse struct {
	Items []LeaderboardItem `json:"items"`
}

type LeaderboardItem struct {
	ParticipantID int64 `json:"participant_id"`
	Points        int64 `json:"points"`
}

// RoomID == null clears the setting.
type SetRoomRequest struct {
	RoomID *int64 `json:"room_id"`
}

type AddShopItemRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock *int64 `json:"stock,omitempty"` // null means unlimited
}

type ShopItemResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
	Stock *int64 `json:"stock,omitempty"`
}

type ShopListResponse struct {
	Items []ShopItemResponse `json:"items"`
}

type BuyRequest struct {
	ParticipantID int64 `json:"participant_id"`
}

type PurchaseResponse struct {
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	Price    int64  `json:"price"`
}

type PurchaseHistoryResponse struct {
	Items []PurchaseHistoryItem `json:"items"`
}

type PurchaseHistoryItem struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}
