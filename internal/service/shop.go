package service

import (
	"context"
	"strings"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// Shop exposes the item catalogue and purchases on top of ShopStore, which
// performs the debit and stock decrement atomically.
type Shop struct {
	store ShopStore
}

func NewShop(store ShopStore) *Shop {
	return &Shop{store: store}
}

func (s *Shop) AddItem(ctx context.Context, communityID int64, name string, price int64, stock *int64) (*domain.ShopItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrItemNameEmpty
	}
	if price < 0 {
		return nil, domain.ErrNegativePrice
	}
	item := &domain.ShopItem{
		CommunityID: communityID,
		Name:        name,
		Price:       price,
		Stock:       stock,
	}
	if err := s.store.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Shop) List(ctx context.Context, communityID int64) ([]domain.ShopItem, error) {
	return s.store.List(ctx, communityID)
}

func (s *Shop) Buy(ctx context.Context, communityID, participantID, itemID int64) (*domain.ShopItem, error) {
	return s.store.Purchase(ctx, communityID, participantID, itemID)
}

func (s *Shop) History(ctx context.Context, communityID, participantID int64) ([]domain.Purchase, error) {
	return s.store.History(ctx, communityID, participantID)
}
