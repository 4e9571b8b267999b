package service

import (
	"context"
	"fmt"

	"github.com/kangminLeo/Ironbot/internal/domain"
)

// Policy is the accrual policy: a block of connected time is worth a fixed
// number of points.
type Policy struct {
	BlockSeconds   int64
	PointsPerBlock int64
}

func DefaultPolicy() Policy {
	return Policy{BlockSeconds: 30 * 60, PointsPerBlock: 5}
}

// apply converts elapsed connected seconds plus the carried remainder into
// points. Negative elapsed clamps to zero (clock skew). The carry always ends
// up strictly below BlockSeconds, and the award is a multiple of
// PointsPerBlock.
func (p Policy) apply(acc *domain.Account, elapsedSeconds int64) (awarded int64) {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	total := acc.CarrySeconds + elapsedSeconds
	blocks := total / p.BlockSeconds
	remainder := total % p.BlockSeconds

	if blocks > 0 {
		awarded = blocks * p.PointsPerBlock
		acc.Points += awarded
		acc.CarrySeconds = remainder
	} else {
		acc.CarrySeconds = total
	}
	return awarded
}

// Ledger owns every mutation of the point balance.
type Ledger struct {
	accounts AccountStore
	policy   Policy
}

func NewLedger(accounts AccountStore, policy Policy) *Ledger {
	if policy.BlockSeconds <= 0 || policy.PointsPerBlock <= 0 {
		policy = DefaultPolicy()
	}
	return &Ledger{accounts: accounts, policy: policy}
}

func (l *Ledger) Policy() Policy {
	return l.policy
}

// GrantForSession awards points for elapsed connected seconds as one atomic
// read-modify-write of the account.
func (l *Ledger) GrantForSession(ctx context.Context, communityID, participantID, elapsedSeconds int64) (awarded, newTotal int64, err error) {
	err = l.accounts.Mutate(ctx, communityID, participantID, func(acc *domain.Account) error {
		awarded = l.policy.apply(acc, elapsedSeconds)
		newTotal = acc.Points
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("grant for session: %w", err)
	}
	return awarded, newTotal, nil
}

// AddPoints credits the participant. Admin operation; privilege is checked by
// the transport layer.
func (l *Ledger) AddPoints(ctx context.Context, communityID, participantID, amount int64) (newTotal int64, err error) {
	if amount <= 0 {
		return 0, domain.ErrNonPositiveAmount
	}
	err = l.accounts.Mutate(ctx, communityID, participantID, func(acc *domain.Account) error {
		acc.Points += amount
		newTotal = acc.Points
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	return newTotal, nil
}

// RemovePoints debits the participant, flooring the balance at zero.
func (l *Ledger) RemovePoints(ctx context.Context, communityID, participantID, amount int64) (newTotal int64, err error) {
	if amount <= 0 {
		return 0, domain.ErrNonPositiveAmount
	}
	err = l.accounts.Mutate(ctx, communityID, participantID, func(acc *domain.Account) error {
		acc.Points -= amount
		if acc.Points < 0 {
			acc.Points = 0
		}
		newTotal = acc.Points
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("remove points: %w", err)
	}
	return newTotal, nil
}

// SetPoints overwrites the balance. Negative values are rejected.
func (l *Ledger) SetPoints(ctx context.Context, communityID, participantID, value int64) error {
	if value < 0 {
		return domain.ErrNegativePoints
	}
	err := l.accounts.Mutate(ctx, communityID, participantID, func(acc *domain.Account) error {
		acc.Points = value
		return nil
	})
	if err != nil {
		return fmt.Errorf("set points: %w", err)
	}
	return nil
}

func (l *Ledger) Balance(ctx context.Context, communityID, participantID int64) (int64, error) {
	acc, err := l.accounts.Get(ctx, communityID, participantID)
	if err != nil {
		return 0, err
	}
	return acc.Points, nil
}

func (l *Ledger) Leaderboard(ctx context.Context, communityID int64, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return l.accounts.Leaderboard(ctx, communityID, limit)
}
