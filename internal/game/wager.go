package game

import (
	"context"
	"fmt"

	"trivia-arena/internal/domain"
)

// PlaceBet wagers amount on the active round. Checks run in priority order:
// eligibility, player, funds, duplicate, code-on-file. On success the balance
// is deducted, the bet recorded, and (outside the code round) the player's
// shuffled question order is created. The shuffle deliberately happens after
// the bet so question order can never inform the wager.
func (s *Service) PlaceBet(ctx context.Context, playerID string, amount int) (*domain.Player, error) {
	round, _ := s.active.snapshot()
	if round == 0 {
		return nil, domain.ErrRoundNotActive
	}

	eligible, err := s.isEligible(ctx, playerID, round)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, domain.ErrNotEligible
	}

	player, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if amount < 0 || amount > player.Points {
		return nil, domain.ErrInsufficientPoints
	}

	unlock := s.betMu.Lock(betKey(round, playerID))
	defer unlock()

	if _, err := s.store.GetBet(ctx, round, playerID); err == nil {
		return nil, domain.ErrDuplicateBet
	} else if err != domain.ErrNoBet {
		return nil, err
	}

	if round == s.cfg.CodeRound {
		if _, err := s.store.GetCodeSequence(ctx, playerID); err != nil {
			if err == domain.ErrNoCodeSequence {
				return nil, domain.ErrCodeRequired
			}
			return nil, err
		}
	}

	if err := s.store.IncrementPoints(ctx, playerID, -amount); err != nil {
		return nil, err
	}
	if err := s.store.InsertBet(ctx, &domain.Bet{
		Round:    round,
		PlayerID: playerID,
		Amount:   amount,
		PlacedAt: s.now(),
	}); err != nil {
		return nil, err
	}

	if round != s.cfg.CodeRound {
		if _, err := s.ensureRoundSequence(ctx, playerID, round); err != nil {
			return nil, fmt.Errorf("create round sequence: %w", err)
		}
	}

	player, err = s.store.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	s.notifier.Broadcast(EventPointsUpdate, player)
	return player, nil
}

func betKey(round int, playerID string) string {
	return fmt.Sprintf("%d|%s", round, playerID)
}
