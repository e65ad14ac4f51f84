package game

import (
	"context"
	"fmt"

	"trivia-arena/internal/domain"
)

// NextQuestionResult is what a sequencer hands back: either a question or the
// terminal done marker once the player's traversal is exhausted.
type NextQuestionResult struct {
	Done     bool
	Question *domain.Question
}

// NextQuestion serves the player's next unseen question. round <= 0 means the
// active round. The code round walks the player's code-selected list; other
// rounds walk the player's private shuffle, created lazily if betting did not
// already create it.
func (s *Service) NextQuestion(ctx context.Context, playerID string, round int) (*NextQuestionResult, error) {
	if round <= 0 {
		round, _ = s.active.snapshot()
	}
	if round == 0 {
		return nil, domain.ErrRoundNotActive
	}
	if round == s.cfg.CodeRound {
		return s.nextCodeQuestion(ctx, playerID)
	}
	return s.nextShuffledQuestion(ctx, playerID, round)
}

func (s *Service) nextShuffledQuestion(ctx context.Context, playerID string, round int) (*NextQuestionResult, error) {
	unlock := s.seqMu.Lock(seqKey(playerID, round))
	defer unlock()

	seq, err := s.ensureRoundSequence(ctx, playerID, round)
	if err != nil {
		return nil, err
	}

	if seq.Cursor >= len(seq.Order) {
		return &NextQuestionResult{Done: true}, nil
	}

	questionID := seq.Order[seq.Cursor]
	if err := s.store.AdvanceRoundSequence(ctx, playerID, round); err != nil {
		return nil, err
	}
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		// Dangling ID: the cursor already moved past it, so the next call
		// won't loop on the same hole.
		return nil, err
	}
	return &NextQuestionResult{Question: question}, nil
}

// ensureRoundSequence creates the player's shuffled order on first use. The
// store keeps an existing record, so a sequence is never re-shuffled.
func (s *Service) ensureRoundSequence(ctx context.Context, playerID string, round int) (*domain.RoundSequence, error) {
	seq, err := s.store.GetRoundSequence(ctx, playerID, round)
	if err != nil {
		return nil, err
	}
	if seq != nil {
		return seq, nil
	}

	questions, err := s.questions.QuestionsByRound(ctx, round)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	s.shuffleIDs(ids)

	return s.store.InsertRoundSequence(ctx, &domain.RoundSequence{
		PlayerID:  playerID,
		Round:     round,
		Order:     ids,
		CreatedAt: s.now(),
	})
}

func seqKey(playerID string, round int) string {
	return fmt.Sprintf("%s|%d", playerID, round)
}
