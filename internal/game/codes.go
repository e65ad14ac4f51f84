package game

import (
	"context"

	"trivia-arena/internal/domain"
)

// SubmitCode maps a player's 5-digit code to a fixed slice of the code
// round's questions, sorted by ID for a stable mapping. Digit d selects list
// position d+1; digits that fall off the end are skipped, so fewer than five
// questions may be selected. Re-submitting overwrites the previous sequence.
func (s *Service) SubmitCode(ctx context.Context, playerID, code string) (*domain.CodeSequence, error) {
	if len(code) != s.cfg.CodeLength || !allDigits(code) {
		return nil, domain.ErrInvalidCode
	}

	questions, err := s.questions.QuestionsByRound(ctx, s.cfg.CodeRound)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	selected := make([]string, 0, len(code))
	for _, digit := range code {
		pos := int(digit-'0') + 1
		if pos < len(questions) {
			selected = append(selected, questions[pos].ID)
		}
	}
	if len(selected) == 0 {
		return nil, domain.ErrNoMapping
	}

	seq := &domain.CodeSequence{
		PlayerID:  playerID,
		Code:      code,
		Selected:  selected,
		CreatedAt: s.now(),
	}
	if err := s.store.PutCodeSequence(ctx, seq); err != nil {
		return nil, err
	}
	return seq, nil
}

func (s *Service) nextCodeQuestion(ctx context.Context, playerID string) (*NextQuestionResult, error) {
	unlock := s.seqMu.Lock("code|" + playerID)
	defer unlock()

	seq, err := s.store.GetCodeSequence(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if seq.Cursor >= len(seq.Selected) {
		return &NextQuestionResult{Done: true}, nil
	}

	questionID := seq.Selected[seq.Cursor]
	if err := s.store.AdvanceCodeSequence(ctx, playerID); err != nil {
		return nil, err
	}
	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return &NextQuestionResult{Question: question}, nil
}

func allDigits(code string) bool {
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
