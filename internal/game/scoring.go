package game

import (
	"context"
	"strings"

	"trivia-arena/internal/domain"
)

// SubmitAnswer scores one submission against the active question's key and
// records it exactly once. Round-1 questions match on choice index, later
// rounds on trimmed, case-folded text. A correct answer earns double its
// per-question stake plus a bonus that shrinks with every earlier correct
// answer for the same question.
func (s *Service) SubmitAnswer(ctx context.Context, playerID, questionID string, answerIndex *int, answerText string) (*AnswerResult, error) {
	unlock := s.answerMu.Lock(playerID + "|" + questionID)
	defer unlock()

	exists, err := s.store.HasAnswer(ctx, playerID, questionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateAnswer
	}

	round, totalQuestions := s.active.snapshot()
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

	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	bet, err := s.store.GetBet(ctx, round, playerID)
	if err != nil {
		return nil, err
	}

	correct := isCorrect(question, answerIndex, answerText)

	answer := &domain.Answer{
		PlayerID:    playerID,
		QuestionID:  questionID,
		Correct:     correct,
		SubmittedAt: s.now(),
	}
	if question.Round == 1 {
		answer.AnswerIndex = answerIndex
	} else {
		answer.AnswerText = answerText
	}

	if correct {
		// Serialize count-then-rank per question so concurrent correct
		// answers get distinct, increasing ranks.
		unlockRank := s.rankMu.Lock(questionID)

		alreadyCorrect, err := s.store.CountCorrectAnswers(ctx, questionID)
		if err != nil {
			unlockRank()
			return nil, err
		}
		totalPlayers, err := s.store.CountPlayers(ctx)
		if err != nil {
			unlockRank()
			return nil, err
		}

		if totalQuestions < 1 {
			totalQuestions = 1
		}
		perQuestion := bet.Amount / totalQuestions
		rank := alreadyCorrect + 1
		bonus := totalPlayers - rank + 1
		if bonus < 0 {
			bonus = 0
		}
		bonus *= 2
		answer.Rank = rank
		answer.Bonus = bonus
		answer.Earned = perQuestion*2 + bonus

		if answer.Earned > 0 {
			if err := s.store.IncrementPoints(ctx, playerID, answer.Earned); err != nil {
				unlockRank()
				return nil, err
			}
		}
		err = s.store.InsertAnswer(ctx, answer)
		unlockRank()
		if err != nil {
			return nil, err
		}
	} else if err := s.store.InsertAnswer(ctx, answer); err != nil {
		return nil, err
	}

	result := &AnswerResult{
		PlayerID:      playerID,
		SelectedIndex: answerIndex,
		CorrectIndex:  question.AnswerIndex,
		Correct:       correct,
		Earned:        answer.Earned,
		Bonus:         answer.Bonus,
		Rank:          answer.Rank,
	}

	if player, err := s.store.GetPlayer(ctx, playerID); err == nil {
		s.notifier.Broadcast(EventPointsUpdate, player)
	}
	s.notifier.SendToRoom(playerID, EventAnswerResult, result)
	return result, nil
}

func isCorrect(q *domain.Question, answerIndex *int, answerText string) bool {
	if q.Round == 1 {
		return answerIndex != nil && q.AnswerIndex != nil && *answerIndex == *q.AnswerIndex
	}
	submitted := strings.ToLower(strings.TrimSpace(answerText))
	key := strings.ToLower(strings.TrimSpace(q.AnswerText))
	return submitted != "" && submitted == key
}
