package game

import (
	"context"
	"sort"
	"sync"

	"trivia-arena/internal/domain"
)

// activeRound is the process-wide round state. Only the lifecycle methods
// mutate it; everything else takes read snapshots.
type activeRound struct {
	mu          sync.RWMutex
	round       int
	questionIDs []string
	cursor      int // next question to broadcast
}

func (a *activeRound) set(round int, questionIDs []string) {
	a.mu.Lock()
	a.round = round
	a.questionIDs = questionIDs
	a.cursor = 0
	a.mu.Unlock()
}

func (a *activeRound) reset() {
	a.set(0, nil)
}

func (a *activeRound) snapshot() (round, questionCount int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.round, len(a.questionIDs)
}

// nextBroadcastID pops the next question ID for the broadcast flow.
func (a *activeRound) nextBroadcastID() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor >= len(a.questionIDs) {
		return "", false
	}
	id := a.questionIDs[a.cursor]
	a.cursor++
	return id, true
}

// ActiveRound reports the current round number; 0 means idle.
func (s *Service) ActiveRound() int {
	round, _ := s.active.snapshot()
	return round
}

// isEligible reports whether a player may act in round. Round 1 is open to
// everyone; later rounds require a spot on the previous round's shortlist.
func (s *Service) isEligible(ctx context.Context, playerID string, round int) (bool, error) {
	if round == 1 {
		return true, nil
	}
	return s.store.InShortlist(ctx, round-1, playerID)
}

// StartRound activates a round and re-seeds balances. Round 1 sets every
// waiting registrant to the initial stake; later rounds add the stake on top
// of what survivors carried forward.
func (s *Service) StartRound(ctx context.Context, round int) error {
	if round < 1 {
		round = 1
	}
	questions, err := s.questions.QuestionsByRound(ctx, round)
	if err != nil {
		return err
	}
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	s.active.set(round, ids)

	if round == 1 {
		waiting, err := s.store.ListWaiting(ctx)
		if err != nil {
			return err
		}
		for _, w := range waiting {
			if err := s.store.SetPoints(ctx, w.PlayerID, s.cfg.InitialStake); err != nil {
				return err
			}
		}
	} else {
		shortlisted, err := s.store.Shortlist(ctx, round-1)
		if err != nil {
			return err
		}
		for _, entry := range shortlisted {
			if err := s.store.IncrementPoints(ctx, entry.PlayerID, s.cfg.InitialStake); err != nil {
				return err
			}
		}
	}

	s.notifier.Broadcast(EventRoundStarted, RoundEvent{Round: round})
	return nil
}

// EndRound snapshots the leaderboard, replaces the round's shortlist with the
// top half (rounded up, minimum 1) of players by points, and goes idle.
// Steps are not rolled back if a later one fails; callers observe whatever
// completed.
func (s *Service) EndRound(ctx context.Context) (int, error) {
	round, _ := s.active.snapshot()
	if round == 0 {
		return 0, domain.ErrRoundNotActive
	}

	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return 0, err
	}
	// Stable sort keeps the store's iteration order for ties.
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Points > players[j].Points
	})

	if err := s.store.InsertSnapshot(ctx, &domain.LeaderboardSnapshot{
		Round:    round,
		Snapshot: players,
		TakenAt:  s.now(),
	}); err != nil {
		return 0, err
	}

	var entries []domain.ShortlistEntry
	if len(players) > 0 {
		topN := (len(players) + 1) / 2
		if topN < 1 {
			topN = 1
		}
		entries = make([]domain.ShortlistEntry, 0, topN)
		for _, p := range players[:topN] {
			entries = append(entries, domain.ShortlistEntry{
				Round:    round,
				PlayerID: p.ID,
				Points:   p.Points,
			})
		}
	}
	if err := s.store.ReplaceShortlist(ctx, round, entries); err != nil {
		return 0, err
	}

	s.notifier.Broadcast(EventLeaderboard, players)
	s.notifier.Broadcast(EventRoundEnded, RoundEvent{Round: round})

	s.active.reset()
	return len(entries), nil
}

// BroadcastNextQuestion pushes the next question of the active round to
// clients: round 1 goes to everyone, later rounds only to players shortlisted
// out of the previous round. Returns false once the round's questions are
// exhausted.
func (s *Service) BroadcastNextQuestion(ctx context.Context) (bool, error) {
	round, _ := s.active.snapshot()
	if round == 0 {
		return false, domain.ErrRoundNotActive
	}
	id, ok := s.active.nextBroadcastID()
	if !ok {
		return false, nil
	}
	question, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return false, err
	}

	event := QuestionEvent{Round: round, Question: question}
	if round == 1 {
		s.notifier.Broadcast(EventRoundQuestion, event)
		return true, nil
	}
	shortlisted, err := s.store.Shortlist(ctx, round-1)
	if err != nil {
		return false, err
	}
	for _, entry := range shortlisted {
		s.notifier.SendToRoom(entry.PlayerID, EventRoundQuestion, event)
	}
	return true, nil
}
