package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trivia-arena/internal/domain"
)

// GameStore is the in-memory implementation of game.Store. Insertion order is
// preserved for players and waiting entries so ranking ties break the same
// way run after run.
type GameStore struct {
	mu sync.RWMutex

	players     map[string]*domain.Player
	playerOrder []string
	names       map[string]string // display name -> player ID

	questions     map[string]*domain.Question
	questionOrder []string

	bets         map[string]*domain.Bet    // round|player
	answers      map[string]*domain.Answer // player|question
	correctCount map[string]int            // questionID -> correct answers

	roundSeqs map[string]*domain.RoundSequence // player|round
	codeSeqs  map[string]*domain.CodeSequence  // player

	shortlists map[int][]domain.ShortlistEntry
	snapshots  []domain.LeaderboardSnapshot

	waiting      map[string]*domain.WaitingEntry
	waitingOrder []string

	images map[string]*domain.Image
}

func NewGameStore() *GameStore {
	s := &GameStore{
		questions: make(map[string]*domain.Question),
		images:    make(map[string]*domain.Image),
	}
	s.resetPlayerData()
	return s
}

func (s *GameStore) resetPlayerData() {
	s.players = make(map[string]*domain.Player)
	s.playerOrder = nil
	s.names = make(map[string]string)
	s.bets = make(map[string]*domain.Bet)
	s.answers = make(map[string]*domain.Answer)
	s.correctCount = make(map[string]int)
	s.roundSeqs = make(map[string]*domain.RoundSequence)
	s.codeSeqs = make(map[string]*domain.CodeSequence)
	s.shortlists = make(map[int][]domain.ShortlistEntry)
	s.snapshots = nil
	s.waiting = make(map[string]*domain.WaitingEntry)
	s.waitingOrder = nil
}

func (s *GameStore) InsertPlayer(_ context.Context, p *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.names[p.Name]; taken {
		return domain.ErrNameTaken
	}
	cp := *p
	s.players[p.ID] = &cp
	s.playerOrder = append(s.playerOrder, p.ID)
	s.names[p.Name] = p.ID
	return nil
}

func (s *GameStore) GetPlayer(_ context.Context, id string) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *GameStore) ListPlayers(_ context.Context) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Player, 0, len(s.playerOrder))
	for _, id := range s.playerOrder {
		out = append(out, *s.players[id])
	}
	return out, nil
}

func (s *GameStore) CountPlayers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players), nil
}

func (s *GameStore) IncrementPoints(_ context.Context, playerID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.Points += delta
	return nil
}

func (s *GameStore) SetPoints(_ context.Context, playerID string, points int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	p.Points = points
	return nil
}

func (s *GameStore) InsertQuestion(_ context.Context, q *domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	s.questions[q.ID] = &cp
	s.questionOrder = append(s.questionOrder, q.ID)
	return nil
}

func (s *GameStore) GetQuestion(_ context.Context, id string) (*domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, domain.ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *GameStore) QuestionsByRound(_ context.Context, round int) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Question
	for _, id := range s.questionOrder {
		if q, ok := s.questions[id]; ok && q.Round == round {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *GameStore) ListQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questionOrder))
	for _, id := range s.questionOrder {
		out = append(out, *s.questions[id])
	}
	return out, nil
}

func (s *GameStore) InsertBet(_ context.Context, b *domain.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := betKey(b.Round, b.PlayerID)
	if _, exists := s.bets[key]; exists {
		return domain.ErrDuplicateBet
	}
	cp := *b
	s.bets[key] = &cp
	return nil
}

func (s *GameStore) GetBet(_ context.Context, round int, playerID string) (*domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bets[betKey(round, playerID)]
	if !ok {
		return nil, domain.ErrNoBet
	}
	cp := *b
	return &cp, nil
}

func (s *GameStore) InsertAnswer(_ context.Context, a *domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := a.PlayerID + "|" + a.QuestionID
	if _, exists := s.answers[key]; exists {
		return domain.ErrDuplicateAnswer
	}
	cp := *a
	s.answers[key] = &cp
	if a.Correct {
		s.correctCount[a.QuestionID]++
	}
	return nil
}

func (s *GameStore) HasAnswer(_ context.Context, playerID, questionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.answers[playerID+"|"+questionID]
	return ok, nil
}

func (s *GameStore) CountCorrectAnswers(_ context.Context, questionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.correctCount[questionID], nil
}

func (s *GameStore) GetRoundSequence(_ context.Context, playerID string, round int) (*domain.RoundSequence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.roundSeqs[seqKey(playerID, round)]
	if !ok {
		return nil, nil
	}
	return copySequence(seq), nil
}

func (s *GameStore) InsertRoundSequence(_ context.Context, seq *domain.RoundSequence) (*domain.RoundSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seqKey(seq.PlayerID, seq.Round)
	if existing, ok := s.roundSeqs[key]; ok {
		return copySequence(existing), nil
	}
	cp := *seq
	cp.Order = append([]string(nil), seq.Order...)
	s.roundSeqs[key] = &cp
	return copySequence(&cp), nil
}

func (s *GameStore) AdvanceRoundSequence(_ context.Context, playerID string, round int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.roundSeqs[seqKey(playerID, round)]
	if !ok {
		return domain.ErrNoRoundSequence
	}
	seq.Cursor++
	return nil
}

func (s *GameStore) PutCodeSequence(_ context.Context, seq *domain.CodeSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *seq
	cp.Selected = append([]string(nil), seq.Selected...)
	s.codeSeqs[seq.PlayerID] = &cp
	return nil
}

func (s *GameStore) GetCodeSequence(_ context.Context, playerID string) (*domain.CodeSequence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.codeSeqs[playerID]
	if !ok {
		return nil, domain.ErrNoCodeSequence
	}
	cp := *seq
	cp.Selected = append([]string(nil), seq.Selected...)
	return &cp, nil
}

func (s *GameStore) AdvanceCodeSequence(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.codeSeqs[playerID]
	if !ok {
		return domain.ErrNoCodeSequence
	}
	seq.Cursor++
	return nil
}

func (s *GameStore) ReplaceShortlist(_ context.Context, round int, entries []domain.ShortlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortlists[round] = append([]domain.ShortlistEntry(nil), entries...)
	return nil
}

func (s *GameStore) Shortlist(_ context.Context, round int) ([]domain.ShortlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ShortlistEntry(nil), s.shortlists[round]...), nil
}

func (s *GameStore) InShortlist(_ context.Context, round int, playerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.shortlists[round] {
		if entry.PlayerID == playerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *GameStore) InsertSnapshot(_ context.Context, snap *domain.LeaderboardSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	cp.Snapshot = append([]domain.Player(nil), snap.Snapshot...)
	s.snapshots = append(s.snapshots, cp)
	return nil
}

func (s *GameStore) LatestSnapshot(_ context.Context) (*domain.LeaderboardSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.snapshots) == 0 {
		return nil, nil
	}
	cp := s.snapshots[len(s.snapshots)-1]
	return &cp, nil
}

func (s *GameStore) UpsertWaiting(_ context.Context, w *domain.WaitingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.waiting[w.PlayerID]; !exists {
		s.waitingOrder = append(s.waitingOrder, w.PlayerID)
	}
	cp := *w
	s.waiting[w.PlayerID] = &cp
	return nil
}

func (s *GameStore) ListWaiting(_ context.Context) ([]domain.WaitingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WaitingEntry, 0, len(s.waitingOrder))
	for _, id := range s.waitingOrder {
		out = append(out, *s.waiting[id])
	}
	return out, nil
}

func (s *GameStore) InsertImage(_ context.Context, img *domain.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *img
	s.images[img.ID] = &cp
	return nil
}

func (s *GameStore) GetImage(_ context.Context, id string) (*domain.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	cp := *img
	return &cp, nil
}

func (s *GameStore) ClearPlayerData(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetPlayerData()
	return nil
}

func copySequence(seq *domain.RoundSequence) *domain.RoundSequence {
	cp := *seq
	cp.Order = append([]string(nil), seq.Order...)
	return &cp
}

func betKey(round int, playerID string) string {
	return fmt.Sprintf("%d|%s", round, playerID)
}

func seqKey(playerID string, round int) string {
	return fmt.Sprintf("%s|%d", playerID, round)
}
