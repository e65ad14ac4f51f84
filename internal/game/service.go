package game

import (
	"context"
	"encoding/base64"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-arena/internal/domain"
)

// Config tunes the competition. Zero values fall back to the classic rules:
// 500-point stake, 5-digit codes, round 3 code-mapped.
type Config struct {
	InitialStake int
	CodeRound    int
	CodeLength   int
}

func (c Config) withDefaults() Config {
	if c.InitialStake == 0 {
		c.InitialStake = 500
	}
	if c.CodeRound == 0 {
		c.CodeRound = 3
	}
	if c.CodeLength == 0 {
		c.CodeLength = 5
	}
	return c
}

// Service owns the round/wager/scoring state machine. All mutable round state
// lives behind its locks; the store handles durable records.
type Service struct {
	store     Store
	questions QuestionSource
	notifier  Notifier
	cfg       Config

	now func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	seqMu    *keyedMutex // (player, round) cursor
	betMu    *keyedMutex // (round, player) bet uniqueness
	answerMu *keyedMutex // (player, question) answer uniqueness
	rankMu   *keyedMutex // per-question correctness rank

	active activeRound
}

// NewService wires the core. questions may be nil, in which case the store
// serves question sets directly; notifier may be nil for headless use.
func NewService(store Store, questions QuestionSource, notifier Notifier, cfg Config) *Service {
	if questions == nil {
		questions = store
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		store:     store,
		questions: questions,
		notifier:  notifier,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		seqMu:     newKeyedMutex(),
		betMu:     newKeyedMutex(),
		answerMu:  newKeyedMutex(),
		rankMu:    newKeyedMutex(),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithRand is test-only for deterministic shuffles.
func (s *Service) WithRand(rnd *rand.Rand) *Service {
	s.rnd = rnd
	return s
}

// RegisterPlayer creates a player with the initial stake. Names are globally
// unique.
func (s *Service) RegisterPlayer(ctx context.Context, name string) (*domain.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	p := &domain.Player{
		ID:        uuid.New().String(),
		Name:      name,
		Points:    s.cfg.InitialStake,
		Round:     1,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertPlayer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// PlayerState returns a player's current snapshot.
func (s *Service) PlayerState(ctx context.Context, playerID string) (*domain.Player, error) {
	return s.store.GetPlayer(ctx, playerID)
}

// JoinWaiting puts a player in the lobby and returns the refreshed list.
func (s *Service) JoinWaiting(ctx context.Context, playerID, name string) ([]domain.WaitingEntry, error) {
	if err := s.store.UpsertWaiting(ctx, &domain.WaitingEntry{PlayerID: playerID, Name: name}); err != nil {
		return nil, err
	}
	list, err := s.WaitingList(ctx)
	if err != nil {
		return nil, err
	}
	s.notifier.Broadcast(EventWaitingList, list)
	return list, nil
}

// WaitingList returns lobby entries with each player's live balance.
func (s *Service) WaitingList(ctx context.Context) ([]domain.WaitingEntry, error) {
	waiting, err := s.store.ListWaiting(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.WaitingEntry, 0, len(waiting))
	for _, w := range waiting {
		points := 0
		if p, err := s.store.GetPlayer(ctx, w.PlayerID); err == nil {
			points = p.Points
		}
		out = append(out, domain.WaitingEntry{PlayerID: w.PlayerID, Name: w.Name, Points: points})
	}
	return out, nil
}

// LatestLeaderboard returns the most recent round-end snapshot, or an empty
// slice before any round has ended.
func (s *Service) LatestLeaderboard(ctx context.Context) ([]domain.Player, error) {
	snap, err := s.store.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return []domain.Player{}, nil
	}
	return snap.Snapshot, nil
}

// CreateQuestion authors a question. Round defaults to 1, time limit to 15s.
func (s *Service) CreateQuestion(ctx context.Context, q *domain.Question) (*domain.Question, error) {
	if q.Round == 0 {
		q.Round = 1
	}
	if q.TimeLimit == 0 {
		q.TimeLimit = 15
	}
	q.ID = uuid.New().String()
	q.CreatedAt = s.now()
	if err := s.store.InsertQuestion(ctx, q); err != nil {
		return nil, err
	}
	if cache, ok := s.questions.(interface{ Invalidate(round int) }); ok {
		cache.Invalidate(q.Round)
	}
	return q, nil
}

// ListQuestions returns every authored question.
func (s *Service) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.store.ListQuestions(ctx)
}

// QuestionsByRound returns a round's question set.
func (s *Service) QuestionsByRound(ctx context.Context, round int) ([]domain.Question, error) {
	return s.questions.QuestionsByRound(ctx, round)
}

// StoreImage saves an uploaded asset as base64 and returns its record.
func (s *Service) StoreImage(ctx context.Context, filename, contentType string, data []byte) (*domain.Image, error) {
	img := &domain.Image{
		ID:          uuid.New().String(),
		Filename:    filename,
		ContentType: contentType,
		Data:        base64.StdEncoding.EncodeToString(data),
		CreatedAt:   s.now(),
	}
	if err := s.store.InsertImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// GetImage fetches an uploaded asset.
func (s *Service) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	return s.store.GetImage(ctx, id)
}

// ClearPlayers wipes all player-generated data. Irreversible.
func (s *Service) ClearPlayers(ctx context.Context) error {
	return s.store.ClearPlayerData(ctx)
}

func (s *Service) shuffleIDs(ids []string) {
	s.rndMu.Lock()
	s.rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	s.rndMu.Unlock()
}
