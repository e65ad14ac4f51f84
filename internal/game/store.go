package game

import (
	"context"

	"trivia-arena/internal/domain"
)

// Store abstracts game persistence (in-memory, Redis, etc). Uniqueness
// constraints live behind the inserts: InsertPlayer fails with ErrNameTaken,
// InsertBet with ErrDuplicateBet, InsertAnswer with ErrDuplicateAnswer.
// Cursor advances and point mutations are atomic with respect to concurrent
// readers.
type Store interface {
	InsertPlayer(ctx context.Context, p *domain.Player) error
	GetPlayer(ctx context.Context, id string) (*domain.Player, error)
	ListPlayers(ctx context.Context) ([]domain.Player, error)
	CountPlayers(ctx context.Context) (int, error)
	IncrementPoints(ctx context.Context, playerID string, delta int) error
	SetPoints(ctx context.Context, playerID string, points int) error

	InsertQuestion(ctx context.Context, q *domain.Question) error
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)
	// QuestionsByRound returns the round's questions sorted by ID so the
	// code-round digit mapping is stable.
	QuestionsByRound(ctx context.Context, round int) ([]domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)

	InsertBet(ctx context.Context, b *domain.Bet) error
	GetBet(ctx context.Context, round int, playerID string) (*domain.Bet, error)

	InsertAnswer(ctx context.Context, a *domain.Answer) error
	HasAnswer(ctx context.Context, playerID, questionID string) (bool, error)
	CountCorrectAnswers(ctx context.Context, questionID string) (int, error)

	// GetRoundSequence returns (nil, nil) when no sequence exists yet.
	GetRoundSequence(ctx context.Context, playerID string, round int) (*domain.RoundSequence, error)
	// InsertRoundSequence keeps an existing record untouched and returns it;
	// a sequence is shuffled exactly once.
	InsertRoundSequence(ctx context.Context, seq *domain.RoundSequence) (*domain.RoundSequence, error)
	AdvanceRoundSequence(ctx context.Context, playerID string, round int) error

	PutCodeSequence(ctx context.Context, seq *domain.CodeSequence) error
	GetCodeSequence(ctx context.Context, playerID string) (*domain.CodeSequence, error)
	AdvanceCodeSequence(ctx context.Context, playerID string) error

	// ReplaceShortlist swaps the full shortlist for a round in one scope.
	ReplaceShortlist(ctx context.Context, round int, entries []domain.ShortlistEntry) error
	Shortlist(ctx context.Context, round int) ([]domain.ShortlistEntry, error)
	InShortlist(ctx context.Context, round int, playerID string) (bool, error)

	InsertSnapshot(ctx context.Context, s *domain.LeaderboardSnapshot) error
	// LatestSnapshot returns (nil, nil) when no round has ended yet.
	LatestSnapshot(ctx context.Context) (*domain.LeaderboardSnapshot, error)

	UpsertWaiting(ctx context.Context, w *domain.WaitingEntry) error
	ListWaiting(ctx context.Context) ([]domain.WaitingEntry, error)

	InsertImage(ctx context.Context, img *domain.Image) error
	GetImage(ctx context.Context, id string) (*domain.Image, error)

	// ClearPlayerData wipes players, bets, answers, sequences, codes,
	// shortlists, snapshots and the waiting room. Questions and images survive.
	ClearPlayerData(ctx context.Context) error
}

// QuestionSource serves a round's question set. The plain Store satisfies it;
// infra layers may wrap it with a TTL cache.
type QuestionSource interface {
	QuestionsByRound(ctx context.Context, round int) ([]domain.Question, error)
}
