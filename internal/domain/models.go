package domain

import "time"

// Player is a registered contestant. Points may go negative: round re-seeding
// uses increments and never floors the balance.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	Round     int       `json:"round"`
	CreatedAt time.Time `json:"createdAt"`
}

// Question is immutable once authored. Round-1 questions carry AnswerIndex;
// later rounds match on AnswerText.
type Question struct {
	ID          string    `json:"id"`
	Round       int       `json:"round"`
	Prompt      string    `json:"prompt"`
	Options     []string  `json:"options,omitempty"`
	AnswerIndex *int      `json:"answerIndex,omitempty"`
	AnswerText  string    `json:"answerText,omitempty"`
	TimeLimit   int       `json:"time"` // seconds, advisory only
	Images      []string  `json:"images,omitempty"`
	Code        string    `json:"code,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Bet records a wager for one round. At most one per (round, player).
type Bet struct {
	Round    int       `json:"round"`
	PlayerID string    `json:"playerId"`
	Amount   int       `json:"bet"`
	PlacedAt time.Time `json:"ts"`
}

// Answer records a submission for one question. At most one per
// (player, question), immutable once written.
type Answer struct {
	PlayerID    string    `json:"playerId"`
	QuestionID  string    `json:"questionId"`
	AnswerIndex *int      `json:"answerIndex,omitempty"`
	AnswerText  string    `json:"answerText,omitempty"`
	Correct     bool      `json:"correct"`
	Earned      int       `json:"earned"`
	Bonus       int       `json:"bonus"`
	Rank        int       `json:"rank,omitempty"` // 1-based order among correct answers
	SubmittedAt time.Time `json:"ts"`
}

// RoundSequence is a player's private shuffled traversal of a round's
// questions. Order is fixed at creation; Cursor only ever moves forward.
type RoundSequence struct {
	PlayerID  string    `json:"playerId"`
	Round     int       `json:"round"`
	Order     []string  `json:"order"`
	Cursor    int       `json:"currentIndex"`
	CreatedAt time.Time `json:"createdAt"`
}

// CodeSequence maps a player's 5-digit code to a fixed subset of the code
// round's questions. Re-submitting a code overwrites the previous record.
type CodeSequence struct {
	PlayerID  string    `json:"playerId"`
	Code      string    `json:"code"`
	Selected  []string  `json:"selectedQuestions"`
	Cursor    int       `json:"currentIndex"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShortlistEntry marks a player as advancing past Round, with their balance
// at the cutoff.
type ShortlistEntry struct {
	Round    int    `json:"round"`
	PlayerID string `json:"playerId"`
	Points   int    `json:"points"`
}

// LeaderboardSnapshot is the append-only audit record written at round end.
type LeaderboardSnapshot struct {
	Round    int       `json:"round"`
	Snapshot []Player  `json:"snapshot"`
	TakenAt  time.Time `json:"ts"`
}

// WaitingEntry tracks a player sitting in the pre-game lobby.
type WaitingEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
}

// Image is an admin-uploaded asset stored as base64.
type Image struct {
	ID          string    `json:"imageId"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Data        string    `json:"data"`
	CreatedAt   time.Time `json:"createdAt"`
}
