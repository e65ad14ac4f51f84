package game

import "trivia-arena/internal/domain"

// Event names emitted by the core. Room-scoped events use the player ID as
// the room name.
const (
	EventPointsUpdate  = "points_update"
	EventAnswerResult  = "answer_result"
	EventRoundStarted  = "game_started_round"
	EventRoundQuestion = "round_question"
	EventLeaderboard   = "leaderboard"
	EventRoundEnded    = "round_ended"
	EventWaitingList   = "waiting_list"
	EventPlayerState   = "player_state"
)

// Notifier delivers core events to connected clients.
type Notifier interface {
	Broadcast(event string, payload any)
	SendToRoom(room, event string, payload any)
}

// NopNotifier discards all events; useful when no hub is attached.
type NopNotifier struct{}

func (NopNotifier) Broadcast(string, any)          {}
func (NopNotifier) SendToRoom(string, string, any) {}

// RoundEvent announces a round starting or ending.
type RoundEvent struct {
	Round int `json:"round"`
}

// QuestionEvent carries a broadcast question to clients.
type QuestionEvent struct {
	Round    int              `json:"round"`
	Question *domain.Question `json:"question"`
}

// AnswerResult summarizes a scored submission for the submitting player.
type AnswerResult struct {
	PlayerID      string `json:"playerId"`
	SelectedIndex *int   `json:"selectedIndex"`
	CorrectIndex  *int   `json:"correctIndex,omitempty"`
	Correct       bool   `json:"correct"`
	Earned        int    `json:"earned"`
	Bonus         int    `json:"bonus"`
	Rank          int    `json:"rank,omitempty"`
}
