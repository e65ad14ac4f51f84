package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-arena/internal/domain"
)

// GameStore implements game.Store on Redis. Uniqueness constraints map to
// SetNX/HSetNX, point mutations to HIncrBy, and cursor advances to INCR, so
// the store-side atomicity the core relies on comes from Redis itself.
//
// Key layout:
//
//	player:{id}            hash  name/points/round/createdAt
//	players:ids            list  insertion order
//	players:names          hash  display name -> player ID
//	question:{id}          json
//	questions:ids          list
//	bet:{round}:{player}   json  (SetNX)
//	answer:{p}:{q}         json  (SetNX)
//	correct:{q}            set   player IDs with correct answers
//	seq:{p}:{round}        json  shuffled order (SetNX)
//	seq:{p}:{round}:cur    int   cursor (INCR)
//	codeseq:{p}            json  code-selected order
//	codeseq:{p}:cur        int   cursor (INCR)
//	shortlist:{round}      json  replaced wholesale
//	leaderboards           list  newest snapshot first
//	waiting:{p} / waiting:ids
//	image:{id}             json
type GameStore struct {
	client *redis.Client
}

func NewGameStore(client *redis.Client) *GameStore {
	return &GameStore{client: client}
}

func (s *GameStore) InsertPlayer(ctx context.Context, p *domain.Player) error {
	ok, err := s.client.HSetNX(ctx, "players:names", p.Name, p.ID).Result()
	if err != nil {
		return fmt.Errorf("reserve name: %w", err)
	}
	if !ok {
		return domain.ErrNameTaken
	}
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, playerKey(p.ID),
		"name", p.Name,
		"points", p.Points,
		"round", p.Round,
		"createdAt", p.CreatedAt.Format(time.RFC3339Nano),
	)
	pipe.RPush(ctx, "players:ids", p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

func (s *GameStore) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	fields, err := s.client.HGetAll(ctx, playerKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrPlayerNotFound
	}
	return playerFromFields(id, fields), nil
}

func (s *GameStore) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	ids, err := s.client.LRange(ctx, "players:ids", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list player ids: %w", err)
	}
	players := make([]domain.Player, 0, len(ids))
	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, playerKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("get player %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		players = append(players, *playerFromFields(id, fields))
	}
	return players, nil
}

func (s *GameStore) CountPlayers(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, "players:ids").Result()
	if err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return int(n), nil
}

func (s *GameStore) IncrementPoints(ctx context.Context, playerID string, delta int) error {
	exists, err := s.client.Exists(ctx, playerKey(playerID)).Result()
	if err != nil {
		return fmt.Errorf("check player: %w", err)
	}
	if exists == 0 {
		return domain.ErrPlayerNotFound
	}
	if err := s.client.HIncrBy(ctx, playerKey(playerID), "points", int64(delta)).Err(); err != nil {
		return fmt.Errorf("increment points: %w", err)
	}
	return nil
}

func (s *GameStore) SetPoints(ctx context.Context, playerID string, points int) error {
	exists, err := s.client.Exists(ctx, playerKey(playerID)).Result()
	if err != nil {
		return fmt.Errorf("check player: %w", err)
	}
	if exists == 0 {
		return domain.ErrPlayerNotFound
	}
	if err := s.client.HSet(ctx, playerKey(playerID), "points", points).Err(); err != nil {
		return fmt.Errorf("set points: %w", err)
	}
	return nil
}

func (s *GameStore) InsertQuestion(ctx context.Context, q *domain.Question) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal question: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, questionKey(q.ID), data, 0)
	pipe.RPush(ctx, "questions:ids", q.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save question: %w", err)
	}
	return nil
}

func (s *GameStore) GetQuestion(ctx context.Context, id string) (*domain.Question, error) {
	data, err := s.client.Get(ctx, questionKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	var q domain.Question
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return nil, fmt.Errorf("unmarshal question: %w", err)
	}
	return &q, nil
}

func (s *GameStore) QuestionsByRound(ctx context.Context, round int) ([]domain.Question, error) {
	all, err := s.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Question
	for _, q := range all {
		if q.Round == round {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *GameStore) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	ids, err := s.client.LRange(ctx, "questions:ids", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		q, err := s.GetQuestion(ctx, id)
		if err == domain.ErrQuestionNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, nil
}

func (s *GameStore) InsertBet(ctx context.Context, b *domain.Bet) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bet: %w", err)
	}
	ok, err := s.client.SetNX(ctx, betKey(b.Round, b.PlayerID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save bet: %w", err)
	}
	if !ok {
		return domain.ErrDuplicateBet
	}
	return nil
}

func (s *GameStore) GetBet(ctx context.Context, round int, playerID string) (*domain.Bet, error) {
	data, err := s.client.Get(ctx, betKey(round, playerID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNoBet
	}
	if err != nil {
		return nil, fmt.Errorf("get bet: %w", err)
	}
	var b domain.Bet
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("unmarshal bet: %w", err)
	}
	return &b, nil
}

func (s *GameStore) InsertAnswer(ctx context.Context, a *domain.Answer) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	ok, err := s.client.SetNX(ctx, answerKey(a.PlayerID, a.QuestionID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	if !ok {
		return domain.ErrDuplicateAnswer
	}
	if a.Correct {
		if err := s.client.SAdd(ctx, correctKey(a.QuestionID), a.PlayerID).Err(); err != nil {
			return fmt.Errorf("record correct answer: %w", err)
		}
	}
	return nil
}

func (s *GameStore) HasAnswer(ctx context.Context, playerID, questionID string) (bool, error) {
	exists, err := s.client.Exists(ctx, answerKey(playerID, questionID)).Result()
	if err != nil {
		return false, fmt.Errorf("check answer: %w", err)
	}
	return exists > 0, nil
}

func (s *GameStore) CountCorrectAnswers(ctx context.Context, questionID string) (int, error) {
	n, err := s.client.SCard(ctx, correctKey(questionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count correct answers: %w", err)
	}
	return int(n), nil
}

func (s *GameStore) GetRoundSequence(ctx context.Context, playerID string, round int) (*domain.RoundSequence, error) {
	data, err := s.client.Get(ctx, seqKey(playerID, round)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get round sequence: %w", err)
	}
	var seq domain.RoundSequence
	if err := json.Unmarshal([]byte(data), &seq); err != nil {
		return nil, fmt.Errorf("unmarshal round sequence: %w", err)
	}
	cursor, err := s.client.Get(ctx, seqCursorKey(playerID, round)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get sequence cursor: %w", err)
	}
	seq.Cursor = cursor
	return &seq, nil
}

func (s *GameStore) InsertRoundSequence(ctx context.Context, seq *domain.RoundSequence) (*domain.RoundSequence, error) {
	data, err := json.Marshal(seq)
	if err != nil {
		return nil, fmt.Errorf("marshal round sequence: %w", err)
	}
	if _, err := s.client.SetNX(ctx, seqKey(seq.PlayerID, seq.Round), data, 0).Result(); err != nil {
		return nil, fmt.Errorf("save round sequence: %w", err)
	}
	// Whether we won the SetNX or lost to a concurrent creation, the stored
	// record is authoritative.
	return s.GetRoundSequence(ctx, seq.PlayerID, seq.Round)
}

func (s *GameStore) AdvanceRoundSequence(ctx context.Context, playerID string, round int) error {
	if err := s.client.Incr(ctx, seqCursorKey(playerID, round)).Err(); err != nil {
		return fmt.Errorf("advance round sequence: %w", err)
	}
	return nil
}

func (s *GameStore) PutCodeSequence(ctx context.Context, seq *domain.CodeSequence) error {
	data, err := json.Marshal(seq)
	if err != nil {
		return fmt.Errorf("marshal code sequence: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, codeSeqKey(seq.PlayerID), data, 0)
	pipe.Set(ctx, codeSeqCursorKey(seq.PlayerID), 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save code sequence: %w", err)
	}
	return nil
}

func (s *GameStore) GetCodeSequence(ctx context.Context, playerID string) (*domain.CodeSequence, error) {
	data, err := s.client.Get(ctx, codeSeqKey(playerID)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNoCodeSequence
	}
	if err != nil {
		return nil, fmt.Errorf("get code sequence: %w", err)
	}
	var seq domain.CodeSequence
	if err := json.Unmarshal([]byte(data), &seq); err != nil {
		return nil, fmt.Errorf("unmarshal code sequence: %w", err)
	}
	cursor, err := s.client.Get(ctx, codeSeqCursorKey(playerID)).Int()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get code cursor: %w", err)
	}
	seq.Cursor = cursor
	return &seq, nil
}

func (s *GameStore) AdvanceCodeSequence(ctx context.Context, playerID string) error {
	if err := s.client.Incr(ctx, codeSeqCursorKey(playerID)).Err(); err != nil {
		return fmt.Errorf("advance code sequence: %w", err)
	}
	return nil
}

func (s *GameStore) ReplaceShortlist(ctx context.Context, round int, entries []domain.ShortlistEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal shortlist: %w", err)
	}
	// Single SET replaces the whole round's shortlist atomically.
	if err := s.client.Set(ctx, shortlistKey(round), data, 0).Err(); err != nil {
		return fmt.Errorf("save shortlist: %w", err)
	}
	return nil
}

func (s *GameStore) Shortlist(ctx context.Context, round int) ([]domain.ShortlistEntry, error) {
	data, err := s.client.Get(ctx, shortlistKey(round)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shortlist: %w", err)
	}
	var entries []domain.ShortlistEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("unmarshal shortlist: %w", err)
	}
	return entries, nil
}

func (s *GameStore) InShortlist(ctx context.Context, round int, playerID string) (bool, error) {
	entries, err := s.Shortlist(ctx, round)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.PlayerID == playerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *GameStore) InsertSnapshot(ctx context.Context, snap *domain.LeaderboardSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.LPush(ctx, "leaderboards", data).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *GameStore) LatestSnapshot(ctx context.Context) (*domain.LeaderboardSnapshot, error) {
	data, err := s.client.LIndex(ctx, "leaderboards", 0).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	var snap domain.LeaderboardSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *GameStore) UpsertWaiting(ctx context.Context, w *domain.WaitingEntry) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal waiting entry: %w", err)
	}
	added, err := s.client.HSetNX(ctx, "waiting", w.PlayerID, data).Result()
	if err != nil {
		return fmt.Errorf("save waiting entry: %w", err)
	}
	if added {
		if err := s.client.RPush(ctx, "waiting:ids", w.PlayerID).Err(); err != nil {
			return fmt.Errorf("track waiting order: %w", err)
		}
		return nil
	}
	if err := s.client.HSet(ctx, "waiting", w.PlayerID, data).Err(); err != nil {
		return fmt.Errorf("update waiting entry: %w", err)
	}
	return nil
}

func (s *GameStore) ListWaiting(ctx context.Context) ([]domain.WaitingEntry, error) {
	ids, err := s.client.LRange(ctx, "waiting:ids", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list waiting ids: %w", err)
	}
	entries, err := s.client.HGetAll(ctx, "waiting").Result()
	if err != nil {
		return nil, fmt.Errorf("list waiting: %w", err)
	}
	out := make([]domain.WaitingEntry, 0, len(ids))
	for _, id := range ids {
		raw, ok := entries[id]
		if !ok {
			continue
		}
		var w domain.WaitingEntry
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			return nil, fmt.Errorf("unmarshal waiting entry: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *GameStore) InsertImage(ctx context.Context, img *domain.Image) error {
	data, err := json.Marshal(img)
	if err != nil {
		return fmt.Errorf("marshal image: %w", err)
	}
	if err := s.client.Set(ctx, imageKey(img.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

func (s *GameStore) GetImage(ctx context.Context, id string) (*domain.Image, error) {
	data, err := s.client.Get(ctx, imageKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	var img domain.Image
	if err := json.Unmarshal([]byte(data), &img); err != nil {
		return nil, fmt.Errorf("unmarshal image: %w", err)
	}
	return &img, nil
}

func (s *GameStore) ClearPlayerData(ctx context.Context) error {
	patterns := []string{
		"player:*", "players:ids", "players:names",
		"bet:*", "answer:*", "correct:*",
		"seq:*", "codeseq:*",
		"shortlist:*", "leaderboards",
		"waiting", "waiting:ids",
	}
	for _, pattern := range patterns {
		keys, err := s.client.Keys(ctx, pattern).Result()
		if err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("clear %s: %w", pattern, err)
		}
	}
	return nil
}

func playerFromFields(id string, fields map[string]string) *domain.Player {
	points, _ := strconv.Atoi(fields["points"])
	round, _ := strconv.Atoi(fields["round"])
	createdAt, _ := time.Parse(time.RFC3339Nano, fields["createdAt"])
	return &domain.Player{
		ID:        id,
		Name:      fields["name"],
		Points:    points,
		Round:     round,
		CreatedAt: createdAt,
	}
}

func playerKey(id string) string         { return "player:" + id }
func questionKey(id string) string       { return "question:" + id }
func correctKey(id string) string        { return "correct:" + id }
func codeSeqKey(p string) string         { return "codeseq:" + p }
func codeSeqCursorKey(p string) string   { return "codeseq:" + p + ":cur" }
func imageKey(id string) string          { return "image:" + id }
func shortlistKey(round int) string      { return fmt.Sprintf("shortlist:%d", round) }
func betKey(round int, p string) string  { return fmt.Sprintf("bet:%d:%s", round, p) }
func answerKey(p, q string) string       { return fmt.Sprintf("answer:%s:%s", p, q) }
func seqKey(p string, round int) string  { return fmt.Sprintf("seq:%s:%d", p, round) }
func seqCursorKey(p string, r int) string { return fmt.Sprintf("seq:%s:%d:cur", p, r) }
