package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-arena/internal/domain"
)

// QuestionBank loads authored question sets from Postgres. Each round's
// questions live as one JSONB document.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

// LoadRound returns the question set authored for one round.
func (b *QuestionBank) LoadRound(ctx context.Context, round int) ([]domain.Question, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE round=$1`, round).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	return questions, nil
}

// LoadAll returns every authored question across rounds.
func (b *QuestionBank) LoadAll(ctx context.Context) ([]domain.Question, error) {
	rows, err := b.pool.Query(ctx, `SELECT data FROM question_banks ORDER BY round`)
	if err != nil {
		return nil, fmt.Errorf("load question banks: %w", err)
	}
	defer rows.Close()

	var all []domain.Question
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question bank: %w", err)
		}
		var questions []domain.Question
		if err := json.Unmarshal(raw, &questions); err != nil {
			return nil, fmt.Errorf("unmarshal question bank: %w", err)
		}
		all = append(all, questions...)
	}
	return all, rows.Err()
}
