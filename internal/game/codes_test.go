package game_test

import (
	"context"
	"testing"

	"trivia-arena/internal/domain"
)

func TestSubmitCodeValidation(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 3, 12)
	p, _ := service.RegisterPlayer(ctx, "Alice")

	for _, code := range []string{"", "1234", "123456", "12a45", "12 45"} {
		if _, err := service.SubmitCode(ctx, p.ID, code); err != domain.ErrInvalidCode {
			t.Fatalf("code %q: expected ErrInvalidCode, got %v", code, err)
		}
	}
}

func TestSubmitCodeMapping(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	// Question IDs sort lexicographically: r3-q00 ... r3-q11.
	ids := seedQuestions(t, store, 3, 12)
	p, _ := service.RegisterPlayer(ctx, "Alice")

	seq, err := service.SubmitCode(ctx, p.ID, "13579")
	if err != nil {
		t.Fatalf("submit code: %v", err)
	}
	// Digit d selects the question at list position d+1.
	want := []string{ids[2], ids[4], ids[6], ids[8], ids[10]}
	if len(seq.Selected) != len(want) {
		t.Fatalf("expected %d selections, got %d", len(want), len(seq.Selected))
	}
	for i := range want {
		if seq.Selected[i] != want[i] {
			t.Fatalf("selection %d: want %s, got %s", i, want[i], seq.Selected[i])
		}
	}
}

func TestSubmitCodeRepeatedDigits(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	ids := seedQuestions(t, store, 3, 2)
	p, _ := service.RegisterPlayer(ctx, "Alice")

	seq, err := service.SubmitCode(ctx, p.ID, "00000")
	if err != nil {
		t.Fatalf("submit code: %v", err)
	}
	if len(seq.Selected) != 5 {
		t.Fatalf("expected 5 duplicated selections, got %d", len(seq.Selected))
	}
	for _, id := range seq.Selected {
		if id != ids[1] {
			t.Fatalf("expected every digit to map to %s, got %s", ids[1], id)
		}
	}
}

func TestSubmitCodeSkipsOutOfRangeDigits(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	ids := seedQuestions(t, store, 3, 4) // positions 1..3 reachable
	p, _ := service.RegisterPlayer(ctx, "Alice")

	seq, err := service.SubmitCode(ctx, p.ID, "09192")
	if err != nil {
		t.Fatalf("submit code: %v", err)
	}
	// Digits 9 fall off the list and are skipped silently.
	want := []string{ids[1], ids[2], ids[3]}
	if len(seq.Selected) != len(want) {
		t.Fatalf("expected %d selections, got %v", len(want), seq.Selected)
	}
}

func TestSubmitCodeNoMapping(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 3, 1) // only position 0 exists; no digit reaches it
	p, _ := service.RegisterPlayer(ctx, "Alice")

	if _, err := service.SubmitCode(ctx, p.ID, "99999"); err != domain.ErrNoMapping {
		t.Fatalf("expected ErrNoMapping, got %v", err)
	}
}

func TestSubmitCodeOverwrites(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	ids := seedQuestions(t, store, 3, 12)
	p, _ := service.RegisterPlayer(ctx, "Alice")

	if _, err := service.SubmitCode(ctx, p.ID, "11111"); err != nil {
		t.Fatalf("first code: %v", err)
	}
	seq, err := service.SubmitCode(ctx, p.ID, "22222")
	if err != nil {
		t.Fatalf("second code: %v", err)
	}
	stored, _ := store.GetCodeSequence(ctx, p.ID)
	if stored.Code != "22222" || stored.Cursor != 0 {
		t.Fatalf("expected overwritten sequence, got %+v", stored)
	}
	if stored.Selected[0] != ids[3] || seq.Selected[0] != ids[3] {
		t.Fatalf("expected digit 2 to map to %s", ids[3])
	}
}

func TestCodeRoundFlow(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 3, 12)
	p, _ := service.RegisterPlayer(ctx, "Alice")

	if err := store.ReplaceShortlist(ctx, 2, []domain.ShortlistEntry{{Round: 2, PlayerID: p.ID, Points: 700}}); err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if err := service.StartRound(ctx, 3); err != nil {
		t.Fatalf("start round: %v", err)
	}

	// Betting on the code round requires a code on file.
	if _, err := service.PlaceBet(ctx, p.ID, 50); err != domain.ErrCodeRequired {
		t.Fatalf("expected ErrCodeRequired, got %v", err)
	}
	if _, err := service.SubmitCode(ctx, p.ID, "13579"); err != nil {
		t.Fatalf("submit code: %v", err)
	}
	if _, err := service.PlaceBet(ctx, p.ID, 50); err != nil {
		t.Fatalf("bet after code: %v", err)
	}
	// The code round never creates a shuffled sequence.
	if seq, _ := store.GetRoundSequence(ctx, p.ID, 3); seq != nil {
		t.Fatalf("unexpected shuffled sequence for code round")
	}

	for i := 0; i < 5; i++ {
		result, err := service.NextQuestion(ctx, p.ID, 0)
		if err != nil {
			t.Fatalf("next question %d: %v", i, err)
		}
		if result.Done {
			t.Fatalf("premature done at %d", i)
		}
	}
	result, err := service.NextQuestion(ctx, p.ID, 0)
	if err != nil || !result.Done {
		t.Fatalf("expected done after 5 questions, got %+v %v", result, err)
	}
}

func TestNextQuestionCodeRoundWithoutCode(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 3, 5)
	p, _ := service.RegisterPlayer(ctx, "Alice")

	if _, err := service.NextQuestion(ctx, p.ID, 3); err != domain.ErrNoCodeSequence {
		t.Fatalf("expected ErrNoCodeSequence, got %v", err)
	}
}
