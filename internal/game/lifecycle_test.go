package game_test

import (
	"context"
	"testing"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/game"
)

func TestStartRoundOneSeedsWaitingPlayers(t *testing.T) {
	ctx := context.Background()
	service, store, notifier := newTestService(t)
	seedQuestions(t, store, 1, 3)

	players := registerPlayers(t, service, 2)
	// Drain balances to prove round 1 re-seeds with set, not increment.
	for _, p := range players {
		if err := store.SetPoints(ctx, p.ID, 12); err != nil {
			t.Fatalf("set points: %v", err)
		}
		if _, err := service.JoinWaiting(ctx, p.ID, p.Name); err != nil {
			t.Fatalf("join waiting: %v", err)
		}
	}

	if err := service.StartRound(ctx, 1); err != nil {
		t.Fatalf("start round: %v", err)
	}
	for _, p := range players {
		got, _ := store.GetPlayer(ctx, p.ID)
		if got.Points != 500 {
			t.Fatalf("expected reset to 500, got %d", got.Points)
		}
	}
	if service.ActiveRound() != 1 {
		t.Fatalf("expected active round 1, got %d", service.ActiveRound())
	}
	if notifier.broadcastCount(game.EventRoundStarted) != 1 {
		t.Fatalf("expected one game_started_round broadcast")
	}
}

func TestStartLaterRoundIncrementsShortlisted(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 2, 3)

	players := registerPlayers(t, service, 3)
	if err := store.ReplaceShortlist(ctx, 1, []domain.ShortlistEntry{
		{Round: 1, PlayerID: players[0].ID, Points: 700},
		{Round: 1, PlayerID: players[1].ID, Points: 600},
	}); err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if err := store.SetPoints(ctx, players[0].ID, 700); err != nil {
		t.Fatalf("set points: %v", err)
	}

	if err := service.StartRound(ctx, 2); err != nil {
		t.Fatalf("start round: %v", err)
	}

	p0, _ := store.GetPlayer(ctx, players[0].ID)
	if p0.Points != 1200 {
		t.Fatalf("expected carried balance 700+500, got %d", p0.Points)
	}
	// Eliminated players keep whatever they had.
	p2, _ := store.GetPlayer(ctx, players[2].ID)
	if p2.Points != 500 {
		t.Fatalf("expected untouched balance, got %d", p2.Points)
	}
}

func TestEndRoundShortlistsTopHalf(t *testing.T) {
	ctx := context.Background()
	service, store, notifier := newTestService(t)
	seedQuestions(t, store, 1, 2)

	players := registerPlayers(t, service, 7)
	points := []int{10, 70, 30, 50, 20, 60, 40}
	for i, p := range players {
		if err := store.SetPoints(ctx, p.ID, points[i]); err != nil {
			t.Fatalf("set points: %v", err)
		}
	}

	if err := service.StartRound(ctx, 1); err != nil {
		t.Fatalf("start round: %v", err)
	}
	// StartRound with no waiting entries leaves balances alone.
	shortlisted, err := service.EndRound(ctx)
	if err != nil {
		t.Fatalf("end round: %v", err)
	}
	if shortlisted != 4 {
		t.Fatalf("expected ceil(7/2)=4 shortlisted, got %d", shortlisted)
	}

	entries, _ := store.Shortlist(ctx, 1)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	wantTop := map[string]int{
		players[1].ID: 70,
		players[5].ID: 60,
		players[3].ID: 50,
		players[6].ID: 40,
	}
	for _, e := range entries {
		if wantTop[e.PlayerID] != e.Points {
			t.Fatalf("unexpected shortlist entry %+v", e)
		}
	}

	snap, _ := store.LatestSnapshot(ctx)
	if snap == nil || snap.Round != 1 || len(snap.Snapshot) != 7 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Snapshot[0].Points != 70 {
		t.Fatalf("snapshot not ranked: %+v", snap.Snapshot[0])
	}

	if service.ActiveRound() != 0 {
		t.Fatalf("expected idle after end round")
	}
	if notifier.broadcastCount(game.EventLeaderboard) != 1 || notifier.broadcastCount(game.EventRoundEnded) != 1 {
		t.Fatalf("expected leaderboard and round_ended broadcasts")
	}
}

func TestEndRoundReplacesPriorShortlist(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 1, 1)

	registerPlayers(t, service, 2)
	if err := store.ReplaceShortlist(ctx, 1, []domain.ShortlistEntry{
		{Round: 1, PlayerID: "stale-player", Points: 999},
	}); err != nil {
		t.Fatalf("seed shortlist: %v", err)
	}

	if err := service.StartRound(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.EndRound(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}

	entries, _ := store.Shortlist(ctx, 1)
	for _, e := range entries {
		if e.PlayerID == "stale-player" {
			t.Fatalf("stale shortlist entry survived replacement")
		}
	}
	if len(entries) != 1 {
		t.Fatalf("expected ceil(2/2)=1 entry, got %d", len(entries))
	}
}

func TestEndRoundSinglePlayer(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 1, 1)
	registerPlayers(t, service, 1)

	if err := service.StartRound(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	shortlisted, err := service.EndRound(ctx)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if shortlisted != 1 {
		t.Fatalf("expected minimum shortlist of 1, got %d", shortlisted)
	}
}

func TestEndRoundWhenIdle(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)
	if _, err := service.EndRound(ctx); err != domain.ErrRoundNotActive {
		t.Fatalf("expected ErrRoundNotActive, got %v", err)
	}
}

func TestBroadcastNextQuestion(t *testing.T) {
	ctx := context.Background()
	service, store, notifier := newTestService(t)
	seedQuestions(t, store, 1, 2)
	registerPlayers(t, service, 1)

	if err := service.StartRound(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 2; i++ {
		sent, err := service.BroadcastNextQuestion(ctx)
		if err != nil || !sent {
			t.Fatalf("broadcast %d: sent=%v err=%v", i, sent, err)
		}
	}
	sent, err := service.BroadcastNextQuestion(ctx)
	if err != nil || sent {
		t.Fatalf("expected exhausted broadcast cursor, sent=%v err=%v", sent, err)
	}
	if notifier.broadcastCount(game.EventRoundQuestion) != 2 {
		t.Fatalf("expected 2 round_question broadcasts")
	}
}

func TestBroadcastQuestionLaterRoundUsesRooms(t *testing.T) {
	ctx := context.Background()
	service, store, notifier := newTestService(t)
	seedQuestions(t, store, 2, 1)
	players := registerPlayers(t, service, 2)

	if err := store.ReplaceShortlist(ctx, 1, []domain.ShortlistEntry{
		{Round: 1, PlayerID: players[0].ID, Points: 500},
	}); err != nil {
		t.Fatalf("shortlist: %v", err)
	}
	if err := service.StartRound(ctx, 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.BroadcastNextQuestion(ctx); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.rooms[players[0].ID]) != 1 {
		t.Fatalf("expected shortlisted player to receive round_question")
	}
	if len(notifier.rooms[players[1].ID]) != 0 {
		t.Fatalf("eliminated player should not receive round_question")
	}
}

func TestEligibility(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 1, 1)
	seedQuestions(t, store, 2, 1)

	players := registerPlayers(t, service, 2)
	if err := store.ReplaceShortlist(ctx, 1, []domain.ShortlistEntry{
		{Round: 1, PlayerID: players[0].ID, Points: 500},
	}); err != nil {
		t.Fatalf("shortlist: %v", err)
	}

	if err := service.StartRound(ctx, 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.PlaceBet(ctx, players[0].ID, 10); err != nil {
		t.Fatalf("shortlisted player should bet: %v", err)
	}
	if _, err := service.PlaceBet(ctx, players[1].ID, 10); err != domain.ErrNotEligible {
		t.Fatalf("expected ErrNotEligible, got %v", err)
	}
	// Unregistered identities are not eligible either.
	if _, err := service.PlaceBet(ctx, "ghost", 10); err != domain.ErrNotEligible {
		t.Fatalf("expected ErrNotEligible for unknown player, got %v", err)
	}
}

func TestClearPlayersWipesEverything(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newTestService(t)
	seedQuestions(t, store, 1, 2)

	p, _ := service.RegisterPlayer(ctx, "Alice")
	if err := service.StartRound(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.PlaceBet(ctx, p.ID, 10); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if _, err := service.EndRound(ctx); err != nil {
		t.Fatalf("end: %v", err)
	}

	if err := service.ClearPlayers(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.GetPlayer(ctx, p.ID); err != domain.ErrPlayerNotFound {
		t.Fatalf("expected players wiped, got %v", err)
	}
	if snap, _ := store.LatestSnapshot(ctx); snap != nil {
		t.Fatalf("expected snapshots wiped")
	}
	// Questions survive a player reset.
	questions, _ := store.QuestionsByRound(ctx, 1)
	if len(questions) != 2 {
		t.Fatalf("expected questions to survive, got %d", len(questions))
	}
	// Names are free again.
	if _, err := service.RegisterPlayer(ctx, "Alice"); err != nil {
		t.Fatalf("expected re-registration after clear: %v", err)
	}
}
