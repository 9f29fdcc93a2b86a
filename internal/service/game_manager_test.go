package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/benbeisheim/arenachess-backend/internal/model"
	"github.com/rs/zerolog"
)

const owner = "owner-1"

type memoryRecorder struct {
	mu      sync.Mutex
	results []MatchResult
}

func (r *memoryRecorder) RecordResult(_ context.Context, result MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *memoryRecorder) recorded() []MatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MatchResult(nil), r.results...)
}

func newTestManager(t *testing.T, delay time.Duration) (*GameManager, *memoryRecorder) {
	t.Helper()
	recorder := &memoryRecorder{}
	gm := NewGameManager(ManagerConfig{
		Logger:        zerolog.Nop(),
		Recorder:      recorder,
		ComputerDelay: delay,
		Rand:          rand.New(rand.NewSource(1)),
	})
	return gm, recorder
}

func mustCreate(t *testing.T, gm *GameManager, gameID string, opts GameOptions) *GameSession {
	t.Helper()
	if err := gm.CreateGame(gameID, owner, opts); err != nil {
		t.Fatalf("create game: %v", err)
	}
	game, err := gm.GetGame(gameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	return game
}

func pos(t *testing.T, square string) *model.Position {
	t.Helper()
	p, err := model.ParsePosition(square)
	if err != nil {
		t.Fatalf("parse %q: %v", square, err)
	}
	return &p
}

// playMoves plays each "e2e4" style move through SelectOrMove.
func playMoves(t *testing.T, gm *GameManager, gameID string, moves ...string) GameSnapshot {
	t.Helper()
	var snapshot GameSnapshot
	for _, m := range moves {
		before, _ := gm.GetGameState(gameID)
		var err error
		snapshot, err = gm.SelectOrMove(gameID, owner, pos(t, m[:2]), pos(t, m[2:]))
		if err != nil {
			t.Fatalf("move %s: %v", m, err)
		}
		if len(snapshot.State.MoveHistory) != len(before.State.MoveHistory)+1 {
			t.Fatalf("move %s was not played", m)
		}
	}
	return snapshot
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestCreateGameDefaults(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)

	tests := []struct {
		mode     model.GameMode
		computer bool
	}{
		{model.ModePlayers, false},
		{model.ModeComputer, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			game := mustCreate(t, gm, "game-"+string(tt.mode), GameOptions{Mode: tt.mode})
			snapshot := game.Snapshot()

			if len(snapshot.Players) != 2 {
				t.Fatalf("expected 2 players, got %d", len(snapshot.Players))
			}
			color, ok := game.computerColor()
			if ok != tt.computer || (ok && color != model.Black) {
				t.Errorf("computer color = %v, %v", color, ok)
			}
			if snapshot.FEN != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1" {
				t.Errorf("unexpected FEN %q", snapshot.FEN)
			}
			if snapshot.State.CurrentPlayer != model.White || snapshot.Version != 0 {
				t.Errorf("unexpected start state: %s, version %d", snapshot.State.CurrentPlayer, snapshot.Version)
			}
		})
	}
}

func TestCreateGameValidation(t *testing.T) {
	human := func(name string, color model.Color) model.Player {
		return model.Player{Name: name, Color: color}
	}
	computer := model.Player{Name: "Computer", Color: model.Black, IsComputer: true}

	tests := []struct {
		name string
		opts GameOptions
		want error
	}{
		{"unknown mode", GameOptions{Mode: "blitz"}, ErrInvalidGameMode},
		{"empty mode", GameOptions{}, ErrInvalidGameMode},
		{"one player", GameOptions{Mode: model.ModePlayers, Players: []model.Player{human("a", model.White)}}, ErrInvalidPlayers},
		{"same color", GameOptions{Mode: model.ModePlayers, Players: []model.Player{human("a", model.White), human("b", model.White)}}, ErrInvalidPlayers},
		{"unnamed", GameOptions{Mode: model.ModePlayers, Players: []model.Player{human("", model.White), human("b", model.Black)}}, ErrInvalidPlayers},
		{"computer in players mode", GameOptions{Mode: model.ModePlayers, Players: []model.Player{human("a", model.White), computer}}, ErrInvalidPlayers},
		{"no computer in computer mode", GameOptions{Mode: model.ModeComputer, Players: []model.Player{human("a", model.White), human("b", model.Black)}}, ErrInvalidPlayers},
		{"computer on white", GameOptions{Mode: model.ModeComputer, Players: []model.Player{{Name: "Computer", Color: model.White, IsComputer: true}, human("b", model.Black)}}, ErrInvalidPlayers},
		{"bad FEN", GameOptions{Mode: model.ModePlayers, FEN: "not a position"}, model.ErrInvalidFEN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm, _ := newTestManager(t, time.Hour)
			err := gm.CreateGame("g", owner, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if _, err := gm.GetGame("g"); !errors.Is(err, ErrGameNotFound) {
				t.Errorf("rejected game was stored")
			}
		})
	}
}

func TestCreateGameRejectsDuplicateID(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModePlayers})
	if err := gm.CreateGame("g", owner, GameOptions{Mode: model.ModePlayers}); !errors.Is(err, ErrGameExists) {
		t.Errorf("got %v, want ErrGameExists", err)
	}
}

func TestUnknownGame(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	if _, err := gm.GetGameState("missing"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GetGameState: %v", err)
	}
	if _, err := gm.SelectOrMove("missing", owner, nil, nil); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("SelectOrMove: %v", err)
	}
	if _, err := gm.Undo("missing", owner); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Undo: %v", err)
	}
	if _, err := gm.Restart("missing", owner); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("Restart: %v", err)
	}
}

func TestOnlyOwnerMayPlay(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModePlayers})

	if _, err := gm.SelectOrMove("g", "someone-else", pos(t, "e2"), nil); !errors.Is(err, ErrNotGameOwner) {
		t.Errorf("SelectOrMove: %v", err)
	}
	if _, err := gm.Undo("g", "someone-else"); !errors.Is(err, ErrNotGameOwner) {
		t.Errorf("Undo: %v", err)
	}
	if _, err := gm.Restart("g", "someone-else"); !errors.Is(err, ErrNotGameOwner) {
		t.Errorf("Restart: %v", err)
	}
}

func TestSelectThenMove(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModePlayers})

	selected, err := gm.SelectOrMove("g", owner, pos(t, "e2"), nil)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if selected.State.SelectedCell == nil || *selected.State.SelectedCell != *pos(t, "e2") {
		t.Fatalf("e2 not selected: %v", selected.State.SelectedCell)
	}
	if len(selected.State.ValidMoves) != 2 {
		t.Errorf("expected 2 moves for e2, got %v", selected.State.ValidMoves)
	}

	moved, err := gm.SelectOrMove("g", owner, pos(t, "e2"), pos(t, "e4"))
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(moved.State.MoveHistory) != 1 || moved.State.CurrentPlayer != model.Black {
		t.Errorf("move not applied: %+v", moved.State.MoveHistory)
	}
	if moved.Version <= selected.Version {
		t.Errorf("version did not advance: %d -> %d", selected.Version, moved.Version)
	}
	if moved.FEN != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" {
		t.Errorf("unexpected FEN %q", moved.FEN)
	}
}

func TestLegalMovesForSquare(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModePlayers})

	moves, err := gm.LegalMoves("g", *pos(t, "g1"))
	if err != nil {
		t.Fatalf("legal moves: %v", err)
	}
	if len(moves) != 2 {
		t.Errorf("expected Nf3 and Nh3, got %v", moves)
	}
}

func TestUndoSignals(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	mustCreate(t, gm, "players", GameOptions{Mode: model.ModePlayers})
	mustCreate(t, gm, "computer", GameOptions{Mode: model.ModeComputer})

	if _, err := gm.Undo("players", owner); !errors.Is(err, model.ErrNothingToUndo) {
		t.Errorf("players mode: got %v", err)
	}

	playMoves(t, gm, "computer", "e2e4")
	if _, err := gm.Undo("computer", owner); !errors.Is(err, model.ErrNotEnoughToUndo) {
		t.Errorf("computer mode: got %v", err)
	}

	playMoves(t, gm, "players", "e2e4", "e7e5")
	snapshot, err := gm.Undo("players", owner)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if len(snapshot.State.MoveHistory) != 1 || snapshot.State.CurrentPlayer != model.Black {
		t.Errorf("unexpected state after undo: %d moves, %s to move", len(snapshot.State.MoveHistory), snapshot.State.CurrentPlayer)
	}
}

func TestComputerReplies(t *testing.T) {
	gm, _ := newTestManager(t, 5*time.Millisecond)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModeComputer})

	playMoves(t, gm, "g", "e2e4")
	waitFor(t, func() bool {
		snapshot, _ := gm.GetGameState("g")
		return len(snapshot.State.MoveHistory) == 2
	})

	snapshot, _ := gm.GetGameState("g")
	if snapshot.State.CurrentPlayer != model.White {
		t.Errorf("expected White to move after the reply, got %s", snapshot.State.CurrentPlayer)
	}
	if reply := snapshot.State.MoveHistory[1]; reply.Piece.Color != model.Black {
		t.Errorf("computer moved a %s piece", reply.Piece.Color)
	}
}

func TestComputerStartsFromPosition(t *testing.T) {
	gm, _ := newTestManager(t, 5*time.Millisecond)
	mustCreate(t, gm, "g", GameOptions{
		Mode: model.ModeComputer,
		FEN:  "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
	})

	waitFor(t, func() bool {
		snapshot, _ := gm.GetGameState("g")
		return len(snapshot.State.MoveHistory) == 1
	})
}

func TestHumanIntentRejectedOnComputerTurn(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModeComputer})
	playMoves(t, gm, "g", "e2e4")

	if _, err := gm.SelectOrMove("g", owner, pos(t, "e7"), nil); !errors.Is(err, ErrComputerTurn) {
		t.Errorf("got %v, want ErrComputerTurn", err)
	}
}

func TestStaleComputerMoveDiscarded(t *testing.T) {
	gm, _ := newTestManager(t, time.Hour)
	game := mustCreate(t, gm, "g", GameOptions{Mode: model.ModeComputer})

	scheduled := playMoves(t, gm, "g", "e2e4").Version
	if _, err := gm.Restart("g", owner); err != nil {
		t.Fatalf("restart: %v", err)
	}

	gm.playComputerMove(game, scheduled)
	if snapshot := game.Snapshot(); len(snapshot.State.MoveHistory) != 0 {
		t.Fatalf("stale computer move was played: %v", snapshot.State.MoveHistory)
	}

	current := playMoves(t, gm, "g", "d2d4").Version
	gm.playComputerMove(game, current)
	snapshot := game.Snapshot()
	if len(snapshot.State.MoveHistory) != 2 {
		t.Fatalf("current computer move was not played: %v", snapshot.State.MoveHistory)
	}

	// a second timer for the same version finds the state moved on
	gm.playComputerMove(game, current)
	if len(game.Snapshot().State.MoveHistory) != 2 {
		t.Error("computer moved twice for one turn")
	}
}

func TestResultRecordedOncePerGame(t *testing.T) {
	gm, recorder := newTestManager(t, time.Hour)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModePlayers, Players: []model.Player{
		{Name: "Ana", Color: model.White},
		{Name: "Bruno", Color: model.Black},
	}})

	snapshot := playMoves(t, gm, "g", "f2f3", "e7e5", "g2g4", "d8h4")
	if !snapshot.State.Checkmate {
		t.Fatal("expected fool's mate")
	}
	// intents after the game ended do not report again
	if _, err := gm.SelectOrMove("g", owner, pos(t, "a2"), pos(t, "a3")); err != nil {
		t.Fatalf("select after mate: %v", err)
	}

	results := recorder.recorded()
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}
	want := map[string]model.Outcome{"Ana": model.Loss, "Bruno": model.Win}
	for _, pr := range results[0].Results {
		if want[pr.Name] != pr.Outcome {
			t.Errorf("%s: got %s, want %s", pr.Name, pr.Outcome, want[pr.Name])
		}
	}

	if _, err := gm.Restart("g", owner); err != nil {
		t.Fatalf("restart: %v", err)
	}
	playMoves(t, gm, "g", "f2f3", "e7e5", "g2g4", "d8h4")
	if n := len(recorder.recorded()); n != 2 {
		t.Errorf("expected a second result after restart, got %d", n)
	}
}

func TestResultLeavesOutComputer(t *testing.T) {
	gm, recorder := newTestManager(t, time.Hour)
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModeComputer, FEN: "k7/8/1K6/8/8/8/8/7R w - - 0 1"})

	snapshot := playMoves(t, gm, "g", "h1h8")
	if !snapshot.State.Checkmate {
		t.Fatal("expected mate")
	}

	results := recorder.recorded()
	if len(results) != 1 || len(results[0].Results) != 1 {
		t.Fatalf("expected one human result, got %+v", results)
	}
	if pr := results[0].Results[0]; pr.Color != model.White || pr.Outcome != model.Win {
		t.Errorf("unexpected result %+v", pr)
	}
}

// blockingRecorder holds RecordResult until release is closed.
type blockingRecorder struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRecorder) RecordResult(ctx context.Context, _ MatchResult) error {
	r.entered <- struct{}{}
	select {
	case <-r.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSlowRecorderDoesNotHoldTheGame(t *testing.T) {
	recorder := &blockingRecorder{entered: make(chan struct{}, 1), release: make(chan struct{})}
	gm := NewGameManager(ManagerConfig{Logger: zerolog.Nop(), Recorder: recorder, ComputerDelay: time.Hour})
	mustCreate(t, gm, "g", GameOptions{Mode: model.ModePlayers})
	playMoves(t, gm, "g", "f2f3", "e7e5", "g2g4")

	from, to := pos(t, "d8"), pos(t, "h4")
	mated := make(chan error, 1)
	go func() {
		_, err := gm.SelectOrMove("g", owner, from, to)
		mated <- err
	}()
	<-recorder.entered

	restarted := make(chan error, 1)
	go func() {
		_, err := gm.Restart("g", owner)
		restarted <- err
	}()
	select {
	case err := <-restarted:
		if err != nil {
			t.Fatalf("restart: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("game stayed locked while the result was recorded")
	}

	close(recorder.release)
	if err := <-mated; err != nil {
		t.Fatalf("mating move: %v", err)
	}
}
