package model

import (
	"sort"
	"strings"
	"testing"
)

func sq(s string) Position {
	return MustPosition(s)
}

func squareNames(ps []Position) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

func containsSquare(ps []Position, s string) bool {
	for _, p := range ps {
		if p.String() == s {
			return true
		}
	}
	return false
}

// play applies moves written as "e2e4" and fails the test on any move the
// state rejects.
func play(t *testing.T, gs GameState, moves ...string) GameState {
	t.Helper()
	for _, m := range moves {
		from, to := sq(m[:2]), sq(m[2:4])
		next := gs.SelectOrMove(&from, &to)
		if len(next.MoveHistory) != len(gs.MoveHistory)+1 {
			t.Fatalf("move %s rejected in position %s", m, gs.FEN())
		}
		gs = next
	}
	return gs
}

func mustFEN(t *testing.T, fen string) GameState {
	t.Helper()
	gs, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return gs
}

// allLegalMoves lists the side to move's legal moves as "e2e4" strings.
func allLegalMoves(gs GameState) []string {
	out := []string{}
	for _, cell := range gs.Board.Cells() {
		if cell.Piece == nil || cell.Piece.Color != gs.CurrentPlayer {
			continue
		}
		for _, to := range gs.LegalMoves(cell.Position) {
			out = append(out, cell.Position.String()+to.String())
		}
	}
	sort.Strings(out)
	return out
}

// mustPlacement builds a board from the placement field of fen without the
// position checks ParseFEN applies.
func mustPlacement(t *testing.T, fen string) Board {
	t.Helper()
	board, err := parsePlacement(strings.Fields(fen)[0])
	if err != nil {
		t.Fatalf("parsePlacement(%q): %v", fen, err)
	}
	return board
}
