package model

import (
	"errors"
	"fmt"
	"math/rand"

	"golang.org/x/exp/slices"
)

var (
	ErrNothingToUndo   = errors.New("no move to undo")
	ErrNotEnoughToUndo = errors.New("not enough moves to undo")
)

type GameMode string

const (
	ModePlayers  GameMode = "players"
	ModeComputer GameMode = "computer"
)

// GameState is an immutable snapshot of a game. Every transition returns a
// new value and leaves the receiver untouched.
type GameState struct {
	Board         Board      `json:"board"`
	CurrentPlayer Color      `json:"currentPlayer"`
	SelectedCell  *Position  `json:"selectedCell"`
	ValidMoves    []Position `json:"validMoves"`
	MoveHistory   []Move     `json:"moveHistory"`
	Check         bool       `json:"check"`
	Checkmate     bool       `json:"checkmate"`
	Stalemate     bool       `json:"stalemate"`
	IsGameOver    bool       `json:"isGameOver"`
	Winner        *Color     `json:"winner"`

	// replay starts from origin; prelude only feeds en passant detection
	// before the first move of a game set up from FEN
	origin         Board
	originPlayer   Color
	originHalfmove int
	originFullmove int
	prelude        []Move
}

func NewGame() GameState {
	board := NewInitialBoard()
	return newGameFrom(board, White, nil, 0, 1)
}

func newGameFrom(board Board, toMove Color, prelude []Move, halfmove, fullmove int) GameState {
	gs := GameState{
		Board:          board.Clone(),
		CurrentPlayer:  toMove,
		ValidMoves:     []Position{},
		MoveHistory:    []Move{},
		origin:         board.Clone(),
		originPlayer:   toMove,
		originHalfmove: halfmove,
		originFullmove: fullmove,
		prelude:        prelude,
	}
	return gs.evaluate()
}

// history returns the moves that give context to move generation.
func (gs GameState) history() []Move {
	if len(gs.MoveHistory) == 0 {
		return gs.prelude
	}
	return gs.MoveHistory
}

// LegalMoves returns the legal destinations of the piece on from.
func (gs GameState) LegalMoves(from Position) []Position {
	return legalDestinations(&gs.Board, from, gs.history())
}

// SelectOrMove is the single entry point for player intents:
//   - from and to nil clears the selection
//   - from set, to nil selects a square of the side to move
//   - both set plays the move when to is a legal destination of from
//
// Any other intent leaves the state unchanged.
func (gs GameState) SelectOrMove(from, to *Position) GameState {
	switch {
	case from == nil && to == nil:
		return gs.withSelection(nil, []Position{})
	case from == nil || gs.IsGameOver:
		return gs
	case to == nil:
		if !gs.ownsSquare(*from) {
			return gs
		}
		return gs.withSelection(from, gs.LegalMoves(*from))
	}

	legal := gs.ValidMoves
	if gs.SelectedCell == nil || *gs.SelectedCell != *from {
		if !gs.ownsSquare(*from) {
			return gs
		}
		legal = gs.LegalMoves(*from)
	}
	if !slices.Contains(legal, *to) {
		return gs
	}
	return ApplyMove(gs, *from, *to)
}

func (gs GameState) ownsSquare(p Position) bool {
	piece := gs.Board.PieceAt(p)
	return piece != nil && piece.Color == gs.CurrentPlayer
}

func (gs GameState) withSelection(selected *Position, moves []Position) GameState {
	if selected != nil {
		p := *selected
		selected = &p
	}
	gs.SelectedCell = selected
	gs.ValidMoves = moves
	gs.annotate()
	return gs
}

// ApplyMove plays from->to without checking legality. Castling rook
// relocation, en passant capture and queen promotion are applied here, the
// move is appended to the history and check, checkmate and stalemate are
// evaluated for the side that moves next.
func ApplyMove(gs GameState, from, to Position) GameState {
	board := gs.Board.Clone()
	piece := board.PieceAt(from)
	if piece == nil {
		panic(fmt.Sprintf("apply move: no piece on %s", from))
	}

	record := Move{From: from, To: to, Piece: *piece}
	if captured := board.PieceAt(to); captured != nil {
		snapshot := *captured
		record.Captured = &snapshot
	}
	if isEnPassant(&board, piece, from, to) {
		passed := Position{File: to.File, Rank: from.Rank}
		if captured := board.PieceAt(passed); captured != nil {
			snapshot := *captured
			record.Captured = &snapshot
		}
		record.EnPassant = true
		board.put(passed, nil)
	}

	piece.HasMoved = true
	board.put(to, piece)
	board.put(from, nil)

	if side := castlingSide(piece, from, to); side != NoCastling {
		rookFrom, rookTo := castleRook(side, from.Rank)
		if rook := board.PieceAt(rookFrom); rook != nil {
			rook.HasMoved = true
			board.put(rookTo, rook)
			board.put(rookFrom, nil)
		}
		record.Castling = side
	}

	if piece.Type == Pawn && to.Rank == promotionRank(piece.Color) {
		piece.Type = Queen
		record.Promotion = Queen
	}

	next := gs
	next.Board = board
	next.CurrentPlayer = gs.CurrentPlayer.Opponent()
	next.MoveHistory = append(slices.Clone(gs.MoveHistory), record)
	next.SelectedCell = nil
	next.ValidMoves = []Position{}
	return next.evaluate()
}

// Undo rebuilds the game by replaying all but the last moves from the start
// position. In computer mode on White's turn two moves are taken back so the
// computer's reply goes too. The state is returned unchanged together with
// ErrNothingToUndo or ErrNotEnoughToUndo when there is not enough history.
func Undo(gs GameState, mode GameMode) (GameState, error) {
	n := len(gs.MoveHistory)
	if n == 0 {
		return gs, ErrNothingToUndo
	}
	count := 1
	if mode == ModeComputer {
		if n == 1 {
			return gs, ErrNotEnoughToUndo
		}
		if gs.CurrentPlayer == White {
			count = 2
		}
	}

	history := slices.Clone(gs.MoveHistory[:n-count])
	board := gs.origin.Clone()
	for _, m := range history {
		replay(&board, m)
	}

	player := gs.originPlayer
	if len(history)%2 == 1 {
		player = player.Opponent()
	}

	next := gs
	next.Board = board
	next.CurrentPlayer = player
	next.MoveHistory = history
	next.SelectedCell = nil
	next.ValidMoves = []Position{}
	return next.evaluate(), nil
}

func replay(board *Board, m Move) {
	piece := m.Piece
	piece.HasMoved = true
	if m.Promotion != "" {
		piece.Type = m.Promotion
	}
	if m.EnPassant {
		board.put(Position{File: m.To.File, Rank: m.From.Rank}, nil)
	}
	board.put(m.To, &piece)
	board.put(m.From, nil)

	if m.Castling != NoCastling {
		rookFrom, rookTo := castleRook(m.Castling, m.From.Rank)
		board.put(rookTo, &Piece{Type: Rook, Color: m.Piece.Color, HasMoved: true})
		board.put(rookFrom, nil)
	}
}

// evaluate derives the check and terminal fields for the side to move and
// refreshes the board annotations.
func (gs GameState) evaluate() GameState {
	history := gs.history()
	gs.Check = kingInCheck(&gs.Board, gs.CurrentPlayer)
	noMoves := !hasLegalMove(&gs.Board, gs.CurrentPlayer, history)
	gs.Checkmate = gs.Check && noMoves
	gs.Stalemate = !gs.Check && noMoves
	gs.IsGameOver = gs.Checkmate || gs.Stalemate
	gs.Winner = nil
	if gs.Checkmate {
		winner := gs.CurrentPlayer.Opponent()
		gs.Winner = &winner
	}
	gs.annotate()
	return gs
}

// annotate recomputes every cell flag from the last move, the king in check
// and the current selection. gs.Board must not share cells with another
// state, which holds because Board is an array value.
func (gs *GameState) annotate() {
	gs.Board.clearFlags()
	if n := len(gs.MoveHistory); n > 0 {
		last := gs.MoveHistory[n-1]
		gs.Board.cells[last.From.index()].LastMove = true
		gs.Board.cells[last.To.index()].LastMove = true
	}
	if gs.Check {
		if king, ok := gs.Board.kingPosition(gs.CurrentPlayer); ok {
			gs.Board.cells[king.index()].Check = true
		}
	}
	for _, p := range gs.ValidMoves {
		gs.Board.cells[p.index()].Highlighted = true
	}
}

// ComputerMove picks a move for color on the current position.
func (gs GameState) ComputerMove(color Color, rng *rand.Rand) (SimpleMove, bool) {
	return SelectMove(gs.Board, color, gs.history(), rng)
}
