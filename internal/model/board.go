package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidPosition = errors.New("invalid position")

type PieceType string

const (
	King   PieceType = "king"
	Queen  PieceType = "queen"
	Rook   PieceType = "rook"
	Bishop PieceType = "bishop"
	Knight PieceType = "knight"
	Pawn   PieceType = "pawn"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"hasMoved"`
}

// Position is a zero-based square: File 0 is the a-file, Rank 0 is rank 1.
type Position struct {
	File int
	Rank int
}

func (p Position) String() string {
	return fmt.Sprintf("%c%d", 'a'+p.File, p.Rank+1)
}

func (p Position) valid() bool {
	return p.File >= 0 && p.File < 8 && p.Rank >= 0 && p.Rank < 8
}

func (p Position) index() int {
	if !p.valid() {
		panic(fmt.Sprintf("position out of board: file=%d rank=%d", p.File, p.Rank))
	}
	return p.Rank*8 + p.File
}

func (p Position) offset(df, dr int) Position {
	return Position{File: p.File + df, Rank: p.Rank + dr}
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pos, err := ParsePosition(s)
	if err != nil {
		return err
	}
	*p = pos
	return nil
}

// ParsePosition parses square names like "e4".
func ParsePosition(s string) (Position, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return Position{File: int(s[0] - 'a'), Rank: int(s[1] - '1')}, nil
}

// MustPosition is ParsePosition for trusted input; it panics on malformed squares.
func MustPosition(s string) Position {
	p, err := ParsePosition(s)
	if err != nil {
		panic(err)
	}
	return p
}

type Cell struct {
	Position    Position `json:"position"`
	Piece       *Piece   `json:"piece"`
	Highlighted bool     `json:"highlighted"`
	LastMove    bool     `json:"lastMove"`
	Check       bool     `json:"check"`
}

// Board holds every square of the game. Copies share piece pointers, so
// anything that mutates a piece works on a Clone.
type Board struct {
	cells [64]Cell
}

func emptyBoard() Board {
	var b Board
	for i := range b.cells {
		b.cells[i].Position = Position{File: i % 8, Rank: i / 8}
	}
	return b
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func NewInitialBoard() Board {
	b := emptyBoard()
	for file := 0; file < 8; file++ {
		b.put(Position{File: file, Rank: 0}, &Piece{Type: backRank[file], Color: White})
		b.put(Position{File: file, Rank: 1}, &Piece{Type: Pawn, Color: White})
		b.put(Position{File: file, Rank: 6}, &Piece{Type: Pawn, Color: Black})
		b.put(Position{File: file, Rank: 7}, &Piece{Type: backRank[file], Color: Black})
	}
	return b
}

func (b *Board) Cell(p Position) Cell {
	return b.cells[p.index()]
}

// PieceAt returns the piece on p, or nil for an empty square.
func (b *Board) PieceAt(p Position) *Piece {
	return b.cells[p.index()].Piece
}

func (b *Board) put(p Position, piece *Piece) {
	b.cells[p.index()].Piece = piece
}

func (b *Board) isEmpty(p Position) bool {
	return b.PieceAt(p) == nil
}

// Cells returns the squares in a1, b1, ... h8 order.
func (b *Board) Cells() []Cell {
	out := make([]Cell, len(b.cells))
	copy(out, b.cells[:])
	return out
}

// Clone deep copies the board including pieces.
func (b Board) Clone() Board {
	for i := range b.cells {
		if b.cells[i].Piece != nil {
			piece := *b.cells[i].Piece
			b.cells[i].Piece = &piece
		}
	}
	return b
}

func (b *Board) kingPosition(color Color) (Position, bool) {
	for _, cell := range b.cells {
		if cell.Piece != nil && cell.Piece.Type == King && cell.Piece.Color == color {
			return cell.Position, true
		}
	}
	return Position{}, false
}

func (b *Board) clearFlags() {
	for i := range b.cells {
		b.cells[i].Highlighted = false
		b.cells[i].LastMove = false
		b.cells[i].Check = false
	}
}

// MarshalJSON encodes the board as an object keyed by square name.
func (b Board) MarshalJSON() ([]byte, error) {
	out := make(map[string]Cell, len(b.cells))
	for _, cell := range b.cells {
		out[cell.Position.String()] = cell
	}
	return json.Marshal(out)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var in map[string]Cell
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = emptyBoard()
	for square, cell := range in {
		pos, err := ParsePosition(square)
		if err != nil {
			return err
		}
		cell.Position = pos
		b.cells[pos.index()] = cell
	}
	return nil
}
