package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrInvalidFEN = errors.New("invalid FEN")

var fenLetters = map[PieceType]byte{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

// FEN encodes the current position. Castling rights are derived from the
// unmoved king and rooks, the en passant square from the last move.
func (gs GameState) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := gs.Board.PieceAt(Position{File: file, Rank: rank})
			if piece == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			letter := fenLetters[piece.Type]
			if piece.Color == White {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if gs.CurrentPlayer == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s %s %s %d %d", side, gs.castlingRights(), gs.enPassantSquare(), gs.halfmoveClock(), gs.fullmoveNumber())
	return sb.String()
}

func (gs GameState) castlingRights() string {
	rights := ""
	for _, color := range []Color{White, Black} {
		rank := 0
		if color == Black {
			rank = 7
		}
		king := gs.Board.PieceAt(Position{File: 4, Rank: rank})
		if king == nil || king.Type != King || king.Color != color || king.HasMoved {
			continue
		}
		for _, side := range []Castling{Kingside, Queenside} {
			corner, _ := castleRook(side, rank)
			rook := gs.Board.PieceAt(corner)
			if rook == nil || rook.Type != Rook || rook.Color != color || rook.HasMoved {
				continue
			}
			letter := "k"
			if side == Queenside {
				letter = "q"
			}
			if color == White {
				letter = strings.ToUpper(letter)
			}
			rights += letter
		}
	}
	if rights == "" {
		return "-"
	}
	return rights
}

func (gs GameState) enPassantSquare() string {
	history := gs.history()
	if len(history) == 0 {
		return "-"
	}
	last := history[len(history)-1]
	if last.Piece.Type != Pawn || abs(last.To.Rank-last.From.Rank) != 2 {
		return "-"
	}
	return Position{File: last.To.File, Rank: (last.To.Rank + last.From.Rank) / 2}.String()
}

func (gs GameState) halfmoveClock() int {
	clock := gs.originHalfmove
	for _, m := range gs.MoveHistory {
		if m.Piece.Type == Pawn || m.Captured != nil {
			clock = 0
			continue
		}
		clock++
	}
	return clock
}

func (gs GameState) fullmoveNumber() int {
	plies := len(gs.MoveHistory)
	if gs.originPlayer == Black {
		plies++
	}
	return gs.originFullmove + plies/2
}

// ParseFEN sets up a game from a FEN record. Only the placement and side to
// move are required; missing counters default to 0 and 1. Positions that
// cannot arise in a game, such as a missing king or the side not to move in
// check, are rejected.
func ParseFEN(fen string) (GameState, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 || len(fields) > 6 {
		return GameState{}, fmt.Errorf("%w: expected 2 to 6 fields, got %d", ErrInvalidFEN, len(fields))
	}

	board, err := parsePlacement(fields[0])
	if err != nil {
		return GameState{}, err
	}

	var toMove Color
	switch fields[1] {
	case "w":
		toMove = White
	case "b":
		toMove = Black
	default:
		return GameState{}, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}
	if err := validatePosition(&board, toMove); err != nil {
		return GameState{}, err
	}

	rights := "-"
	if len(fields) > 2 {
		rights = fields[2]
	}
	if err := applyCastlingRights(&board, rights); err != nil {
		return GameState{}, err
	}

	var prelude []Move
	if len(fields) > 3 && fields[3] != "-" {
		pushed, err := enPassantPush(&board, fields[3], toMove)
		if err != nil {
			return GameState{}, err
		}
		prelude = []Move{pushed}
	}

	halfmove, fullmove := 0, 1
	if len(fields) > 4 {
		if halfmove, err = strconv.Atoi(fields[4]); err != nil || halfmove < 0 {
			return GameState{}, fmt.Errorf("%w: halfmove clock %q", ErrInvalidFEN, fields[4])
		}
	}
	if len(fields) > 5 {
		if fullmove, err = strconv.Atoi(fields[5]); err != nil || fullmove < 1 {
			return GameState{}, fmt.Errorf("%w: fullmove number %q", ErrInvalidFEN, fields[5])
		}
	}

	return newGameFrom(board, toMove, prelude, halfmove, fullmove), nil
}

func parsePlacement(placement string) (Board, error) {
	board := emptyBoard()
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return Board{}, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for _, ch := range row {
			if ch > unicode.MaxASCII {
				return Board{}, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, row)
			}
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}
			piece, ok := pieceFromLetter(byte(ch))
			if !ok || file > 7 {
				return Board{}, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, row)
			}
			pos := Position{File: file, Rank: rank}
			// kings and rooks count as moved until a castling right says otherwise
			piece.HasMoved = piece.Type == Pawn && rank != pawnStartRank(piece.Color) ||
				piece.Type == King || piece.Type == Rook
			board.put(pos, piece)
			file++
		}
		if file != 8 {
			return Board{}, fmt.Errorf("%w: bad rank %q", ErrInvalidFEN, row)
		}
	}
	return board, nil
}

// validatePosition rejects placements the rules cannot play from: each side
// needs exactly one king, pawns cannot stand on the first or last rank, and
// the side that just moved cannot be left in check.
func validatePosition(board *Board, toMove Color) error {
	kings := map[Color]int{}
	for _, cell := range board.cells {
		piece := cell.Piece
		if piece == nil {
			continue
		}
		switch {
		case piece.Type == King:
			kings[piece.Color]++
		case piece.Type == Pawn && (cell.Position.Rank == 0 || cell.Position.Rank == 7):
			return fmt.Errorf("%w: pawn on %s", ErrInvalidFEN, cell.Position)
		}
	}
	for _, color := range []Color{White, Black} {
		if kings[color] != 1 {
			return fmt.Errorf("%w: %d %s kings", ErrInvalidFEN, kings[color], color)
		}
	}
	if kingInCheck(board, toMove.Opponent()) {
		return fmt.Errorf("%w: %s is in check with %s to move", ErrInvalidFEN, toMove.Opponent(), toMove)
	}
	return nil
}

func pieceFromLetter(letter byte) (*Piece, bool) {
	color := Black
	if letter >= 'A' && letter <= 'Z' {
		color = White
		letter += 'a' - 'A'
	}
	for pieceType, l := range fenLetters {
		if l == letter {
			return &Piece{Type: pieceType, Color: color}, true
		}
	}
	return nil, false
}

// applyCastlingRights clears HasMoved on the king and rooks named by the
// castling field.
func applyCastlingRights(board *Board, rights string) error {
	if rights == "-" {
		return nil
	}
	for _, ch := range rights {
		color, side := White, Kingside
		switch ch {
		case 'K':
		case 'Q':
			side = Queenside
		case 'k':
			color = Black
		case 'q':
			color, side = Black, Queenside
		default:
			return fmt.Errorf("%w: castling rights %q", ErrInvalidFEN, rights)
		}
		rank := 0
		if color == Black {
			rank = 7
		}
		king := board.PieceAt(Position{File: 4, Rank: rank})
		corner, _ := castleRook(side, rank)
		rook := board.PieceAt(corner)
		if king == nil || king.Type != King || king.Color != color || rook == nil || rook.Type != Rook || rook.Color != color {
			return fmt.Errorf("%w: castling right %q without king and rook", ErrInvalidFEN, ch)
		}
		king.HasMoved = false
		rook.HasMoved = false
	}
	return nil
}

// enPassantPush reconstructs the double pawn advance implied by an en passant
// target square.
func enPassantPush(board *Board, square string, toMove Color) (Move, error) {
	target, err := ParsePosition(square)
	if err != nil {
		return Move{}, fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, square)
	}
	mover := toMove.Opponent()
	dir := pawnDirection(mover)
	from := target.offset(0, -dir)
	to := target.offset(0, dir)
	if from.Rank != pawnStartRank(mover) {
		return Move{}, fmt.Errorf("%w: en passant square %q on wrong rank", ErrInvalidFEN, square)
	}
	pawn := board.PieceAt(to)
	if pawn == nil || pawn.Type != Pawn || pawn.Color != mover {
		return Move{}, fmt.Errorf("%w: no pawn behind en passant square %q", ErrInvalidFEN, square)
	}
	return Move{From: from, To: to, Piece: Piece{Type: Pawn, Color: mover}}, nil
}
