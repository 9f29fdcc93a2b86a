package model

var (
	rookDirs   = []Position{{File: 0, Rank: 1}, {File: 1, Rank: 0}, {File: 0, Rank: -1}, {File: -1, Rank: 0}}
	bishopDirs = []Position{{File: 1, Rank: 1}, {File: 1, Rank: -1}, {File: -1, Rank: 1}, {File: -1, Rank: -1}}
	queenDirs  = append(append([]Position{}, rookDirs...), bishopDirs...)
	knightDirs = []Position{
		{File: -2, Rank: -1}, {File: -2, Rank: 1}, {File: -1, Rank: -2}, {File: -1, Rank: 2},
		{File: 1, Rank: -2}, {File: 1, Rank: 2}, {File: 2, Rank: -1}, {File: 2, Rank: 1},
	}
	kingDirs = []Position{
		{File: -1, Rank: -1}, {File: -1, Rank: 0}, {File: -1, Rank: 1}, {File: 0, Rank: -1},
		{File: 0, Rank: 1}, {File: 1, Rank: -1}, {File: 1, Rank: 0}, {File: 1, Rank: 1},
	}
)

// ValidDestinations returns the pseudo-legal destinations of the piece on
// from. Moves that leave the mover's own king in check are included; the
// history is only consulted for en passant.
func ValidDestinations(from Position, board Board, history []Move) []Position {
	return pseudoDestinations(&board, from, history)
}

func pseudoDestinations(board *Board, from Position, history []Move) []Position {
	piece := board.PieceAt(from)
	if piece == nil {
		return []Position{}
	}
	switch piece.Type {
	case Pawn:
		return pawnDestinations(board, piece, from, history)
	case Knight:
		return stepDestinations(board, piece, from, knightDirs)
	case Bishop:
		return slideDestinations(board, piece, from, bishopDirs)
	case Rook:
		return slideDestinations(board, piece, from, rookDirs)
	case Queen:
		return slideDestinations(board, piece, from, queenDirs)
	case King:
		return append(stepDestinations(board, piece, from, kingDirs), castlingDestinations(board, piece, from)...)
	default:
		return nil
	}
}

func pawnDirection(color Color) int {
	if color == White {
		return 1
	}
	return -1
}

func pawnStartRank(color Color) int {
	if color == White {
		return 1
	}
	return 6
}

func pawnDestinations(board *Board, piece *Piece, from Position, history []Move) []Position {
	moves := []Position{}
	dir := pawnDirection(piece.Color)

	forward := from.offset(0, dir)
	if forward.valid() && board.isEmpty(forward) {
		moves = append(moves, forward)
		double := from.offset(0, 2*dir)
		if from.Rank == pawnStartRank(piece.Color) && double.valid() && board.isEmpty(double) {
			moves = append(moves, double)
		}
	}

	for _, df := range []int{-1, 1} {
		target := from.offset(df, dir)
		if !target.valid() {
			continue
		}
		if occupant := board.PieceAt(target); occupant != nil {
			if occupant.Color != piece.Color {
				moves = append(moves, target)
			}
			continue
		}
		if enPassantAvailable(history, piece, from, df) {
			moves = append(moves, target)
		}
	}
	return moves
}

// enPassantAvailable checks that the previous move was an enemy pawn's double
// advance ending beside the pawn on from, on the file offset df.
func enPassantAvailable(history []Move, piece *Piece, from Position, df int) bool {
	if len(history) == 0 {
		return false
	}
	last := history[len(history)-1]
	return last.Piece.Type == Pawn &&
		last.Piece.Color != piece.Color &&
		abs(last.To.Rank-last.From.Rank) == 2 &&
		last.To.Rank == from.Rank &&
		last.To.File == from.File+df
}

func stepDestinations(board *Board, piece *Piece, from Position, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		target := from.offset(dir.File, dir.Rank)
		if !target.valid() {
			continue
		}
		if occupant := board.PieceAt(target); occupant == nil || occupant.Color != piece.Color {
			moves = append(moves, target)
		}
	}
	return moves
}

func slideDestinations(board *Board, piece *Piece, from Position, dirs []Position) []Position {
	moves := []Position{}
	for _, dir := range dirs {
		target := from.offset(dir.File, dir.Rank)
		for target.valid() {
			if occupant := board.PieceAt(target); occupant != nil {
				if occupant.Color != piece.Color {
					moves = append(moves, target)
				}
				break
			}
			moves = append(moves, target)
			target = target.offset(dir.File, dir.Rank)
		}
	}
	return moves
}

// castlingDestinations only checks that king and rook are unmoved and the
// squares between them are empty. Attacks on the king's path are the legality
// layer's concern.
func castlingDestinations(board *Board, king *Piece, from Position) []Position {
	if king.HasMoved {
		return nil
	}
	moves := []Position{}
	for _, side := range []Castling{Kingside, Queenside} {
		rookFrom, _ := castleRook(side, from.Rank)
		rook := board.PieceAt(rookFrom)
		if rook == nil || rook.Type != Rook || rook.Color != king.Color || rook.HasMoved {
			continue
		}
		if !pathClear(board, from, rookFrom) {
			continue
		}
		step := 2
		if side == Queenside {
			step = -2
		}
		if target := from.offset(step, 0); target.valid() {
			moves = append(moves, target)
		}
	}
	return moves
}

// pathClear reports whether every square strictly between a and b on one rank
// is empty.
func pathClear(board *Board, a, b Position) bool {
	lo, hi := a.File, b.File
	if lo > hi {
		lo, hi = hi, lo
	}
	for file := lo + 1; file < hi; file++ {
		if !board.isEmpty(Position{File: file, Rank: a.Rank}) {
			return false
		}
	}
	return true
}
