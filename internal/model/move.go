package model

type Castling string

const (
	NoCastling Castling = ""
	Kingside   Castling = "kingside"
	Queenside  Castling = "queenside"
)

// Move is one entry of the game history. Piece and Captured are snapshots
// taken before the move was applied.
type Move struct {
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Piece     Piece     `json:"piece"`
	Captured  *Piece    `json:"captured,omitempty"`
	Promotion PieceType `json:"promotion,omitempty"`
	Castling  Castling  `json:"castling,omitempty"`
	EnPassant bool      `json:"enPassant,omitempty"`
}

type SimpleMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// castleRook returns the rook relocation that accompanies a castling king move.
func castleRook(side Castling, rank int) (from, to Position) {
	if side == Kingside {
		return Position{File: 7, Rank: rank}, Position{File: 5, Rank: rank}
	}
	return Position{File: 0, Rank: rank}, Position{File: 3, Rank: rank}
}

func castlingSide(piece *Piece, from, to Position) Castling {
	if piece.Type != King || abs(to.File-from.File) <= 1 {
		return NoCastling
	}
	if to.File > from.File {
		return Kingside
	}
	return Queenside
}

// isEnPassant reports a pawn moving diagonally onto an empty square.
func isEnPassant(board *Board, piece *Piece, from, to Position) bool {
	return piece.Type == Pawn && from.File != to.File && board.isEmpty(to)
}

func promotionRank(color Color) int {
	if color == White {
		return 7
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
