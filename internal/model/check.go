package model

import "golang.org/x/exp/slices"

// IsKingInCheck reports whether color's king is attacked. A board without a
// king of that color is never in check.
func IsKingInCheck(board Board, color Color) bool {
	return kingInCheck(&board, color)
}

func kingInCheck(board *Board, color Color) bool {
	king, ok := board.kingPosition(color)
	if !ok {
		return false
	}
	return isSquareAttacked(board, king, color.Opponent())
}

// IsSquareAttacked reports whether any piece of color by attacks pos. Kings
// attack adjacent squares only and pawns attack their forward diagonals
// whether or not they are occupied.
func IsSquareAttacked(board Board, pos Position, by Color) bool {
	return isSquareAttacked(&board, pos, by)
}

func isSquareAttacked(board *Board, pos Position, by Color) bool {
	attacker := func(target Position, types ...PieceType) bool {
		if !target.valid() {
			return false
		}
		piece := board.PieceAt(target)
		return piece != nil && piece.Color == by && slices.Contains(types, piece.Type)
	}

	for _, dir := range rookDirs {
		if attacker(firstOccupied(board, pos, dir), Rook, Queen) {
			return true
		}
	}
	for _, dir := range bishopDirs {
		if attacker(firstOccupied(board, pos, dir), Bishop, Queen) {
			return true
		}
	}
	for _, dir := range knightDirs {
		if attacker(pos.offset(dir.File, dir.Rank), Knight) {
			return true
		}
	}
	for _, dir := range kingDirs {
		if attacker(pos.offset(dir.File, dir.Rank), King) {
			return true
		}
	}
	// a pawn of color by sits one rank behind the square it attacks
	back := -pawnDirection(by)
	return attacker(pos.offset(-1, back), Pawn) || attacker(pos.offset(1, back), Pawn)
}

// firstOccupied walks from pos along dir and returns the first occupied square,
// or an off-board position when the ray is empty.
func firstOccupied(board *Board, pos Position, dir Position) Position {
	target := pos.offset(dir.File, dir.Rank)
	for target.valid() && board.isEmpty(target) {
		target = target.offset(dir.File, dir.Rank)
	}
	return target
}

// SimulateMove plays from->to on a copy of the board, moving only the piece
// itself, and reports whether color's king is safe afterwards. Castling rook
// moves and promotion are not played; an en passant capture lifts the passed
// pawn.
func SimulateMove(from, to Position, board Board, color Color) bool {
	return simulate(&board, from, to, color)
}

func simulate(board *Board, from, to Position, color Color) bool {
	scratch := *board
	piece := scratch.PieceAt(from)
	if piece == nil {
		return false
	}
	if isEnPassant(&scratch, piece, from, to) {
		scratch.put(Position{File: to.File, Rank: from.Rank}, nil)
	}
	scratch.put(to, piece)
	scratch.put(from, nil)
	return !kingInCheck(&scratch, color)
}

// IsLegalMove reports whether from->to is pseudo-legal and does not leave the
// mover's king in check. Castling additionally requires that the king is not
// in check and does not cross an attacked square.
func IsLegalMove(from, to Position, board Board, history []Move) bool {
	return slices.Contains(legalDestinations(&board, from, history), to)
}

// LegalDestinations is ValidDestinations filtered down to legal moves.
func LegalDestinations(from Position, board Board, history []Move) []Position {
	return legalDestinations(&board, from, history)
}

func legalDestinations(board *Board, from Position, history []Move) []Position {
	legal := []Position{}
	piece := board.PieceAt(from)
	if piece == nil {
		return legal
	}
	for _, to := range pseudoDestinations(board, from, history) {
		if !simulate(board, from, to, piece.Color) {
			continue
		}
		if side := castlingSide(piece, from, to); side != NoCastling && !castlingPathSafe(board, from, to, piece.Color) {
			continue
		}
		legal = append(legal, to)
	}
	return legal
}

func castlingPathSafe(board *Board, from, to Position, color Color) bool {
	if kingInCheck(board, color) {
		return false
	}
	step := 1
	if to.File < from.File {
		step = -1
	}
	return !isSquareAttacked(board, from.offset(step, 0), color.Opponent())
}
