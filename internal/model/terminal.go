package model

// HasLegalMove reports whether color has at least one legal move.
func HasLegalMove(board Board, color Color, history []Move) bool {
	return hasLegalMove(&board, color, history)
}

func hasLegalMove(board *Board, color Color, history []Move) bool {
	for _, cell := range board.cells {
		if cell.Piece == nil || cell.Piece.Color != color {
			continue
		}
		if len(legalDestinations(board, cell.Position, history)) > 0 {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether color is in check with no legal move.
func IsCheckmate(board Board, color Color, history []Move) bool {
	return kingInCheck(&board, color) && !hasLegalMove(&board, color, history)
}

// IsStalemate reports whether color is not in check but has no legal move.
func IsStalemate(board Board, color Color, history []Move) bool {
	return !kingInCheck(&board, color) && !hasLegalMove(&board, color, history)
}
