package model

import "math/rand"

var pieceValues = map[PieceType]float64{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
}

const (
	centerBonus     = 0.5
	selectionMargin = 0.5
)

type scoredMove struct {
	move  SimpleMove
	score float64
}

// SelectMove picks the computer's reply: every legal move is scored by the
// value of the piece it captures, plus a small bonus for a pawn or knight
// entering the centre, and one of the moves within selectionMargin of the best
// score is chosen at random. ok is false when color has no legal move.
func SelectMove(board Board, color Color, history []Move, rng *rand.Rand) (SimpleMove, bool) {
	candidates := []scoredMove{}
	best := 0.0
	for _, cell := range board.cells {
		piece := cell.Piece
		if piece == nil || piece.Color != color {
			continue
		}
		for _, to := range legalDestinations(&board, cell.Position, history) {
			score := moveScore(&board, piece, to)
			if len(candidates) == 0 || score > best {
				best = score
			}
			candidates = append(candidates, scoredMove{move: SimpleMove{From: cell.Position, To: to}, score: score})
		}
	}
	if len(candidates) == 0 {
		return SimpleMove{}, false
	}

	top := candidates[:0:0]
	for _, c := range candidates {
		if c.score >= best-selectionMargin {
			top = append(top, c)
		}
	}
	return top[rng.Intn(len(top))].move, true
}

func moveScore(board *Board, mover *Piece, to Position) float64 {
	score := 0.0
	if target := board.PieceAt(to); target != nil {
		score += pieceValues[target.Type]
	}
	if (mover.Type == Pawn || mover.Type == Knight) && inCenter(to) {
		score += centerBonus
	}
	return score
}

// inCenter covers files c-f and ranks 3-6.
func inCenter(p Position) bool {
	return p.File >= 2 && p.File <= 5 && p.Rank >= 2 && p.Rank <= 5
}
