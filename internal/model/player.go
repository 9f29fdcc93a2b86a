package model

type Player struct {
	Name       string `json:"name"`
	Color      Color  `json:"color"`
	IsComputer bool   `json:"isComputer"`
}

type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Draw Outcome = "draw"
)

// OutcomeFor reports the result for color once the game is over.
func (gs GameState) OutcomeFor(color Color) (Outcome, bool) {
	switch {
	case !gs.IsGameOver:
		return "", false
	case gs.Stalemate:
		return Draw, true
	case gs.Winner != nil && *gs.Winner == color:
		return Win, true
	default:
		return Loss, true
	}
}
