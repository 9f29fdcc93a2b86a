package service

import (
	"sync"

	"github.com/benbeisheim/arenachess-backend/internal/model"
)

// GameOptions describe a new game. Players and FEN are optional.
type GameOptions struct {
	Mode    model.GameMode `json:"mode"`
	Players []model.Player `json:"players"`
	FEN     string         `json:"fen"`
}

// GameSession is one hosted game: the current immutable state plus the
// bookkeeping around it. The state is replaced wholesale on every transition
// and each replacement bumps version.
type GameSession struct {
	ID      string
	OwnerID string
	Mode    model.GameMode
	Players []model.Player

	mu       sync.Mutex
	start    model.GameState
	state    model.GameState
	version  uint64
	reported bool

	connections *GameConnections
}

// GameSnapshot is what clients see of a session. Version grows with every
// state change; sockets receive snapshots in version order and a snapshot
// older than one already sent is dropped.
type GameSnapshot struct {
	GameID  string          `json:"gameId"`
	Mode    model.GameMode  `json:"mode"`
	Players []model.Player  `json:"players"`
	Version uint64          `json:"version"`
	FEN     string          `json:"fen"`
	State   model.GameState `json:"state"`
}

func newGameSession(id, ownerID string, mode model.GameMode, players []model.Player, start model.GameState) *GameSession {
	return &GameSession{
		ID:          id,
		OwnerID:     ownerID,
		Mode:        mode,
		Players:     players,
		start:       start,
		state:       start,
		connections: NewGameConnections(),
	}
}

// Snapshot returns the current state under the session lock.
func (s *GameSession) Snapshot() GameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *GameSession) snapshot() GameSnapshot {
	return GameSnapshot{
		GameID:  s.ID,
		Mode:    s.Mode,
		Players: s.Players,
		Version: s.version,
		FEN:     s.state.FEN(),
		State:   s.state,
	}
}

func (s *GameSession) isOwner(playerID string) bool {
	return s.OwnerID == playerID
}

// computerColor returns the side played by the computer, if any.
func (s *GameSession) computerColor() (model.Color, bool) {
	if s.Mode != model.ModeComputer {
		return "", false
	}
	for _, p := range s.Players {
		if p.IsComputer {
			return p.Color, true
		}
	}
	return "", false
}

func (s *GameSession) computerToMove() bool {
	color, ok := s.computerColor()
	return ok && !s.state.IsGameOver && s.state.CurrentPlayer == color
}

func (s *GameSession) replace(next model.GameState) {
	s.state = next
	s.version++
}
