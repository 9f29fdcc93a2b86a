package service

import (
	"fmt"

	"github.com/benbeisheim/arenachess-backend/internal/model"
	"github.com/benbeisheim/arenachess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame(ownerID string, opts GameOptions) (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID, ownerID, opts); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) GetGameState(gameID string) (GameSnapshot, error) {
	return gs.gameManager.GetGameState(gameID)
}

// SelectOrMove takes squares in algebraic notation; an empty string means no
// square.
func (gs *GameService) SelectOrMove(gameID, playerID, from, to string) (GameSnapshot, error) {
	fromPos, err := parseSquare(from)
	if err != nil {
		return GameSnapshot{}, err
	}
	toPos, err := parseSquare(to)
	if err != nil {
		return GameSnapshot{}, err
	}
	return gs.gameManager.SelectOrMove(gameID, playerID, fromPos, toPos)
}

func (gs *GameService) LegalMoves(gameID, square string) ([]model.Position, error) {
	pos, err := parseSquare(square)
	if err != nil {
		return nil, err
	}
	if pos == nil {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSquare)
	}
	return gs.gameManager.LegalMoves(gameID, *pos)
}

func (gs *GameService) Undo(gameID, playerID string) (GameSnapshot, error) {
	return gs.gameManager.Undo(gameID, playerID)
}

func (gs *GameService) Restart(gameID, playerID string) (GameSnapshot, error) {
	return gs.gameManager.Restart(gameID, playerID)
}

func (gs *GameService) RegisterConnection(gameID, playerID string, conn *websocket.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID, playerID string, conn *websocket.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) Notify(gameID, playerID string, msg ws.Message) {
	gs.gameManager.Notify(gameID, playerID, msg)
}

func parseSquare(square string) (*model.Position, error) {
	if square == "" {
		return nil, nil
	}
	pos, err := model.ParsePosition(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSquare, square)
	}
	return &pos, nil
}
