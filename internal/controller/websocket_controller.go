package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbeisheim/arenachess-backend/internal/model"
	"github.com/benbeisheim/arenachess-backend/internal/service"
	"github.com/benbeisheim/arenachess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
)

type WebSocketController struct {
	gameService *service.GameService
	log         zerolog.Logger
}

func NewWebSocketController(gameService *service.GameService, log zerolog.Logger) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
		log:         log.With().Str("component", "websocket").Logger(),
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID, _ := c.Locals("wsGameID").(string)
	playerID, _ := c.Locals("wsPlayerID").(string)
	log := wsc.log.With().Str("game_id", gameID).Str("player_id", playerID).Logger()

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Warn().Err(err).Msg("failed to register connection")
		c.WriteJSON(ws.NewTextMessage(ws.MessageTypeError, err.Error()))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Msg("connection closed")
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			wsc.gameService.Notify(gameID, playerID, ws.NewTextMessage(ws.MessageTypeError, "malformed message"))
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			wsc.gameService.Notify(gameID, playerID, replyFor(err))
		}
	}
}

// handleMessage dispatches an inbound message. Resulting states reach the
// client through the game broadcast.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	var err error
	switch msg.Type {
	case ws.MessageTypeSelect:
		var payload ws.SelectPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("invalid select payload: %w", err)
		}
		_, err = wsc.gameService.SelectOrMove(gameID, playerID, payload.From, payload.To)
	case ws.MessageTypeUndo:
		_, err = wsc.gameService.Undo(gameID, playerID)
	case ws.MessageTypeRestart:
		_, err = wsc.gameService.Restart(gameID, playerID)
	default:
		err = fmt.Errorf("unknown message type: %s", msg.Type)
	}
	return err
}

// replyFor turns an error into the message sent back. Nothing to undo is an
// expected outcome and is reported as info.
func replyFor(err error) ws.Message {
	switch {
	case errors.Is(err, model.ErrNothingToUndo):
		return ws.NewTextMessage(ws.MessageTypeInfo, "No moves to undo")
	case errors.Is(err, model.ErrNotEnoughToUndo):
		return ws.NewTextMessage(ws.MessageTypeInfo, "Not enough moves to undo")
	case errors.Is(err, service.ErrComputerTurn):
		return ws.NewTextMessage(ws.MessageTypeInfo, "It is the computer's turn")
	default:
		return ws.NewTextMessage(ws.MessageTypeError, err.Error())
	}
}
