package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages exchanged over a game socket
type MessageType string

const (
	// client -> server
	MessageTypeSelect  MessageType = "select"
	MessageTypeUndo    MessageType = "undo"
	MessageTypeRestart MessageType = "restart"

	// server -> client
	MessageTypeGameState MessageType = "gameState"
	MessageTypeInfo      MessageType = "info"
	MessageTypeError     MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SelectPayload carries a selection or move intent. Empty strings stand for
// no square.
type SelectPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type TextPayload struct {
	Message string `json:"message"`
}

// NewMessage marshals payload into a message of the given type.
func NewMessage(t MessageType, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw}, nil
}

func NewTextMessage(t MessageType, text string) Message {
	raw, _ := json.Marshal(TextPayload{Message: text})
	return Message{Type: t, Payload: raw}
}
