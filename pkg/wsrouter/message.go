package wsrouter

import (
	"encoding/json"
	"fmt"
)

// Message is the envelope of every frame exchanged over a connection and of
// every rpc request.
type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewMessage(messageType, id string, payload any) (Message, error) {
	msg := Message{Type: messageType, ID: id}
	if payload == nil {
		return msg, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s payload: %w", messageType, err)
	}
	msg.Payload = b

	return msg, nil
}
