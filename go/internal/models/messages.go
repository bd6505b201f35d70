package models

import "encoding/json"

// MessageType tags a websocket frame in either direction.
type MessageType string

// Inbound
const (
	MessageTypeGameState MessageType = "game_state"
	MessageTypeEvent     MessageType = "event"
	MessageTypeError     MessageType = "error"
	MessageTypePong      MessageType = "pong"
)

// Outbound
const (
	MessageTypePing         MessageType = "ping"
	MessageTypeSubmitAction MessageType = "submit_action"
	MessageTypeSpeak        MessageType = "speak"
)

// Envelope is the wire shape of every inbound frame. Some servers put the text
// of an error frame in Message instead of Data.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ErrorPayload is the data of an error frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

// PingMessage is the liveness ping.
type PingMessage struct {
	Type MessageType `json:"type"`
}

// SubmitActionMessage submits a turn action, optionally against a target seat.
type SubmitActionMessage struct {
	Type       MessageType `json:"type"`
	ActionType string      `json:"action_type"`
	TargetID   *int        `json:"target_id,omitempty"`
}

// SpeakMessage submits a chat utterance.
type SpeakMessage struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

func NewPingMessage() PingMessage {
	return PingMessage{Type: MessageTypePing}
}
