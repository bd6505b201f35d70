// Package actions turns user intents into outbound frames.
package actions

import (
	"strings"
	"sync/atomic"

	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Sender writes one message to the game connection, or returns an error when it
// cannot. *transport.Manager satisfies it.
type Sender interface {
	Send(v any) error
}

// Gateway submits intents fire-and-forget: there is no acknowledgement
// correlation, no retry and no buffering. Every method reports whether the
// intent was handed to the transport.
type Gateway struct {
	gameID string
	sender Sender

	dropped atomic.Uint64
}

// NewGateway creates a gateway writing through sender
func NewGateway(gameID string, sender Sender) *Gateway {
	return &Gateway{gameID: gameID, sender: sender}
}

// SubmitAction submits a turn action. targetID is optional.
func (g *Gateway) SubmitAction(actionType string, targetID *int) bool {
	return g.send("submit_action", models.SubmitActionMessage{
		Type:       models.MessageTypeSubmitAction,
		ActionType: actionType,
		TargetID:   targetID,
	})
}

// Speak submits a chat utterance with surrounding whitespace removed. Blank
// utterances are ignored.
func (g *Gateway) Speak(content string) bool {
	content = strings.TrimSpace(content)
	if content == "" {
		return false
	}
	return g.send("speak", models.SpeakMessage{
		Type:    models.MessageTypeSpeak,
		Content: content,
	})
}

// Ping sends a liveness ping.
func (g *Gateway) Ping() bool {
	return g.send("ping", models.NewPingMessage())
}

// Dropped returns how many intents could not be handed to the transport
func (g *Gateway) Dropped() uint64 {
	return g.dropped.Load()
}

func (g *Gateway) send(kind string, msg any) bool {
	if err := g.sender.Send(msg); err != nil {
		g.dropped.Add(1)
		log.Warn().
			Err(err).
			Str("game_id", g.gameID).
			Str("intent", kind).
			Msg("dropping outbound intent")
		return false
	}
	return true
}
