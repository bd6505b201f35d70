package models

import (
	"encoding/json"
	"maps"
	"time"
)

// GameStatus is the lifecycle status of a game session.
type GameStatus string

const (
	GameStatusWaiting  GameStatus = "waiting"
	GameStatusRunning  GameStatus = "running"
	GameStatusFinished GameStatus = "finished"
	GameStatusError    GameStatus = "error"
)

// PlayerType is the kind of participant occupying a seat.
type PlayerType string

const (
	PlayerTypeHuman    PlayerType = "human"
	PlayerTypeAIRandom PlayerType = "ai_random"
	PlayerTypeAILLM    PlayerType = "ai_llm"
)

// EventType categorizes a game event.
type EventType string

const (
	EventTypeSpeech      EventType = "speech"
	EventTypePhaseChange EventType = "phase_change"
	EventTypeAction      EventType = "action"
)

// Player is a seat as reported by the server. Role and Faction stay nil until revealed.
type Player struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	IsAlive    bool       `json:"is_alive"`
	PlayerType PlayerType `json:"player_type"`
	Role       *string    `json:"role"`
	Faction    *string    `json:"faction"`
}

// Event is an immutable fact about something that happened in a game.
type Event struct {
	Round       int            `json:"round"`
	Phase       string         `json:"phase"`
	EventType   EventType      `json:"event_type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"` // as emitted, zone is optional
}

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Time parses Timestamp. Timestamps without a zone are read as UTC.
func (e Event) Time() (time.Time, bool) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, e.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clone returns a copy that shares nothing mutable with e at the top level.
func (e Event) Clone() Event {
	e.Details = maps.Clone(e.Details)
	return e
}

// Snapshot is the complete, replace-on-arrival state of a game.
type Snapshot struct {
	GameID         string     `json:"game_id"`
	Status         GameStatus `json:"status"`
	Phase          string     `json:"phase"`
	Round          int        `json:"round"`
	Players        []Player   `json:"players"`
	AliveCount     int        `json:"alive_count"`
	Events         []Event    `json:"events,omitempty"`
	Winner         *string    `json:"winner"`
	CurrentSpeaker *int       `json:"current_speaker"`
	PendingAction  *string    `json:"pending_action"`
}

// Clone deep copies the snapshot so readers can never mutate the held value.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Players != nil {
		out.Players = make([]Player, len(s.Players))
		for i, p := range s.Players {
			p.Role = cloneString(p.Role)
			p.Faction = cloneString(p.Faction)
			out.Players[i] = p
		}
	}
	if s.Events != nil {
		out.Events = make([]Event, len(s.Events))
		for i, e := range s.Events {
			out.Events[i] = e.Clone()
		}
	}
	out.Winner = cloneString(s.Winner)
	out.PendingAction = cloneString(s.PendingAction)
	if s.CurrentSpeaker != nil {
		v := *s.CurrentSpeaker
		out.CurrentSpeaker = &v
	}
	return out
}

// Player looks up a seat by id.
func (s Snapshot) Player(id int) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// GameListItem is one row of the game listing.
type GameListItem struct {
	GameID      string     `json:"game_id"`
	Status      GameStatus `json:"status"`
	Mode        GameMode   `json:"mode"`
	PlayerCount int        `json:"player_count"`
	CreatedAt   string     `json:"created_at"`
}

// GameMode selects who plays.
type GameMode string

const (
	GameModeAIVsAI    GameMode = "ai_vs_ai"
	GameModeHumanVsAI GameMode = "human_vs_ai"
	GameModeSpectate  GameMode = "spectate"
)

// CreateGameRequest is the body of a create-game call.
type CreateGameRequest struct {
	Preset     string   `json:"preset"`
	Mode       GameMode `json:"mode"`
	Seed       *int     `json:"seed,omitempty"`
	AIProvider string   `json:"ai_provider,omitempty"`
	AIModel    string   `json:"ai_model,omitempty"`
	Speed      float64  `json:"speed,omitempty"`
}

// CreateGameResponse is returned by a create-game call.
type CreateGameResponse struct {
	GameID  string `json:"game_id"`
	JoinURL string `json:"join_url"`
}

// JoinGameRequest claims a seat for a human player.
type JoinGameRequest struct {
	PlayerName string `json:"player_name"`
	SeatID     *int   `json:"seat_id,omitempty"`
}

// JoinGameResponse is returned by a join call.
type JoinGameResponse struct {
	SeatID  int    `json:"seat_id"`
	Message string `json:"message"`
}

// MessageResponse is the generic acknowledgement body of lifecycle commands.
type MessageResponse struct {
	Message string `json:"message"`
}

// RawDetails renders event details for storage.
func (e Event) RawDetails() (json.RawMessage, error) {
	if e.Details == nil {
		return json.RawMessage("{}"), nil
	}
	return json.Marshal(e.Details)
}
