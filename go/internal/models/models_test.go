package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-01T12:30:00Z", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), true},
		{"2024-03-01T12:30:00.123456", time.Date(2024, 3, 1, 12, 30, 0, 123456000, time.UTC), true},
		{"2024-03-01T12:30:00", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), true},
		{"2024-03-01 12:30:00", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := Event{Timestamp: tc.in}.Time()
		if ok != tc.ok || !got.Equal(tc.want) {
			t.Errorf("Time(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSnapshotCloneIsDeep(t *testing.T) {
	role := "seer"
	speaker := 2
	s := Snapshot{
		GameID:         "g1",
		Players:        []Player{{ID: 1, Role: &role}},
		Events:         []Event{{Description: "x", Details: map[string]any{"k": 1}}},
		CurrentSpeaker: &speaker,
	}

	c := s.Clone()
	*c.Players[0].Role = "werewolf"
	c.Players[0].Name = "changed"
	c.Events[0].Details["k"] = 2
	*c.CurrentSpeaker = 5

	if role != "seer" || s.Players[0].Name != "" {
		t.Fatalf("clone shares player data")
	}
	if s.Events[0].Details["k"] != 1 {
		t.Fatalf("clone shares event details")
	}
	if speaker != 2 {
		t.Fatalf("clone shares current speaker")
	}
}

func TestSnapshotPlayer(t *testing.T) {
	s := Snapshot{Players: []Player{{ID: 1, Name: "Alice"}, {ID: 4, Name: "Dan"}}}
	if p, ok := s.Player(4); !ok || p.Name != "Dan" {
		t.Fatalf("expected Dan, got %+v %v", p, ok)
	}
	if _, ok := s.Player(9); ok {
		t.Fatalf("expected missing seat")
	}
}

func TestSnapshotDecodesNulls(t *testing.T) {
	raw := `{"game_id":"g1","status":"running","phase":"night","round":1,
		"players":[{"id":1,"name":"A","is_alive":true,"player_type":"ai_llm","role":null,"faction":null}],
		"alive_count":1,"winner":null,"current_speaker":null,"pending_action":null}`

	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Status != GameStatusRunning || s.Winner != nil || s.CurrentSpeaker != nil || s.Players[0].Role != nil {
		t.Fatalf("unexpected snapshot %+v", s)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		JobStatusRunning:   false,
		JobStatusCompleted: true,
		JobStatusError:     true,
		JobStatusCancelled: true,
		"":                 false,
	} {
		if got := status.Terminal(); got != want {
			t.Errorf("%q.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestBenchmarkProgress(t *testing.T) {
	if p := (Benchmark{TotalGames: 4, CompletedGames: 1}).Progress(); p != 0.25 {
		t.Fatalf("expected 0.25, got %v", p)
	}
	if p := (Benchmark{}).Progress(); p != 0 {
		t.Fatalf("expected 0 for empty benchmark, got %v", p)
	}
	if p := (Benchmark{TotalGames: 2, CompletedGames: 3}).Progress(); p != 1 {
		t.Fatalf("expected progress capped at 1, got %v", p)
	}
}

func TestRawDetails(t *testing.T) {
	raw, err := Event{}.RawDetails()
	if err != nil || string(raw) != "{}" {
		t.Fatalf("expected empty object, got %s (%v)", raw, err)
	}
	raw, _ = Event{Details: map[string]any{"target": 3}}.RawDetails()
	if string(raw) != `{"target":3}` {
		t.Fatalf("unexpected details %s", raw)
	}
}
