package transport

import (
	"errors"
	"testing"

	"github.com/mcdev12/werewolf/go/internal/models"
)

func TestDispatchRoutesByType(t *testing.T) {
	d := NewDispatcher()
	var got []string
	d.Handle(models.MessageTypeGameState, func(env models.Envelope) error { got = append(got, "state:"+string(env.Data)); return nil })
	d.Handle(models.MessageTypeEvent, func(env models.Envelope) error { got = append(got, "event:"+string(env.Data)); return nil })

	frames := []string{
		`{"type":"game_state","data":{"round":1}}`,
		`{"type":"event","data":{"round":1}}`,
	}
	for _, f := range frames {
		handled, err := d.Dispatch([]byte(f))
		if err != nil {
			t.Fatalf("dispatch %s: %v", f, err)
		}
		if !handled {
			t.Fatalf("expected %s to be handled", f)
		}
	}

	if len(got) != 2 || got[0] != `state:{"round":1}` || got[1] != `event:{"round":1}` {
		t.Fatalf("unexpected handler calls: %v", got)
	}
}

func TestDispatchIgnoresUnknownAndPong(t *testing.T) {
	d := NewDispatcher()

	handled, err := d.Dispatch([]byte(`{"type":"action_submitted","success":true}`))
	if err != nil || handled {
		t.Fatalf("unknown type: handled=%v err=%v", handled, err)
	}

	handled, err = d.Dispatch([]byte(`{"type":"pong"}`))
	if err != nil || !handled {
		t.Fatalf("pong: handled=%v err=%v", handled, err)
	}
}

func TestDispatchRejectsMalformedFrames(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.Handle(models.MessageTypeEvent, func(models.Envelope) error { called = true; return nil })

	for _, f := range []string{`not json`, `{"data":{}}`, `[1,2]`, `{"type":5}`} {
		if _, err := d.Dispatch([]byte(f)); !errors.Is(err, ErrMalformedFrame) {
			t.Fatalf("frame %q: expected ErrMalformedFrame, got %v", f, err)
		}
	}
	if called {
		t.Fatalf("handler must not run for malformed frames")
	}
}

func TestDispatchReportsHandlerErrors(t *testing.T) {
	d := NewDispatcher()
	d.Handle(models.MessageTypeEvent, func(models.Envelope) error { return errors.New("bad round") })

	handled, err := d.Dispatch([]byte(`{"type":"event","data":{"round":"one"}}`))
	if !handled {
		t.Fatalf("expected frame to reach its handler")
	}
	if !errors.Is(err, ErrUndecodablePayload) || errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrUndecodablePayload, got %v", err)
	}
}
