package transport

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mcdev12/werewolf/go/internal/models"
)

// HandlerFunc receives one decoded frame. A non-nil error means the payload
// could not be used and the frame counts as dropped.
type HandlerFunc func(env models.Envelope) error

// Dispatcher routes decoded frames to the handler registered for their type.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[models.MessageType]HandlerFunc
}

// NewDispatcher returns a dispatcher with the pong acknowledgment registered as a no-op
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[models.MessageType]HandlerFunc),
	}
	d.Handle(models.MessageTypePong, func(models.Envelope) error { return nil })
	return d
}

// Handle registers fn for frames tagged t, replacing any previous handler.
func (d *Dispatcher) Handle(t models.MessageType, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[t] = fn
}

// Dispatch decodes one frame and runs its handler. Frames with an unknown type are
// ignored and report handled=false with a nil error. Handler errors are wrapped
// in ErrUndecodablePayload.
func (d *Dispatcher) Dispatch(frame []byte) (handled bool, err error) {
	var env models.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return false, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	d.mu.RLock()
	fn, ok := d.handlers[env.Type]
	d.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := fn(env); err != nil {
		return true, fmt.Errorf("%w: %w", ErrUndecodablePayload, err)
	}
	return true, nil
}
