package viewapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/mcdev12/werewolf/go/internal/realtime/reconciler"
	"github.com/rs/zerolog/log"
)

// StreamConfig holds configuration for viewer websocket connections
type StreamConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	SendBuffer      int
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultStreamConfig returns default viewer websocket configuration
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		SendBuffer:      256,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// Stream re-broadcasts a reconciler to local websocket viewers using the game
// server's own frame format, so a viewer sees game_state, event and error
// frames exactly as the session did.
type Stream struct {
	rec      *reconciler.Reconciler
	config   StreamConfig
	upgrader websocket.Upgrader

	mu      sync.Mutex
	viewers map[*viewer]struct{}

	detach func()
}

type viewer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	// next is the first event seq this viewer has not been sent
	next int
}

// NewStream creates a stream over rec and starts following it.
func NewStream(rec *reconciler.Reconciler, config StreamConfig) *Stream {
	s := &Stream{
		rec:     rec,
		config:  config,
		viewers: make(map[*viewer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	unsubSnapshots := rec.SubscribeSnapshots(s.broadcastSnapshot)
	unsubEvents := rec.SubscribeEvents(s.broadcastEvent)
	unsubErrors := rec.SubscribeErrors(s.broadcastError)
	s.detach = func() {
		unsubSnapshots()
		unsubEvents()
		unsubErrors()
	}
	return s
}

// Viewers returns the number of connected viewers
func (s *Stream) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

// Close stops following the reconciler and disconnects every viewer.
func (s *Stream) Close() {
	s.detach()

	s.mu.Lock()
	viewers := make([]*viewer, 0, len(s.viewers))
	for v := range s.viewers {
		viewers = append(viewers, v)
	}
	s.mu.Unlock()

	for _, v := range viewers {
		s.unregister(v)
	}
}

// HandleConnection handles GET /ws/view. The viewer first receives the
// current snapshot and the full event log, then live updates.
func (s *Stream) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade viewer connection")
		return
	}

	v := &viewer{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, s.config.SendBuffer),
	}

	// replay and registration happen together so no live frame is missed or repeated
	s.mu.Lock()
	replay, err := s.replay(v)
	if err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Msg("failed to build viewer replay")
		conn.Close()
		return
	}
	s.viewers[v] = struct{}{}
	s.mu.Unlock()

	go s.writePump(v, replay)
	go s.readPump(v)

	log.Info().
		Str("viewer_id", v.id).
		Str("game_id", s.rec.GameID()).
		Msg("viewer connected")
}

// replay renders the current snapshot and the whole log for a new viewer.
func (s *Stream) replay(v *viewer) ([][]byte, error) {
	var frames [][]byte
	if snapshot, ok := s.rec.Snapshot(); ok {
		f, err := frame(models.MessageTypeGameState, snapshot)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	for _, e := range s.rec.Events() {
		f, err := frame(models.MessageTypeEvent, e)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
		v.next++
	}
	return frames, nil
}

func (s *Stream) broadcastSnapshot(snapshot models.Snapshot) {
	s.broadcast(func(v *viewer) bool {
		return s.offer(v, models.MessageTypeGameState, snapshot)
	})
}

func (s *Stream) broadcastEvent(e reconciler.IndexedEvent) {
	s.broadcast(func(v *viewer) bool {
		if e.Seq < v.next {
			return true
		}
		v.next = e.Seq + 1
		return s.offer(v, models.MessageTypeEvent, e.Event)
	})
}

func (s *Stream) broadcastError(message string) {
	payload, err := json.Marshal(models.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	// both shapes: data.message and the top-level message
	data, err := json.Marshal(models.Envelope{Type: models.MessageTypeError, Data: payload, Message: message})
	if err != nil {
		return
	}
	s.broadcast(func(v *viewer) bool {
		return s.push(v, data)
	})
}

// broadcast applies deliver to every viewer, disconnecting the slow ones.
func (s *Stream) broadcast(deliver func(*viewer) bool) {
	var slow []*viewer
	s.mu.Lock()
	for v := range s.viewers {
		if !deliver(v) {
			slow = append(slow, v)
		}
	}
	s.mu.Unlock()

	for _, v := range slow {
		log.Warn().Str("viewer_id", v.id).Msg("viewer send buffer full, closing connection")
		s.unregister(v)
	}
}

func (s *Stream) offer(v *viewer, t models.MessageType, payload any) bool {
	f, err := frame(t, payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal viewer frame")
		return true
	}
	return s.push(v, f)
}

func frame(t models.MessageType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(models.Envelope{Type: t, Data: data})
}

func (s *Stream) push(v *viewer, frame []byte) bool {
	select {
	case v.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Stream) unregister(v *viewer) {
	s.mu.Lock()
	if _, ok := s.viewers[v]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.viewers, v)
	close(v.send)
	s.mu.Unlock()

	v.conn.Close()
	log.Info().Str("viewer_id", v.id).Msg("viewer disconnected")
}

// writePump writes the replay straight to the connection, then live frames.
// A viewer that cannot take the whole replay is disconnected.
func (s *Stream) writePump(v *viewer, replay [][]byte) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.unregister(v)
	}()

	for _, f := range replay {
		_ = v.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := v.conn.WriteMessage(websocket.TextMessage, f); err != nil {
			log.Warn().Err(err).Str("viewer_id", v.id).Int("replay", len(replay)).Msg("failed to replay log to viewer")
			return
		}
	}

	for {
		select {
		case frame, ok := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug().Err(err).Str("viewer_id", v.id).Msg("failed to write to viewer")
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the viewer going away; viewers cannot send.
func (s *Stream) readPump(v *viewer) {
	defer s.unregister(v)

	v.conn.SetReadLimit(s.config.MaxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("viewer_id", v.id).Msg("unexpected viewer close")
			}
			return
		}
		_ = v.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}
}
