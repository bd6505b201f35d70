package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// gameServer is a websocket endpoint that hands each accepted connection to serve
// along with its 1-based connection number.
type gameServer struct {
	*httptest.Server

	mu       sync.Mutex
	conns    int
	received [][]byte
	serve    func(conn *websocket.Conn, n int)
}

func newGameServer(t *testing.T, serve func(conn *websocket.Conn, n int)) *gameServer {
	t.Helper()

	gs := &gameServer{serve: serve}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		gs.mu.Lock()
		gs.conns++
		n := gs.conns
		gs.mu.Unlock()

		if gs.serve != nil {
			gs.serve(conn, n)
		}
	}))
	t.Cleanup(gs.Close)
	return gs
}

func (gs *gameServer) wsURL() string {
	return "ws" + strings.TrimPrefix(gs.URL, "http") + "/ws/game/g1"
}

func (gs *gameServer) connections() int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.conns
}

func (gs *gameServer) record(msg []byte) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.received = append(gs.received, msg)
}

func (gs *gameServer) messages() []string {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	out := make([]string, len(gs.received))
	for i, m := range gs.received {
		out[i] = string(m)
	}
	return out
}

// readAll records inbound frames until the connection fails.
func (gs *gameServer) readAll(conn *websocket.Conn) {
	defer conn.Close()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		gs.record(msg)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ReconnectDelay = 20 * time.Millisecond
	cfg.HandshakeTimeout = time.Second
	return cfg
}
