package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GameURL builds the websocket address for one game and optional seat.
// base may use http(s) or ws(s); http schemes are mapped to their websocket form.
func GameURL(base, gameID string, playerID *int) (string, error) {
	if gameID == "" {
		return "", fmt.Errorf("game id is required")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	// RawPath keeps a slash inside the id from splitting the path
	prefix := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/game/" + gameID
	u.RawPath = prefix + "/ws/game/" + url.PathEscape(gameID)
	q := url.Values{}
	if playerID != nil {
		q.Set("player_id", strconv.Itoa(*playerID))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
