package transport

import (
	"net/http"
	"time"
)

// Config holds the connection policy. Reconnects always wait ReconnectDelay and
// never give up until the manager is disposed.
type Config struct {
	ReconnectDelay   time.Duration
	PingInterval     time.Duration
	ReadTimeout      time.Duration // zero disables the read deadline
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
	ReadBufferSize   int
	WriteBufferSize  int
	Header           http.Header
}

// DefaultConfig returns the default connection policy
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:   3 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		MaxMessageSize:   1 << 20, // snapshots carry the full embedded history
		ReadBufferSize:   4096,
		WriteBufferSize:  1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	return c
}
