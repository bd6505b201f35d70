package transport

import "errors"

var (
	// ErrNotOpen is returned by Send when the connection is not open. The message is dropped.
	ErrNotOpen = errors.New("connection not open")

	// ErrDisposed is returned by Send after Dispose.
	ErrDisposed = errors.New("connection manager disposed")

	// ErrMalformedFrame is returned by Dispatch for frames that fail envelope decoding.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrUndecodablePayload is returned by Dispatch when a handler rejects the frame's data.
	ErrUndecodablePayload = errors.New("undecodable payload")
)
