package channel

import "errors"

// Channel errors.
var (
	// ErrDisconnected is returned by reads and writes on a channel
	// with no server connection.
	ErrDisconnected = errors.New("channel disconnected")

	// ErrChannelClosed is returned by operations on a torn-down
	// channel.
	ErrChannelClosed = errors.New("channel closed")

	// ErrConnectTimeout is returned by WaitForConnection when the
	// timeout elapses first.
	ErrConnectTimeout = errors.New("connection timeout")

	// ErrWriteTimeout is returned by a waiting write the server did not
	// acknowledge in time. The server may still process it.
	ErrWriteTimeout = errors.New("write timeout")
)
