package model

import "errors"

var (
	// ErrConnectionFailure is returned when the relay connection cannot be established.
	ErrConnectionFailure = errors.New("connection failure")

	// ErrSendFailure is returned when an outbound message cannot be encoded or written.
	ErrSendFailure = errors.New("send failure")

	// ErrSessionClosed is returned when a session that already connected once is
	// asked to connect again.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)
