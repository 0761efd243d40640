// Package session implements the client side of the relay connection.
//
// A Session owns exactly one WebSocket connection and a client identifier
// generated once per process. The transport reports open, error and close
// through an event channel drained by a single dispatcher goroutine, which
// logs each event and clears the connectivity state on close.
//
// Sends while disconnected are silently dropped. A server-initiated close is
// only visible through the log; callers are not notified.
package session
