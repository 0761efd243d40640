// Package ws implements the relay side of the pattern protocol.
//
// The package implements:
//   - Hub: tracks connected clients and broadcasts every message to all of them
//   - Handler: upgrades HTTP requests and runs the read/write pumps
//   - Service: connects the hub to metrics, logging and the transcript
//
// Messages are relayed verbatim, including back to the sender. Clients whose
// send queue fills up are dropped. With a positive backlog, recent messages
// are replayed to clients that join later.
package ws
