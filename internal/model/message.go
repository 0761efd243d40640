// Package model defines the wire messages and sentinel errors shared by the
// client and the relay.
package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MessageType represents the type of an outbound message.
type MessageType string

const (
	MessageTypeSetCPS MessageType = "setcps"
	MessageTypePlay   MessageType = "play"
	MessageTypeStop   MessageType = "stop"
)

// Content is the command-specific payload nested inside a message.
type Content map[string]any

// OutboundMessage is the JSON object sent for every operator command.
type OutboundMessage struct {
	Type    MessageType `json:"type"`
	Content Content     `json:"content"`
	From    string      `json:"from"`
}

// NewOutboundMessage builds a message for the given sender. A nil content is
// replaced by an empty object so it never encodes as null.
func NewOutboundMessage(msgType MessageType, content Content, from string) OutboundMessage {
	if content == nil {
		content = Content{}
	}
	return OutboundMessage{
		Type:    msgType,
		Content: content,
		From:    from,
	}
}

// Encode serializes the message to JSON.
func (m OutboundMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// SetCPSContent returns the payload for a setcps command.
func SetCPSContent(cps float64) Content {
	return Content{"cps": cps}
}

// PlayContent returns the payload for a play command.
func PlayContent(pattern string) Content {
	return Content{"pattern": pattern}
}

// StopContent returns the payload for a stop command.
func StopContent() Content {
	return Content{}
}

// String renders content as key=value pairs in key order, for log lines.
func (c Content) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, c[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Envelope is the subset of a relayed message the server inspects.
type Envelope struct {
	Type MessageType `json:"type"`
	From string      `json:"from"`
}

// PeekEnvelope decodes the type and sender of a relayed payload. Payloads that
// are not JSON objects yield an empty envelope and an error.
func PeekEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
