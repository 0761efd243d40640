package model

import (
	"testing"
)

// TestOutboundMessageEncoding checks the exact wire form of each command.
func TestOutboundMessageEncoding(t *testing.T) {
	tests := []struct {
		name string
		msg  OutboundMessage
		want string
	}{
		{
			name: "setcps",
			msg:  NewOutboundMessage(MessageTypeSetCPS, SetCPSContent(0.5), "abc-123"),
			want: `{"type":"setcps","content":{"cps":0.5},"from":"abc-123"}`,
		},
		{
			name: "play keeps internal spaces",
			msg:  NewOutboundMessage(MessageTypePlay, PlayContent("bd*4 sn"), "abc-123"),
			want: `{"type":"play","content":{"pattern":"bd*4 sn"},"from":"abc-123"}`,
		},
		{
			name: "stop",
			msg:  NewOutboundMessage(MessageTypeStop, StopContent(), "abc-123"),
			want: `{"type":"stop","content":{},"from":"abc-123"}`,
		},
		{
			name: "nil content encodes as empty object",
			msg:  NewOutboundMessage(MessageTypeStop, nil, "abc-123"),
			want: `{"type":"stop","content":{},"from":"abc-123"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.msg.Encode()
			if err != nil {
				t.Fatalf("failed to encode message: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, data)
			}
		})
	}
}

func TestOutboundMessageEncodeFailure(t *testing.T) {
	msg := NewOutboundMessage(MessageTypePlay, Content{"bad": make(chan int)}, "abc-123")
	if _, err := msg.Encode(); err == nil {
		t.Error("expected encoding error for unsupported content value")
	}
}

func TestContentString(t *testing.T) {
	c := Content{"pattern": "bd sn", "cps": 1.5}
	if got := c.String(); got != "{cps=1.5 pattern=bd sn}" {
		t.Errorf("unexpected content string: %s", got)
	}
	if got := StopContent().String(); got != "{}" {
		t.Errorf("expected {}, got %s", got)
	}
}

func TestPeekEnvelope(t *testing.T) {
	env, err := PeekEnvelope([]byte(`{"type":"play","content":{"pattern":"bd"},"from":"x"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Type != MessageTypePlay || env.From != "x" {
		t.Errorf("unexpected envelope: %+v", env)
	}

	if _, err := PeekEnvelope([]byte("not json")); err == nil {
		t.Error("expected error for non-JSON payload")
	}
}
