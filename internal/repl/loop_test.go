package repl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/remote-agent-terminal/patternrelay/internal/model"
)

// recordingSender stands in for a session and keeps every delivered message.
type recordingSender struct {
	mu          sync.Mutex
	clientID    string
	connected   bool
	sendErr     error
	sent        []model.OutboundMessage
	attempts    int
	disconnects int
}

func newRecordingSender(connected bool) *recordingSender {
	return &recordingSender{clientID: "abc-123", connected: connected}
}

func (r *recordingSender) Send(msgType model.MessageType, content model.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.connected {
		return nil
	}
	r.attempts++
	if r.sendErr != nil {
		return r.sendErr
	}
	r.sent = append(r.sent, model.NewOutboundMessage(msgType, content, r.clientID))
	return nil
}

func (r *recordingSender) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.disconnects++
	r.connected = false
	return nil
}

func (r *recordingSender) encoded(t *testing.T) []string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.sent))
	for _, msg := range r.sent {
		data, err := msg.Encode()
		if err != nil {
			t.Fatalf("failed to encode message: %v", err)
		}
		out = append(out, string(data))
	}
	return out
}

func runLoop(t *testing.T, input string, sender Sender) string {
	t.Helper()
	var out bytes.Buffer
	loop := NewLoop(strings.NewReader(input), &out, sender, zerolog.Nop())
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("loop returned error: %v", err)
	}
	return out.String()
}

func TestLoopScenario(t *testing.T) {
	sender := newRecordingSender(true)
	out := runLoop(t, "setcps 0.5\nplay bd*4 sn\nstop\nquit\n", sender)

	expected := []string{
		`{"type":"setcps","content":{"cps":0.5},"from":"abc-123"}`,
		`{"type":"play","content":{"pattern":"bd*4 sn"},"from":"abc-123"}`,
		`{"type":"stop","content":{},"from":"abc-123"}`,
	}
	got := sender.encoded(t)
	if len(got) != len(expected) {
		t.Fatalf("expected %d messages, got %d: %v", len(expected), len(got), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("message %d: expected %s, got %s", i, expected[i], got[i])
		}
	}

	if sender.disconnects != 1 {
		t.Errorf("expected one disconnect, got %d", sender.disconnects)
	}
	if strings.Count(out, Prompt) != 4 {
		t.Errorf("expected 4 prompts, got output %q", out)
	}
}

func TestLoopTerminatesOnEndOfInput(t *testing.T) {
	sender := newRecordingSender(true)
	runLoop(t, "play bd\n", sender)

	if len(sender.sent) != 1 {
		t.Errorf("expected 1 message, got %d", len(sender.sent))
	}
	if sender.disconnects != 1 {
		t.Errorf("expected one disconnect, got %d", sender.disconnects)
	}
}

func TestLoopQuitIsCaseInsensitive(t *testing.T) {
	sender := newRecordingSender(true)
	runLoop(t, "  QuIt \nplay bd\n", sender)

	if len(sender.sent) != 0 {
		t.Errorf("expected no messages after quit, got %d", len(sender.sent))
	}
	if sender.disconnects != 1 {
		t.Errorf("expected one disconnect, got %d", sender.disconnects)
	}
}

func TestLoopUsageAndUnknown(t *testing.T) {
	sender := newRecordingSender(true)
	out := runLoop(t, "setcps\nplay\n\n   \nfoo bar\nquit now\nstop now please\n", sender)

	if !strings.Contains(out, "Usage: setcps <cps>") {
		t.Errorf("expected setcps usage, got %q", out)
	}
	if !strings.Contains(out, "Usage: play <pattern>") {
		t.Errorf("expected play usage, got %q", out)
	}
	if strings.Count(out, "Unknown command. Type 'quit' to exit.") != 2 {
		t.Errorf("expected two unknown command notices, got %q", out)
	}

	got := sender.encoded(t)
	if len(got) != 1 || got[0] != `{"type":"stop","content":{},"from":"abc-123"}` {
		t.Errorf("expected only a bare stop message, got %v", got)
	}
}

func TestLoopWhileDisconnected(t *testing.T) {
	sender := newRecordingSender(false)
	runLoop(t, "setcps 1\nplay bd\nstop\n", sender)

	if len(sender.sent) != 0 || sender.attempts != 0 {
		t.Errorf("expected nothing sent while disconnected, got %d", len(sender.sent))
	}
	if sender.disconnects != 1 {
		t.Errorf("expected disconnect even when already disconnected, got %d", sender.disconnects)
	}
}

func TestLoopContinuesAfterSendFailure(t *testing.T) {
	sender := newRecordingSender(true)
	sender.sendErr = errors.New("write: broken pipe")
	runLoop(t, "play bd\nstop\nsetcps 2\n", sender)

	if sender.attempts != 3 {
		t.Errorf("expected 3 send attempts, got %d", sender.attempts)
	}
	if sender.disconnects != 1 {
		t.Errorf("expected one disconnect, got %d", sender.disconnects)
	}
}

func TestLoopAcceptsLongLines(t *testing.T) {
	sender := newRecordingSender(true)
	pattern := strings.TrimSpace(strings.Repeat("bd ", 30000))
	runLoop(t, "play "+pattern+"\nstop\nquit\n", sender)

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	if sender.sent[0].Content["pattern"] != pattern {
		t.Error("long pattern was altered")
	}
	if sender.sent[1].Type != model.MessageTypeStop {
		t.Errorf("expected stop after the long line, got %s", sender.sent[1].Type)
	}
}

func TestLoopSkipsOverlongLine(t *testing.T) {
	sender := newRecordingSender(true)
	var out bytes.Buffer
	loop := NewLoop(strings.NewReader("play "+strings.Repeat("x", 64)+"\nplay bd\r\nstop"), &out, sender, zerolog.Nop())
	loop.maxLine = 16

	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out.String(), "Line too long") {
		t.Errorf("expected a line length notice, got %q", out.String())
	}
	got := sender.encoded(t)
	expected := []string{
		`{"type":"play","content":{"pattern":"bd"},"from":"abc-123"}`,
		`{"type":"stop","content":{},"from":"abc-123"}`,
	}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("message %d: expected %s, got %s", i, expected[i], got[i])
		}
	}
	if sender.disconnects != 1 {
		t.Errorf("expected one disconnect, got %d", sender.disconnects)
	}
}

func TestLoopStopsOnCancelledContext(t *testing.T) {
	sender := newRecordingSender(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loop := NewLoop(strings.NewReader("play bd\n"), io.Discard, sender, zerolog.Nop())
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no messages, got %d", len(sender.sent))
	}
	if sender.disconnects != 1 {
		t.Errorf("expected one disconnect, got %d", sender.disconnects)
	}
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out)

	for _, verb := range []string{"setcps <cps>", "play <pattern>", "stop", "quit"} {
		if !strings.Contains(out.String(), verb) {
			t.Errorf("expected banner to mention %q", verb)
		}
	}
}
