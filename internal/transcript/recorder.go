// Package transcript records relayed messages in a JSON-lines file.
//
// The first line is a Header; every following line is an Event encoded as a
// three element array: [offset_seconds, kind, data].
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const Version = 1

// Event kinds.
const (
	KindMessage = "m"
	KindJoin    = "j"
	KindLeave   = "l"
)

// Header is the first line of a transcript.
type Header struct {
	Version   int    `json:"version"`
	Timestamp int64  `json:"timestamp"`
	Relay     string `json:"relay,omitempty"`
}

// Event is one recorded line.
type Event struct {
	Offset float64
	Kind   string
	Data   string
}

// MarshalJSON encodes the event as [offset, kind, data].
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Offset, e.Kind, e.Data})
}

// UnmarshalJSON decodes the array form written by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var arr []interface{}
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("invalid event format: expected 3 elements, got %d", len(arr))
	}

	offset, ok := arr[0].(float64)
	if !ok {
		return fmt.Errorf("invalid offset type")
	}
	kind, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid event kind")
	}
	eventData, ok := arr[2].(string)
	if !ok {
		return fmt.Errorf("invalid event data type")
	}

	e.Offset = offset
	e.Kind = kind
	e.Data = eventData
	return nil
}

// Recorder appends events to a transcript.
type Recorder struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	mu        sync.Mutex
}

// Open creates a recorder writing to path, appending if the file exists.
func Open(path string) (*Recorder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}

	return &Recorder{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}, nil
}

// NewRecorder creates a recorder over w. The caller keeps ownership of w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{
		writer:    w,
		startTime: time.Now(),
	}
}

// WriteHeader writes the header line. Call it once before any event.
func (r *Recorder) WriteHeader(relay string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	header := Header{
		Version:   Version,
		Timestamp: r.startTime.Unix(),
		Relay:     relay,
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// RecordMessage records one relayed payload.
func (r *Recorder) RecordMessage(data []byte) error {
	return r.writeEvent(KindMessage, string(data))
}

// RecordJoin records a client connecting from addr.
func (r *Recorder) RecordJoin(addr string) error {
	return r.writeEvent(KindJoin, addr)
}

// RecordLeave records a client disconnecting from addr.
func (r *Recorder) RecordLeave(addr string) error {
	return r.writeEvent(KindLeave, addr)
}

func (r *Recorder) writeEvent(kind, data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event := Event{
		Offset: time.Since(r.startTime).Seconds(),
		Kind:   kind,
		Data:   data,
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := r.writer.Write(append(eventData, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Close closes the file if the recorder opened it.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
