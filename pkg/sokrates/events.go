// Package sokrates submits text to the Sokrates grading service and decodes
// its server-sent event stream.
package sokrates

import (
	"bufio"
	"io"
	"strings"
)

const (
	EventProgress = "progressEvent"
	EventFeedback = "feedbackEvent"
)

// Event is one server-sent event. Both fields are always non-empty.
type Event struct {
	Type string `json:"event_type"`
	Data string `json:"event_data"`
}

// ParseEvents parses a complete SSE payload. Blocks are separated by blank
// lines; blocks missing either an event or a data line are skipped. A later
// data line in the same block replaces an earlier one.
func ParseEvents(raw string) []Event {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var events []Event
	for _, block := range strings.Split(raw, "\n\n") {
		var b blockState
		for _, line := range strings.Split(block, "\n") {
			b.line(line)
		}
		if ev, ok := b.event(); ok {
			events = append(events, ev)
		}
	}
	return events
}

type blockState struct {
	eventType string
	data      string
}

func (b *blockState) line(line string) {
	switch {
	case strings.HasPrefix(line, "event:"):
		b.eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
	case strings.HasPrefix(line, "data:"):
		b.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	}
}

func (b *blockState) event() (Event, bool) {
	if b.eventType == "" || b.data == "" {
		return Event{}, false
	}
	return Event{Type: b.eventType, Data: b.data}, true
}

const maxLineSize = 1 << 20

// Decoder reads events from a stream as they arrive. Each complete event is
// returned exactly once.
type Decoder struct {
	scanner *bufio.Scanner
	done    bool
}

func NewDecoder(r io.Reader) *Decoder {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: s}
}

// Next returns the next complete event. It returns io.EOF once the stream is
// exhausted; a trailing block without a terminating blank line still counts.
func (d *Decoder) Next() (Event, error) {
	if d.done {
		return Event{}, io.EOF
	}

	var b blockState
	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")
		if line == "" {
			if ev, ok := b.event(); ok {
				return ev, nil
			}
			b = blockState{}
			continue
		}
		b.line(line)
	}

	d.done = true
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	if ev, ok := b.event(); ok {
		return ev, nil
	}
	return Event{}, io.EOF
}
