package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	lwerrors "github.com/leadwise/leadwise/internal/errors"
)

// Decoder turns an incrementally-delivered event-stream body into a
// sequence of decoded events. Blocks are delimited by a blank line; each
// block's "data:" lines are concatenated and parsed as JSON. A block
// that yields no data lines or invalid JSON produces no event.
//
// The sequence of events is independent of how the underlying reader
// splits the bytes. A Decoder is single-use and not safe for concurrent
// callers.
type Decoder struct {
	scanner   *bufio.Scanner
	dataLines []string
	eof       bool
}

const maxEventSize = 8 << 20

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxEventSize)
	return &Decoder{
		scanner:   scanner,
		dataLines: make([]string, 0, 1),
	}
}

// Next returns the next decoded event. It returns io.EOF once the source
// is exhausted, and a transport error if the underlying read fails.
// Malformed blocks are skipped, never returned as errors.
func (d *Decoder) Next() (Event, error) {
	if d.eof {
		return Event{}, io.EOF
	}

	for d.scanner.Scan() {
		line := strings.TrimRight(d.scanner.Text(), "\r")
		if line == "" {
			if evt, ok := d.flush(); ok {
				return evt, nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimPrefix(line, "data:")
			if strings.HasPrefix(payload, " ") {
				payload = payload[1:]
			}
			d.dataLines = append(d.dataLines, payload)
		}
	}

	d.eof = true
	if err := d.scanner.Err(); err != nil {
		if lwerrors.IsCancellation(err) {
			return Event{}, fmt.Errorf("stream read aborted: %w", lwerrors.ErrCancelled)
		}
		return Event{}, fmt.Errorf("stream read failed: %v: %w", err, lwerrors.ErrTransport)
	}

	// Flush a trailing block that was not closed by a blank line.
	if evt, ok := d.flush(); ok {
		return evt, nil
	}
	return Event{}, io.EOF
}

// flush parses the buffered block. The second return value is false when
// the block produced no event.
func (d *Decoder) flush() (Event, bool) {
	if len(d.dataLines) == 0 {
		return Event{}, false
	}

	data := strings.Join(d.dataLines, "\n")
	d.dataLines = d.dataLines[:0]

	if strings.TrimSpace(data) == "" {
		return Event{}, false
	}

	var evt Event
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		slog.Debug("Dropping malformed stream block", "error", err)
		return Event{}, false
	}
	return evt, true
}
