package stream

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

const (
	separator  = "\n\n"
	dataPrefix = "data: "
)

// Frame is one reassembled record of the response stream: a type tag plus
// a raw JSON payload. Frames exist only between the decoder and event
// promotion.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decoder reassembles blank-line-delimited records from the raw chunks of
// a streaming response body. A Decoder carries per-session state; every
// streaming session needs a fresh one, and a single Decoder must never be
// shared across concurrent sessions.
//
// Text left in the buffer when the stream ends without a trailing
// separator is discarded, never flushed. A server that fails to terminate
// its last record loses that record.
type Decoder struct {
	buf string
	log *zap.Logger
}

// NewDecoder creates a decoder for one streaming session.
func NewDecoder(log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{log: log}
}

// Feed appends a chunk to the carry-over buffer and returns every frame
// the chunk completed, in stream order. The trailing segment (everything
// after the last separator, possibly empty) becomes the new buffer.
//
// A record whose data line fails to parse is logged and dropped; the
// decoder itself never fails. Record text outside the data line is
// ignored.
func (d *Decoder) Feed(chunk []byte) []Frame {
	d.buf += string(chunk)

	segments := strings.Split(d.buf, separator)
	d.buf = segments[len(segments)-1]

	var frames []Frame
	for _, segment := range segments[:len(segments)-1] {
		payload, ok := dataLine(segment)
		if !ok {
			continue
		}

		var frame Frame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			d.log.Warn("dropping malformed frame",
				zap.Error(err),
				zap.String("data", truncate(payload, 200)))
			continue
		}
		frames = append(frames, frame)
	}
	return frames
}

// dataLine extracts the payload of the first "data: " line in a record.
func dataLine(segment string) (string, bool) {
	for _, line := range strings.Split(segment, "\n") {
		if strings.HasPrefix(line, dataPrefix) {
			return line[len(dataPrefix):], true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
