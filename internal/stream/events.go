package stream

import (
	"encoding/json"

	"go.uber.org/zap"

	"kbsearch/internal/api"
)

// Event is a validated, typed frame delivered to the query handler.
// Events arrive in exactly the order their frames completed on the wire.
type Event interface {
	queryEvent() // marker method
}

// ResultsEvent carries the full ranked result set for the query. The
// server sends it once, before any generated text.
type ResultsEvent struct {
	Results      []api.ResultItem
	TotalResults int
}

func (ResultsEvent) queryEvent() {}

// ChunkEvent carries one fragment of the generated answer, to be appended
// in arrival order.
type ChunkEvent struct {
	Text string
}

func (ChunkEvent) queryEvent() {}

// ErrorEvent carries a server-side diagnostic. It does not terminate the
// stream; the server controls termination.
type ErrorEvent struct {
	Message string
}

func (ErrorEvent) queryEvent() {}

// promote validates a frame into an event. Unknown types (the server also
// emits "done", which the protocol treats as implicit in stream end) are
// ignored for forward compatibility; a payload that fails to parse is a
// decode error, logged and dropped like a malformed frame.
func promote(f Frame, log *zap.Logger) Event {
	switch f.Type {
	case "results":
		var payload struct {
			Results      []api.ResultItem `json:"results"`
			TotalResults int              `json:"total_results"`
		}
		if err := json.Unmarshal(f.Payload, &payload); err != nil {
			log.Warn("dropping results frame with bad payload", zap.Error(err))
			return nil
		}
		return ResultsEvent{Results: payload.Results, TotalResults: payload.TotalResults}

	case "chunk":
		var text string
		if err := json.Unmarshal(f.Payload, &text); err != nil {
			log.Warn("dropping chunk frame with bad payload", zap.Error(err))
			return nil
		}
		return ChunkEvent{Text: text}

	case "error":
		var message string
		if err := json.Unmarshal(f.Payload, &message); err != nil {
			log.Warn("dropping error frame with bad payload", zap.Error(err))
			return nil
		}
		return ErrorEvent{Message: message}
	}
	return nil
}
