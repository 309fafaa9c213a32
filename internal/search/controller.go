// Package search owns the per-query session: it drives the streaming
// client and translates its events into state-store mutations.
package search

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"kbsearch/internal/api"
	"kbsearch/internal/state"
	"kbsearch/internal/stream"
)

// Streamer starts one streaming query session. *stream.QueryClient
// implements it.
type Streamer interface {
	Start(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error
}

// Recorder persists completed queries. *history.Store implements it.
type Recorder interface {
	Add(req api.QueryRequest, totalResults int) error
}

// Controller maps query-stream events onto the state store. Each Search
// call opens a new session; a monotonically increasing generation id
// distinguishes sessions, and events carrying a stale id are discarded
// before they can touch the store. That keeps an abandoned in-flight
// stream from interleaving with its successor.
type Controller struct {
	streamer Streamer
	store    *state.Store
	history  Recorder
	log      *zap.Logger
	gen      atomic.Uint64
}

// NewController wires the streaming client to the store. history may be
// nil to skip query recording.
func NewController(streamer Streamer, store *state.Store, history Recorder, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		streamer: streamer,
		store:    store,
		history:  history,
		log:      log,
	}
}

// Search runs one query session end to end: clears any previous error,
// resets the generated text when generation is requested, gates the
// loading flag around the stream, and folds every event into the store.
// A transport failure before streaming surfaces as the store's error; it
// never raises.
func (c *Controller) Search(ctx context.Context, req api.QueryRequest) {
	if strings.TrimSpace(req.Query) == "" {
		c.store.SetError("query must not be empty")
		return
	}
	if req.NResults <= 0 {
		req.NResults = 10
	}

	gen := c.gen.Add(1)

	c.store.ClearError()
	if req.UseLLM {
		c.store.SetLLMResponse(nil)
	}
	c.store.SetLoading(true)

	var answer strings.Builder
	totalResults := 0

	err := c.streamer.Start(ctx, req, func(ev stream.Event) {
		if c.gen.Load() != gen {
			return // a newer session owns the store now
		}
		switch ev := ev.(type) {
		case stream.ResultsEvent:
			c.store.SetResults(ev.Results)
			totalResults = ev.TotalResults
		case stream.ChunkEvent:
			answer.WriteString(ev.Text)
			text := answer.String()
			c.store.SetLLMResponse(&text)
		case stream.ErrorEvent:
			c.store.SetError(ev.Message)
		}
	})

	if c.gen.Load() != gen {
		return
	}
	if err != nil {
		c.log.Warn("query failed", zap.String("query", req.Query), zap.Error(err))
		c.store.SetError(err.Error())
		c.store.SetLoading(false)
		return
	}
	c.store.SetLoading(false)

	if c.history != nil {
		if err := c.history.Add(req, totalResults); err != nil {
			c.log.Warn("record query history", zap.Error(err))
		}
	}
}
