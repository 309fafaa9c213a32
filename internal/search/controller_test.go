package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kbsearch/internal/api"
	"kbsearch/internal/state"
	"kbsearch/internal/stream"
)

// streamerFunc adapts a function to the Streamer interface.
type streamerFunc func(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error

func (f streamerFunc) Start(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error {
	return f(ctx, req, onEvent)
}

type recordedQuery struct {
	req   api.QueryRequest
	total int
}

type fakeRecorder struct {
	entries []recordedQuery
}

func (r *fakeRecorder) Add(req api.QueryRequest, totalResults int) error {
	r.entries = append(r.entries, recordedQuery{req: req, total: totalResults})
	return nil
}

func eventStreamer(events ...stream.Event) streamerFunc {
	return func(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error {
		for _, ev := range events {
			onEvent(ev)
		}
		return nil
	}
}

func TestSearchAccumulatesChunks(t *testing.T) {
	store := state.NewStore()
	c := NewController(eventStreamer(
		stream.ChunkEvent{Text: "Hel"},
		stream.ChunkEvent{Text: "lo, "},
		stream.ChunkEvent{Text: "world"},
	), store, nil, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "greeting", UseLLM: true})

	st := store.Get()
	require.NotNil(t, st.LLMResponse)
	assert.Equal(t, "Hello, world", *st.LLMResponse)
	assert.False(t, st.Loading)
	assert.Nil(t, st.Error)
}

func TestSearchResetsAnswerBeforeFirstChunk(t *testing.T) {
	store := state.NewStore()
	stale := "stale answer"
	store.SetLLMResponse(&stale)

	var answerAtFirstChunk *string
	streamer := streamerFunc(func(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error {
		answerAtFirstChunk = store.Get().LLMResponse
		onEvent(stream.ChunkEvent{Text: "fresh"})
		return nil
	})
	c := NewController(streamer, store, nil, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "q", UseLLM: true})

	assert.Nil(t, answerAtFirstChunk, "previous answer must be unset before the new stream")
	require.NotNil(t, store.Get().LLMResponse)
	assert.Equal(t, "fresh", *store.Get().LLMResponse)
}

func TestSearchStoresResultsAndRecordsHistory(t *testing.T) {
	store := state.NewStore()
	recorder := &fakeRecorder{}

	results := []api.ResultItem{{Rank: 1, Title: "first"}, {Rank: 2, Title: "second"}}
	c := NewController(eventStreamer(
		stream.ResultsEvent{Results: results, TotalResults: 2},
	), store, recorder, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "notes", NResults: 5})

	st := store.Get()
	require.Len(t, st.Results, 2)
	assert.Equal(t, "first", st.Results[0].Title)

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "notes", recorder.entries[0].req.Query)
	assert.Equal(t, 2, recorder.entries[0].total)
}

func TestSearchTransportFailure(t *testing.T) {
	store := state.NewStore()
	recorder := &fakeRecorder{}
	streamer := streamerFunc(func(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error {
		return errors.New("server error (500): down")
	})
	c := NewController(streamer, store, recorder, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "q"})

	st := store.Get()
	require.NotNil(t, st.Error)
	assert.Contains(t, *st.Error, "down")
	assert.False(t, st.Loading)
	assert.Empty(t, recorder.entries, "failed queries are not recorded")
}

func TestSearchStreamErrorEvent(t *testing.T) {
	store := state.NewStore()
	c := NewController(eventStreamer(
		stream.ResultsEvent{Results: []api.ResultItem{{Rank: 1}}, TotalResults: 1},
		stream.ErrorEvent{Message: "generation failed"},
	), store, nil, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "q"})

	st := store.Get()
	require.NotNil(t, st.Error)
	assert.Equal(t, "generation failed", *st.Error)
	// Results delivered before the error stay.
	assert.Len(t, st.Results, 1)
	assert.False(t, st.Loading)
}

func TestSearchClearsPreviousError(t *testing.T) {
	store := state.NewStore()
	store.SetError("old failure")

	c := NewController(eventStreamer(), store, nil, zap.NewNop())
	c.Search(context.Background(), api.QueryRequest{Query: "q"})

	assert.Nil(t, store.Get().Error)
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	store := state.NewStore()
	started := false
	streamer := streamerFunc(func(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error {
		started = true
		return nil
	})
	c := NewController(streamer, store, nil, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "   "})

	assert.False(t, started)
	require.NotNil(t, store.Get().Error)
}

func TestSearchDefaultsResultCount(t *testing.T) {
	store := state.NewStore()
	var got api.QueryRequest
	streamer := streamerFunc(func(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error {
		got = req
		return nil
	})
	c := NewController(streamer, store, nil, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "q"})
	assert.Equal(t, 10, got.NResults)
}

func TestStaleSessionEventsDiscarded(t *testing.T) {
	store := state.NewStore()

	var c *Controller
	calls := 0
	streamer := streamerFunc(func(ctx context.Context, req api.QueryRequest, onEvent func(stream.Event)) error {
		calls++
		if calls == 1 {
			onEvent(stream.ChunkEvent{Text: "first"})
			// A second query preempts this session while its stream is
			// still open.
			c.Search(ctx, api.QueryRequest{Query: "second", UseLLM: true})
			onEvent(stream.ChunkEvent{Text: " stale"})
			onEvent(stream.ErrorEvent{Message: "stale error"})
			return nil
		}
		onEvent(stream.ChunkEvent{Text: "second answer"})
		return nil
	})
	c = NewController(streamer, store, nil, zap.NewNop())

	c.Search(context.Background(), api.QueryRequest{Query: "first", UseLLM: true})

	st := store.Get()
	require.NotNil(t, st.LLMResponse)
	assert.Equal(t, "second answer", *st.LLMResponse)
	assert.Nil(t, st.Error, "stale session's error event must be discarded")
	assert.False(t, st.Loading)
	assert.Equal(t, 2, calls)
}
