package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kbsearch/internal/api"
)

func TestSetNotifiesSubscribersWithFullState(t *testing.T) {
	s := NewStore()

	var seen []State
	s.Subscribe(func(st State) {
		seen = append(seen, st)
	})

	s.Set(Partial{Loading: true, HasLoading: true})
	s.Set(Partial{Loading: false, HasLoading: true})

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	// The full merged state is delivered, not a delta.
	assert.Equal(t, api.DefaultConfig(), seen[0].Config)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	s := NewStore()

	calls := 0
	unsubscribe := s.Subscribe(func(State) { calls++ })

	s.SetLoading(true)
	unsubscribe()
	s.SetLoading(false)

	assert.Equal(t, 1, calls)
}

func TestSubscriptionOrder(t *testing.T) {
	s := NewStore()

	var order []string
	s.Subscribe(func(State) { order = append(order, "a") })
	s.Subscribe(func(State) { order = append(order, "b") })
	s.Subscribe(func(State) { order = append(order, "c") })

	s.SetLoading(true)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSubscribeDuringNotificationDoesNotJoinPass(t *testing.T) {
	s := NewStore()

	lateCalls := 0
	s.Subscribe(func(State) {
		if lateCalls == 0 {
			s.Subscribe(func(State) { lateCalls++ })
		}
	})

	s.SetLoading(true)
	assert.Equal(t, 0, lateCalls, "listener added mid-pass must not run in that pass")

	s.SetLoading(false)
	assert.Equal(t, 1, lateCalls)
}

func TestUnsubscribeDuringNotificationDoesNotAffectPass(t *testing.T) {
	s := NewStore()

	var unsubscribeB func()
	bCalls := 0
	s.Subscribe(func(State) { unsubscribeB() })
	unsubscribeB = s.Subscribe(func(State) { bCalls++ })

	s.SetLoading(true)
	assert.Equal(t, 1, bCalls, "the pass snapshot was taken before the unsubscribe")

	s.SetLoading(false)
	assert.Equal(t, 1, bCalls)
}

func TestClearResults(t *testing.T) {
	s := NewStore()

	cfg := api.Config{KBFolder: "/notes", ChunkSize: 1234, Overlap: 5, BatchSize: 6, IngestDocx: true}
	s.SetConfig(cfg)
	s.SetResults([]api.ResultItem{{Rank: 1, Title: "t"}})
	text := "partial answer"
	s.SetLLMResponse(&text)
	s.SetError("oops")

	s.ClearResults()

	st := s.Get()
	assert.Empty(t, st.Results)
	assert.Nil(t, st.LLMResponse)
	assert.Nil(t, st.Error)
	assert.Equal(t, cfg, st.Config, "config must be untouched")
}

func TestShallowMergeLeavesOtherFieldsAlone(t *testing.T) {
	s := NewStore()

	s.SetResults([]api.ResultItem{{Rank: 1, Title: "keep"}})
	s.SetLoading(true)

	st := s.Get()
	require.Len(t, st.Results, 1)
	assert.Equal(t, "keep", st.Results[0].Title)
	assert.True(t, st.Loading)
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	s.SetResults([]api.ResultItem{{Rank: 1, Title: "original"}})

	st := s.Get()
	st.Results[0].Title = "mutated"
	if st.LLMResponse != nil {
		*st.LLMResponse = "mutated"
	}

	assert.Equal(t, "original", s.Get().Results[0].Title)
}

func TestSetErrorAndClearError(t *testing.T) {
	s := NewStore()

	s.SetError("boom")
	st := s.Get()
	require.NotNil(t, st.Error)
	assert.Equal(t, "boom", *st.Error)

	s.ClearError()
	assert.Nil(t, s.Get().Error)
}

func TestUpdateConfigMergesNestedFields(t *testing.T) {
	s := NewStore()

	folder := "/elsewhere"
	s.UpdateConfig(api.ConfigUpdate{KBFolder: &folder})

	cfg := s.Get().Config
	assert.Equal(t, "/elsewhere", cfg.KBFolder)
	// Untouched fields keep their previous values.
	assert.Equal(t, 100000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.Overlap)
	assert.Equal(t, 64, cfg.BatchSize)

	chunk := 500
	s.UpdateConfig(api.ConfigUpdate{ChunkSize: &chunk})
	cfg = s.Get().Config
	assert.Equal(t, "/elsewhere", cfg.KBFolder)
	assert.Equal(t, 500, cfg.ChunkSize)
}

func TestSetLLMResponseNilUnsets(t *testing.T) {
	s := NewStore()

	text := "answer"
	s.SetLLMResponse(&text)
	require.NotNil(t, s.Get().LLMResponse)

	s.SetLLMResponse(nil)
	assert.Nil(t, s.Get().LLMResponse)
}
