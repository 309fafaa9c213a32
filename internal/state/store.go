// Package state holds the client's central application state: a single
// mutable store with merge-based mutation and synchronous subscriber
// notification. Only the search controller mutates it; presenters read
// snapshots.
package state

import (
	"slices"
	"sync"

	"kbsearch/internal/api"
)

// State is the full application state. Results are kept in delivered rank
// order and replaced wholesale per query. LLMResponse and Error are nil
// when unset.
type State struct {
	Results     []api.ResultItem
	LLMResponse *string
	Loading     bool
	Error       *string
	Config      api.Config
}

// Partial names the fields one mutation touches. The Has flags
// distinguish "leave untouched" from "set to the zero value"; merging a
// Partial is a shallow merge, so Config is only ever replaced whole —
// nested merges are the mutator's job (see UpdateConfig).
type Partial struct {
	Results        []api.ResultItem
	HasResults     bool
	LLMResponse    *string
	HasLLMResponse bool
	Loading        bool
	HasLoading     bool
	Error          *string
	HasError       bool
	Config         *api.Config
}

// Listener receives the full post-mutation state after every Set.
type Listener func(State)

type subscriber struct {
	id int
	fn Listener
}

// Store is the application state container. It is created once at startup
// and lives for the process lifetime.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   []subscriber
	nextID int
}

// NewStore creates a store holding the default state.
func NewStore() *Store {
	return &Store{
		state: State{Config: api.DefaultConfig()},
	}
}

// Get returns a snapshot of the current state. The snapshot is detached
// from the store: later mutations do not affect it.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Set shallow-merges the partial into the current state, then notifies
// every subscriber synchronously, in subscription order, with the full
// merged state. The subscriber list is snapshotted before the pass, so a
// listener that subscribes or unsubscribes mid-notification does not
// affect the pass in progress.
func (s *Store) Set(p Partial) {
	s.mu.Lock()
	if p.HasResults {
		s.state.Results = slices.Clone(p.Results)
	}
	if p.HasLLMResponse {
		s.state.LLMResponse = cloneString(p.LLMResponse)
	}
	if p.HasLoading {
		s.state.Loading = p.Loading
	}
	if p.HasError {
		s.state.Error = cloneString(p.Error)
	}
	if p.Config != nil {
		s.state.Config = *p.Config
	}
	snapshot := cloneState(s.state)
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

// Subscribe registers a listener and returns a function that removes it.
// Listeners are notified in subscription order.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool {
			return sub.id == id
		})
	}
}

// SetResults replaces the result set.
func (s *Store) SetResults(results []api.ResultItem) {
	s.Set(Partial{Results: results, HasResults: true})
}

// SetLLMResponse replaces the accumulated generated text; nil unsets it.
func (s *Store) SetLLMResponse(text *string) {
	s.Set(Partial{LLMResponse: text, HasLLMResponse: true})
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.Set(Partial{Loading: loading, HasLoading: true})
}

// SetError sets the user-facing error message.
func (s *Store) SetError(message string) {
	s.Set(Partial{Error: &message, HasError: true})
}

// ClearError unsets the error message.
func (s *Store) ClearError() {
	s.Set(Partial{HasError: true})
}

// ClearResults empties the result set and unsets the generated text and
// the error. Config is left untouched.
func (s *Store) ClearResults() {
	s.Set(Partial{
		Results:        []api.ResultItem{},
		HasResults:     true,
		HasLLMResponse: true,
		HasError:       true,
	})
}

// SetConfig replaces the server config slice, typically after loading it
// from the backend.
func (s *Store) SetConfig(cfg api.Config) {
	s.Set(Partial{Config: &cfg})
}

// UpdateConfig merges a partial server-config update into the current
// config. The nested merge happens here because Set is strictly shallow.
func (s *Store) UpdateConfig(update api.ConfigUpdate) {
	s.mu.Lock()
	cfg := s.state.Config
	s.mu.Unlock()

	if update.KBFolder != nil {
		cfg.KBFolder = *update.KBFolder
	}
	if update.ChunkSize != nil {
		cfg.ChunkSize = *update.ChunkSize
	}
	if update.Overlap != nil {
		cfg.Overlap = *update.Overlap
	}
	if update.BatchSize != nil {
		cfg.BatchSize = *update.BatchSize
	}
	s.Set(Partial{Config: &cfg})
}

func cloneState(st State) State {
	out := st
	out.Results = slices.Clone(st.Results)
	out.LLMResponse = cloneString(st.LLMResponse)
	out.Error = cloneString(st.Error)
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
