package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"kbsearch/internal/api"
	"kbsearch/internal/history"
	"kbsearch/internal/search"
	"kbsearch/internal/state"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewSearch ViewState = iota
	ViewSettings
)

// programRef is an indirect pointer to the tea.Program so the state-store
// subscriber can send messages. It must be set after tea.NewProgram
// returns but before Run.
type programRef struct {
	p *tea.Program
}

// Deps holds the application objects the TUI consumes. Everything is
// constructed by the CLI layer and injected, so tests can build isolated
// instances.
type Deps struct {
	Store      *state.Store
	Controller *search.Controller
	API        *api.Client
	History    *history.Store // may be nil
	ServerURL  string
	Log        *zap.Logger
}

// stateMsg carries a fresh store snapshot into the Bubble Tea loop.
type stateMsg struct {
	snapshot state.State
}

// Model is the top-level Bubble Tea model.
type Model struct {
	view     ViewState
	deps     Deps
	width    int
	height   int
	search   searchModel
	settings settingsModel
}

// New creates a new TUI model with the given dependencies.
func New(deps Deps) Model {
	return Model{
		view:     ViewSearch,
		deps:     deps,
		search:   newSearchModel(deps),
		settings: newSettingsModel(deps),
	}
}

func (m Model) Init() tea.Cmd {
	return m.search.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd

	case stateMsg:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+g":
			if m.view == ViewSearch {
				m.view = ViewSettings
				return m, m.settings.load()
			}
			m.view = ViewSearch
			return m, nil
		case "esc":
			if m.view == ViewSettings && !m.settings.editing {
				m.view = ViewSearch
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.view {
	case ViewSearch:
		m.search, cmd = m.search.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	switch m.view {
	case ViewSettings:
		return m.settings.View(m.width, m.height)
	default:
		return m.search.View(m.width, m.height)
	}
}

// Run starts the TUI program and keeps the presenter in sync with the
// state store: every store mutation is forwarded into the Bubble Tea loop
// as a stateMsg.
func Run(deps Deps) error {
	ref := &programRef{}

	model := New(deps)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p

	unsubscribe := deps.Store.Subscribe(func(st state.State) {
		if ref.p != nil {
			ref.p.Send(stateMsg{snapshot: st})
		}
	})
	defer unsubscribe()

	_, err := p.Run()
	return err
}
