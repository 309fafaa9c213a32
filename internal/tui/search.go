package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"kbsearch/internal/api"
	"kbsearch/internal/history"
	"kbsearch/internal/state"
)

type searchFocus int

const (
	focusInput searchFocus = iota
	focusResults
)

type searchModel struct {
	deps Deps

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	snap      state.State
	focus     searchFocus
	cursor    int
	useRerank bool
	useLLM    bool
	nResults  int

	recent    []history.Entry
	recallIdx int

	width       int
	height      int
	initialized bool
}

// searchDoneMsg is sent when a query session's controller call returns.
type searchDoneMsg struct{}

// openDoneMsg is sent after asking the server to open a file or folder.
type openDoneMsg struct {
	err error
}

// recentLoadedMsg carries recent queries for the recall keybinding.
type recentLoadedMsg struct {
	entries []history.Entry
}

func newSearchModel(deps Deps) searchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "Search your notes..."
	ti.CharLimit = 2000
	ti.Focus()

	return searchModel{
		deps:      deps,
		spinner:   sp,
		input:     ti,
		snap:      deps.Store.Get(),
		useRerank: true,
		nResults:  10,
		recallIdx: -1,
	}
}

func (m searchModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadRecent(m.deps.History))
}

func (m *searchModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + gap.
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render("Welcome to kbsearch.\n\nType a query and press Enter. ctrl+r toggles rerank, ctrl+l toggles answer generation, ctrl+g opens settings."))

	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func loadRecent(h *history.Store) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := h.Recent(50)
		if err != nil {
			return recentLoadedMsg{}
		}
		return recentLoadedMsg{entries: entries}
	}
}

func runSearch(deps Deps, req api.QueryRequest) tea.Cmd {
	return func() tea.Msg {
		deps.Controller.Search(context.Background(), req)
		return searchDoneMsg{}
	}
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case stateMsg:
		wasStreaming := m.snap.LLMResponse != nil
		m.snap = msg.snapshot
		if m.cursor >= len(m.snap.Results) {
			m.cursor = 0
		}
		m.refreshViewport()
		if m.snap.LLMResponse != nil {
			m.viewport.GotoBottom()
		} else if wasStreaming {
			m.viewport.GotoTop()
		}
		return m, nil

	case searchDoneMsg:
		return m, loadRecent(m.deps.History)

	case recentLoadedMsg:
		m.recent = msg.entries
		m.recallIdx = -1
		return m, nil

	case openDoneMsg:
		if msg.err != nil {
			m.deps.Store.SetError(msg.err.Error())
		}
		return m, nil

	case spinner.TickMsg:
		if m.snap.Loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.refreshViewport()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+r":
			m.useRerank = !m.useRerank
			return m, nil
		case "ctrl+l":
			m.useLLM = !m.useLLM
			return m, nil
		case "ctrl+x":
			m.deps.Store.ClearResults()
			m.cursor = 0
			return m, nil
		case "ctrl+p":
			// Cycle backwards through recent queries.
			if len(m.recent) > 0 {
				m.recallIdx = (m.recallIdx + 1) % len(m.recent)
				m.input.SetValue(m.recent[m.recallIdx].Query)
				m.input.CursorEnd()
			}
			return m, nil
		case "tab":
			if m.focus == focusInput && len(m.snap.Results) > 0 {
				m.focus = focusResults
				m.input.Blur()
			} else {
				m.focus = focusInput
				m.input.Focus()
			}
			m.refreshViewport()
			return m, nil
		}

		if m.focus == focusResults {
			return m.updateResults(msg)
		}
		return m.updateInput(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m searchModel) updateInput(msg tea.KeyMsg) (searchModel, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		query := strings.TrimSpace(m.input.Value())
		if query == "" || m.snap.Loading {
			return m, nil
		}
		m.cursor = 0
		req := api.QueryRequest{
			Query:     query,
			UseRerank: m.useRerank,
			UseLLM:    m.useLLM,
			NResults:  m.nResults,
		}
		return m, tea.Batch(m.spinner.Tick, runSearch(m.deps, req))
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m searchModel) updateResults(msg tea.KeyMsg) (searchModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.snap.Results)-1 {
			m.cursor++
		}
	case "enter", "o":
		if r, ok := m.selectedResult(); ok {
			return m, m.openPath(r.SourcePath(), false)
		}
	case "O":
		if r, ok := m.selectedResult(); ok {
			return m, m.openPath(r.SourceDir(), true)
		}
	case "esc":
		m.focus = focusInput
		m.input.Focus()
	}
	m.refreshViewport()
	return m, nil
}

func (m searchModel) selectedResult() (api.ResultItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Results) {
		return api.ResultItem{}, false
	}
	return m.snap.Results[m.cursor], true
}

func (m searchModel) openPath(path string, folder bool) tea.Cmd {
	if path == "" {
		return nil
	}
	client := m.deps.API
	return func() tea.Msg {
		var err error
		if folder {
			err = client.OpenFolder(context.Background(), path)
		} else {
			err = client.OpenFile(context.Background(), path)
		}
		return openDoneMsg{err: err}
	}
}

func (m *searchModel) refreshViewport() {
	if !m.initialized {
		return
	}
	m.viewport.SetContent(m.renderContent())
}

func (m searchModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return snippetStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return snippetStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m searchModel) renderContent() string {
	var sb strings.Builder

	if m.snap.Error != nil {
		sb.WriteString(errorStyle.Render("Error: "+*m.snap.Error) + "\n\n")
	}

	switch {
	case len(m.snap.Results) > 0:
		for i, r := range m.snap.Results {
			sb.WriteString(m.renderResult(r, i == m.cursor && m.focus == focusResults))
		}
	case !m.snap.Loading && m.snap.Error == nil:
		sb.WriteString(dimStyle.Render("No results yet. Type a query and press Enter.") + "\n")
	}

	if m.snap.LLMResponse != nil {
		sb.WriteString("\n" + titleStyle.Render("Answer") + "\n")
		sb.WriteString(m.renderMarkdown(*m.snap.LLMResponse) + "\n")
	}

	if m.snap.Loading {
		sb.WriteString("\n" + m.spinner.View() + " " + dimStyle.Render("Searching...") + "\n")
	}

	return sb.String()
}

func (m searchModel) renderResult(r api.ResultItem, selected bool) string {
	marker := "  "
	titleLine := fmt.Sprintf("%2d. %s", r.Rank, r.Title)
	if selected {
		marker = selectedStyle.Render("> ")
		titleLine = selectedStyle.Render(titleLine)
	} else {
		titleLine = resultTitleStyle.Render(titleLine)
	}

	var sb strings.Builder
	sb.WriteString(marker + titleLine + "  " + similarityStyle.Render(formatSimilarity(r.Similarity)) + "\n")
	if r.Source != "" {
		sb.WriteString("      " + dimStyle.Render(r.Source) + "\n")
	}
	if r.Snippet != "" {
		sb.WriteString("      " + snippetStyle.Render(r.Snippet) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func formatSimilarity(sim *float64) string {
	if sim == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *sim)
}

func (m searchModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	status := "idle"
	if m.snap.Loading {
		status = "searching..."
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" kbsearch • %s • rerank %s • answer %s • %d results • %s",
			m.deps.ServerURL, onOff(m.useRerank), onOff(m.useLLM), len(m.snap.Results), status))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
