package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"kbsearch/internal/api"
)

type settingsField int

const (
	fieldKBFolder settingsField = iota
	fieldChunkSize
	fieldOverlap
	fieldBatchSize
	fieldIngestDocx
	fieldCount
)

func (f settingsField) label() string {
	switch f {
	case fieldKBFolder:
		return "KB folder"
	case fieldChunkSize:
		return "Chunk size"
	case fieldOverlap:
		return "Overlap"
	case fieldBatchSize:
		return "Batch size"
	case fieldIngestDocx:
		return "Ingest .docx"
	}
	return ""
}

type settingsModel struct {
	deps Deps

	cfg     api.Config
	loaded  bool
	loadErr error

	cursor  settingsField
	editing bool
	input   textinput.Model

	status string
	busy   bool
}

// configLoadedMsg is sent when the server config has been fetched.
type configLoadedMsg struct {
	cfg api.Config
	err error
}

// configSavedMsg is sent after a config update round-trips.
type configSavedMsg struct {
	cfg api.Config
	err error
}

// ingestDoneMsg is sent when an ingestion run finishes.
type ingestDoneMsg struct {
	resp api.IngestResponse
	err  error
}

// resetDoneMsg is sent when a database reset finishes.
type resetDoneMsg struct {
	resp api.ResetResponse
	err  error
}

// folderPickedMsg is sent after the server-side folder dialog closes.
type folderPickedMsg struct {
	sel api.FolderSelection
	err error
}

func newSettingsModel(deps Deps) settingsModel {
	ti := textinput.New()
	ti.CharLimit = 500
	return settingsModel{deps: deps, input: ti}
}

func (m settingsModel) load() tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		cfg, err := client.GetConfig(context.Background())
		return configLoadedMsg{cfg: cfg, err: err}
	}
}

func (m settingsModel) save(update api.ConfigUpdate) tea.Cmd {
	client := m.deps.API
	return func() tea.Msg {
		cfg, err := client.UpdateConfig(context.Background(), update)
		return configSavedMsg{cfg: cfg, err: err}
	}
}

func (m settingsModel) Update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case configLoadedMsg:
		m.loaded = true
		m.loadErr = msg.err
		if msg.err == nil {
			m.cfg = msg.cfg
			m.deps.Store.SetConfig(msg.cfg)
		}
		return m, nil

	case configSavedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.cfg = msg.cfg
		m.deps.Store.SetConfig(msg.cfg)
		m.status = "saved"
		return m, nil

	case ingestDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "ingest failed: " + msg.err.Error()
			return m, nil
		}
		m.status = msg.resp.Message
		return m, nil

	case resetDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "reset failed: " + msg.err.Error()
			return m, nil
		}
		m.status = msg.resp.Message
		return m, nil

	case folderPickedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "folder selection failed: " + msg.err.Error()
			return m, nil
		}
		if msg.sel.Cancelled || msg.sel.SelectedFolder == nil {
			m.status = "folder selection cancelled"
			return m, nil
		}
		m.busy = true
		m.status = "saving folder..."
		return m, m.save(api.ConfigUpdate{KBFolder: msg.sel.SelectedFolder})

	case tea.KeyMsg:
		if !m.loaded || m.busy {
			return m, nil
		}
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m settingsModel) updateBrowsing(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < fieldCount-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor == fieldIngestDocx {
			// No server-side field behind this toggle; it only shapes the
			// next ingest request.
			m.cfg.IngestDocx = !m.cfg.IngestDocx
			m.deps.Store.SetConfig(m.cfg)
			return m, nil
		}
		m.editing = true
		m.input.SetValue(m.currentValue())
		m.input.CursorEnd()
		m.input.Focus()
	case "f":
		m.busy = true
		m.status = "waiting for folder dialog..."
		client := m.deps.API
		return m, func() tea.Msg {
			sel, err := client.SelectFolder(context.Background())
			return folderPickedMsg{sel: sel, err: err}
		}
	case "d":
		m.busy = true
		m.status = "resetting KB folder..."
		client := m.deps.API
		return m, func() tea.Msg {
			cfg, err := client.ResetKBFolder(context.Background())
			return configSavedMsg{cfg: cfg, err: err}
		}
	case "i":
		m.busy = true
		m.status = "ingesting..."
		client := m.deps.API
		req := api.IngestRequest{
			KBFolder:   m.cfg.KBFolder,
			ChunkSize:  m.cfg.ChunkSize,
			Overlap:    m.cfg.Overlap,
			BatchSize:  m.cfg.BatchSize,
			IngestDocx: m.cfg.IngestDocx,
		}
		return m, func() tea.Msg {
			resp, err := client.Ingest(context.Background(), req)
			return ingestDoneMsg{resp: resp, err: err}
		}
	case "R":
		m.busy = true
		m.status = "clearing database..."
		client := m.deps.API
		return m, func() tea.Msg {
			resp, err := client.Reset(context.Background())
			return resetDoneMsg{resp: resp, err: err}
		}
	}
	return m, nil
}

func (m settingsModel) updateEditing(msg tea.KeyMsg) (settingsModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		update, err := m.buildUpdate(m.input.Value())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.busy = true
		m.status = "saving..."
		return m, m.save(update)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m settingsModel) currentValue() string {
	switch m.cursor {
	case fieldKBFolder:
		return m.cfg.KBFolder
	case fieldChunkSize:
		return strconv.Itoa(m.cfg.ChunkSize)
	case fieldOverlap:
		return strconv.Itoa(m.cfg.Overlap)
	case fieldBatchSize:
		return strconv.Itoa(m.cfg.BatchSize)
	}
	return ""
}

func (m settingsModel) buildUpdate(value string) (api.ConfigUpdate, error) {
	if m.cursor == fieldKBFolder {
		if value == "" {
			return api.ConfigUpdate{}, fmt.Errorf("KB folder must not be empty")
		}
		return api.ConfigUpdate{KBFolder: &value}, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return api.ConfigUpdate{}, fmt.Errorf("%s must be a positive integer", m.cursor.label())
	}
	switch m.cursor {
	case fieldChunkSize:
		return api.ConfigUpdate{ChunkSize: &n}, nil
	case fieldOverlap:
		return api.ConfigUpdate{Overlap: &n}, nil
	case fieldBatchSize:
		return api.ConfigUpdate{BatchSize: &n}, nil
	}
	return api.ConfigUpdate{}, fmt.Errorf("nothing to update")
}

func (m settingsModel) fieldValue(f settingsField) string {
	switch f {
	case fieldKBFolder:
		return m.cfg.KBFolder
	case fieldChunkSize:
		return strconv.Itoa(m.cfg.ChunkSize)
	case fieldOverlap:
		return strconv.Itoa(m.cfg.Overlap)
	case fieldBatchSize:
		return strconv.Itoa(m.cfg.BatchSize)
	case fieldIngestDocx:
		if m.cfg.IngestDocx {
			return "yes"
		}
		return "no"
	}
	return ""
}

func (m settingsModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Settings") + "\n"
	s += subtitleStyle.Render("  Server ingestion configuration") + "\n\n"

	if !m.loaded {
		s += dimStyle.Render("  Loading config...") + "\n"
		return s
	}
	if m.loadErr != nil {
		s += errorStyle.Render("  Failed to load config: "+m.loadErr.Error()) + "\n\n"
		s += dimStyle.Render("  Press esc to go back.") + "\n"
		return s
	}

	for f := settingsField(0); f < fieldCount; f++ {
		cursor := "  "
		label := fmt.Sprintf("%-14s", f.label())
		value := m.fieldValue(f)
		if f == m.cursor {
			cursor = selectedStyle.Render("> ")
			label = selectedStyle.Render(label)
			if m.editing {
				value = m.input.View()
			}
		}
		s += fmt.Sprintf("  %s%s %s\n", cursor, label, value)
	}

	s += "\n"
	if m.status != "" {
		if m.busy {
			s += dimStyle.Render("  "+m.status) + "\n"
		} else {
			s += successStyle.Render("  "+m.status) + "\n"
		}
	}

	s += "\n"
	s += helpStyle.Render("  enter edit/toggle • f pick folder • d default folder • i ingest • R reset db • esc back") + "\n"
	return s
}
