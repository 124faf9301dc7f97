package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"featurelens/internal/content"
	"featurelens/internal/domain"
	"featurelens/internal/selection"
	"featurelens/internal/session"
)

// Pane identifies the focused part of the browser
type Pane int

const (
	PaneAssemblies Pane = iota
	PaneTracks
	PaneSearch
	PaneResults
	PaneContent
)

func (p Pane) String() string {
	switch p {
	case PaneAssemblies:
		return "assemblies"
	case PaneTracks:
		return "tracks"
	case PaneSearch:
		return "search"
	case PaneResults:
		return "results"
	default:
		return "content"
	}
}

// Options configures the browser
type Options struct {
	Title  string
	Logger *zap.Logger
}

// Model is the browser. It renders machine snapshots and turns keys into
// machine actions; blocking actions run inside tea.Cmds.
type Model struct {
	ctx     context.Context
	machine *selection.Machine
	catalog session.Catalog
	logger  *zap.Logger
	title   string

	state      selection.State // last snapshot rendered
	assemblies []domain.Assembly
	cursors    map[Pane]int
	focus      Pane

	width    int
	height   int
	keys     KeyMap
	styles   *Styles
	help     help.Model
	input    textinput.Model
	spinner  spinner.Model
	showHelp bool
	status   string
	failed   bool
}

// NewModel creates a browser over machine. catalog lists the assemblies to
// choose from and may be nil.
func NewModel(ctx context.Context, machine *selection.Machine, catalog session.Catalog, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	title := opts.Title
	if title == "" {
		title = "Feature Content"
	}

	ti := textinput.New()
	ti.Placeholder = "gene name, id or product"
	ti.Prompt = "/ "
	ti.CharLimit = 128

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:     ctx,
		machine: machine,
		catalog: catalog,
		logger:  logger.Named("ui"),
		title:   title,
		state:   machine.Snapshot(),
		cursors: make(map[Pane]int),
		keys:    DefaultKeyMap,
		styles:  NewStyles(),
		help:    help.New(),
		input:   ti,
		spinner: sp,
	}
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadAssemblies(), m.spinner.Tick)
}

// Focus returns the focused pane
func (m *Model) Focus() Pane {
	return m.focus
}

// State returns the snapshot the view currently renders
func (m *Model) State() selection.State {
	return m.state
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case assembliesMsg:
		if msg.err != nil {
			m.logger.Error("failed to list assemblies", zap.Error(msg.err))
			m.setStatus("Could not list assemblies", true)
			return m, nil
		}
		m.assemblies = msg.assemblies
		m.clampCursor(PaneAssemblies, len(m.assemblies))
		return m, nil

	case settledMsg:
		m.refresh()
		if msg.action == "search" && m.state.HasSearchTerm() && !m.state.IsSearching {
			m.setStatus(resultStatus(len(m.state.SearchResults)), false)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// handleEvent applies state snapshots delivered over the bus. Delivery is
// asynchronous, so older snapshots are ignored.
func (m *Model) handleEvent(e domain.DomainEvent) {
	switch ev := e.(type) {
	case selection.ChangedEvent:
		if ev.State.Version > m.state.Version {
			m.state = ev.State
		}
	case domain.SearchDiscardedEvent:
		m.logger.Debug("search superseded", zap.String("query", ev.Query))
	}
}

func (m *Model) refresh() {
	if st := m.machine.Snapshot(); st.Version >= m.state.Version {
		m.state = st
	}
	m.clampCursor(PaneTracks, len(m.state.AvailableTracks))
	m.clampCursor(PaneResults, len(m.state.SearchResults))
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// The search box swallows printable keys
	if m.focus == PaneSearch {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Search):
		return m, m.focusSearch()
	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus(m.nextPane())
	case key.Matches(msg, m.keys.Clear):
		m.machine.ClearSelections()
		m.input.SetValue("")
		m.refresh()
		m.setFocus(PaneAssemblies)
		return m, nil
	case key.Matches(msg, m.keys.Mode):
		return m, m.toggleMode()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	case key.Matches(msg, m.keys.Back):
		return m, m.back()
	case key.Matches(msg, m.keys.Select):
		return m, m.selectCurrent()
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.SetValue("")
		m.machine.ClearSearch()
		m.refresh()
		return m, m.setFocus(PaneTracks)
	case tea.KeyEnter, tea.KeyTab:
		return m, m.setFocus(PaneResults)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	after := m.input.Value()
	if after == before {
		return m, cmd
	}
	// the term is committed here so terms land in keystroke order; only the
	// search itself runs off the update loop
	ready := m.machine.UpdateSearchTerm(after)
	m.refresh()
	if !ready {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.run("search", m.machine.SearchFeatures))
}

func (m *Model) selectCurrent() tea.Cmd {
	switch m.focus {
	case PaneAssemblies:
		if len(m.assemblies) == 0 {
			return nil
		}
		asm := m.assemblies[m.cursors[PaneAssemblies]]
		m.machine.SetSelectedAssembly(asm.Name)
		m.input.SetValue("")
		m.cursors[PaneTracks] = 0
		m.cursors[PaneResults] = 0
		m.refresh()
		m.setFocus(PaneTracks)
		return m.run("tracks", m.machine.LoadTracks)

	case PaneTracks:
		tracks := m.state.AvailableTracks
		if len(tracks) == 0 {
			return nil
		}
		m.machine.SetSelectedTrack(tracks[m.cursors[PaneTracks]].TrackID)
		m.input.SetValue("")
		m.cursors[PaneResults] = 0
		m.refresh()
		return m.focusSearch()

	case PaneResults:
		results := m.state.SearchResults
		if len(results) == 0 {
			return nil
		}
		res := results[m.cursors[PaneResults]]
		m.machine.SetSelectedFeature(res.ID, res.Type, nil)
		m.refresh()
		m.setFocus(PaneContent)
		return m.run("feature", m.machine.LoadFeature)
	}
	return nil
}

func (m *Model) back() tea.Cmd {
	switch m.focus {
	case PaneContent:
		return m.setFocus(PaneResults)
	case PaneResults:
		return m.focusSearch()
	case PaneTracks:
		return m.setFocus(PaneAssemblies)
	}
	return nil
}

func (m *Model) toggleMode() tea.Cmd {
	mode := content.ModeText
	if m.state.Mode == content.ModeText {
		mode = content.ModeImage
	}
	m.machine.SetMode(mode)
	m.refresh()
	m.setStatus("Showing "+mode.String()+" content", false)
	if m.state.SelectedFeatureID == "" {
		return nil
	}
	return m.run("feature", m.machine.LoadFeature)
}

func (m *Model) focusSearch() tea.Cmd {
	if m.state.SelectedTrackID == "" {
		m.setStatus("Select a track first", true)
		return nil
	}
	return m.setFocus(PaneSearch)
}

func (m *Model) setFocus(p Pane) tea.Cmd {
	m.focus = p
	if p == PaneSearch {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) nextPane() Pane {
	next := m.focus + 1
	if next > PaneContent {
		next = PaneAssemblies
	}
	if next == PaneSearch && m.state.SelectedTrackID == "" {
		return PaneAssemblies
	}
	return next
}

func (m *Model) moveCursor(delta int) {
	n := 0
	switch m.focus {
	case PaneAssemblies:
		n = len(m.assemblies)
	case PaneTracks:
		n = len(m.state.AvailableTracks)
	case PaneResults:
		n = len(m.state.SearchResults)
	default:
		return
	}
	m.cursors[m.focus] += delta
	m.clampCursor(m.focus, n)
}

func (m *Model) clampCursor(p Pane, n int) {
	switch {
	case n == 0 || m.cursors[p] < 0:
		m.cursors[p] = 0
	case m.cursors[p] >= n:
		m.cursors[p] = n - 1
	}
}

func (m *Model) setStatus(s string, failed bool) {
	m.status = s
	m.failed = failed
}

func (m *Model) run(action string, fn func(context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx)
		return settledMsg{action: action}
	}
}

func (m *Model) loadAssemblies() tea.Cmd {
	if m.catalog == nil {
		return nil
	}
	ctx, catalog := m.ctx, m.catalog
	return func() tea.Msg {
		asms, err := catalog.Assemblies(ctx)
		return assembliesMsg{assemblies: asms, err: err}
	}
}

func resultStatus(n int) string {
	switch n {
	case 0:
		return "No matching features"
	case 1:
		return "1 feature found"
	default:
		return fmt.Sprintf("%d features found", n)
	}
}
