package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"featurelens/internal/content"
	"featurelens/internal/selection"
)

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	st := m.state
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(st.DisplayTitle(m.title)))
	b.WriteString("\n")

	paneWidth := max(20, m.width/2-4)
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.pane(PaneAssemblies, "Assemblies", m.assemblyLines(), paneWidth),
		m.pane(PaneTracks, "Tracks", m.trackLines(), paneWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.pane(PaneSearch, "Search", []string{m.input.View()}, paneWidth),
		m.pane(PaneResults, "Results", m.resultLines(), paneWidth),
		m.pane(PaneContent, "Content", m.contentLines(), paneWidth),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) pane(p Pane, title string, lines []string, width int) string {
	style := m.styles.Pane
	if m.focus == p {
		style = m.styles.FocusedPane
	}
	body := m.styles.PaneTitle.Render(title) + "\n" + strings.Join(lines, "\n")
	return style.Width(width).Render(body)
}

func (m *Model) list(p Pane, items []string, selected func(int) bool) []string {
	if len(items) == 0 {
		return []string{m.styles.Dim.Render("(none)")}
	}
	lines := make([]string, len(items))
	for i, item := range items {
		prefix := "  "
		if selected(i) {
			prefix = "• "
		}
		line := prefix + item
		if m.focus == p && m.cursors[p] == i {
			line = m.styles.SelectionBg.Render(line)
		}
		lines[i] = line
	}
	return lines
}

func (m *Model) assemblyLines() []string {
	items := make([]string, len(m.assemblies))
	for i, a := range m.assemblies {
		items[i] = a.Label()
	}
	return m.list(PaneAssemblies, items, func(i int) bool {
		return m.assemblies[i].Name == m.state.SelectedAssemblyID
	})
}

func (m *Model) trackLines() []string {
	st := m.state
	if st.LoadingTracks {
		return []string{m.spinner.View() + " loading tracks"}
	}
	items := make([]string, len(st.AvailableTracks))
	for i, t := range st.AvailableTracks {
		items[i] = fmt.Sprintf("%s %s", t.Label(), m.styles.Dim.Render(t.Adapter.Type))
	}
	return m.list(PaneTracks, items, func(i int) bool {
		return st.AvailableTracks[i].TrackID == st.SelectedTrackID
	})
}

func (m *Model) resultLines() []string {
	st := m.state
	if st.IsSearching {
		return []string{m.spinner.View() + " searching " + st.SearchTerm}
	}
	items := make([]string, len(st.SearchResults))
	for i, r := range st.SearchResults {
		items[i] = fmt.Sprintf("%s %s %s", m.styles.Highlight.Render(r.Name), r.Type, m.styles.Dim.Render(r.Location))
	}
	return m.list(PaneResults, items, func(i int) bool {
		return st.SearchResults[i].ID == st.SelectedFeatureID
	})
}

func (m *Model) contentLines() []string {
	st := m.state
	switch {
	case st.SelectedFeatureID == "":
		return []string{m.styles.Dim.Render("Select a feature")}
	case st.LoadingFeature:
		return []string{m.spinner.View() + " loading " + st.SelectedFeatureID}
	case !st.HasContent():
		msg := "No " + st.Mode.String() + " content for " + st.SelectedFeatureID
		if st.FallbackSelection {
			msg += " (not among results)"
		}
		return []string{m.styles.Dim.Render(msg)}
	}
	return m.contentRows(st)
}

// contentRows zips the comma-joined content strings back into rows
func (m *Model) contentRows(st selection.State) []string {
	primary, first, second := st.Content.Images, st.Content.Labels, st.Content.Types
	if st.Mode == content.ModeText {
		primary, first, second = st.Content.MarkdownURLs, st.Content.Descriptions, st.Content.ContentTypes
	}
	p := strings.Split(primary, ",")
	a := strings.Split(first, ",")
	c := strings.Split(second, ",")
	rows := make([]string, 0, len(p))
	for i, v := range p {
		rows = append(rows, fmt.Sprintf("%s %s %s", v, m.styles.Label.Render(at(a, i)), m.styles.Dim.Render(at(c, i))))
	}
	return rows
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func (m *Model) statusLine() string {
	st := m.state
	switch {
	case m.status != "" && m.failed:
		return m.styles.StatusError.Render(m.status)
	case st.IsSearching:
		return m.styles.StatusLoading.Render("Searching...")
	case !st.IsReady():
		return m.styles.StatusLoading.Render("Loading...")
	case m.status != "":
		return m.styles.StatusSuccess.Render(m.status)
	}
	return m.styles.Status.Render(fmt.Sprintf("%s | %s mode", m.focus, st.Mode))
}
