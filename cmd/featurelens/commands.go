package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"featurelens/internal/content"
	"featurelens/internal/search"
	"featurelens/internal/selection"
	"featurelens/internal/session"
)

var (
	assemblyName string
	trackID      string
	modeName     string
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

var errShortQuery = errors.New("query too short")

// queryArg joins the query words and enforces search.min_query_length
func queryArg(args []string) (string, error) {
	query := strings.Join(args, " ")
	if n := utf8.RuneCountInString(strings.TrimSpace(query)); n < cfg.Search.MinQueryLength {
		return "", fmt.Errorf("%w: %q needs at least %d characters", errShortQuery, query, cfg.Search.MinQueryLength)
	}
	return query, nil
}

// searchCmd runs one search without the browser
var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search a track for features matching a query",
	Long: `Searches the track's text index first and falls back to scanning the
assembly region by region in fixed-size chunks. At most search.max_results
features are printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := queryArg(args)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		c, err := build(nil, cfg.Mode())
		if err != nil {
			return err
		}
		outcome, err := c.searcher.Search(ctx, search.Request{
			Query:        query,
			AssemblyName: assemblyName,
			TrackID:      trackID,
		})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		logger.Info("search finished",
			zap.String("query", query),
			zap.Stringer("tier", outcome.Tier),
			zap.Int("results", len(outcome.Results)))
		printResults(cmd.OutOrStdout(), query, outcome)
		return nil
	},
}

// contentCmd selects the best match for a query and prints its aggregated content
var contentCmd = &cobra.Command{
	Use:   "content [query]",
	Short: "Show the content attached to the first feature matching a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, err := queryArg(args)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		mode := cfg.Mode()
		if modeName != "" {
			if mode, err = content.ParseMode(modeName); err != nil {
				return err
			}
		}
		c, err := build(nil, mode)
		if err != nil {
			return err
		}

		asm, err := c.session.ResolveAssembly(ctx, assemblyName)
		if err != nil {
			return err
		}
		m := c.machine
		m.SetSelectedAssembly(asm.Name)
		m.SetSelectedTrack(trackID)
		m.SetSearchTerm(ctx, query)
		st := m.Snapshot()
		if !st.HasSearchResults() {
			return errors.New("no matching features")
		}
		first := st.SearchResults[0]
		m.SetSelectedFeature(first.ID, first.Type, nil)
		m.LoadFeature(ctx)

		printContent(cmd.OutOrStdout(), m.Snapshot(), cfg.View.Title)
		return nil
	},
}

// tracksCmd lists the searchable tracks of each assembly
var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List assemblies and their searchable tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		c, err := build(nil, cfg.Mode())
		if err != nil {
			return err
		}
		if c.catalog == nil {
			return session.ErrNoSession
		}
		asms, err := c.catalog.Assemblies(ctx)
		if err != nil {
			return err
		}
		tracks, err := c.catalog.Tracks(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, a := range asms {
			fmt.Fprintln(out, headerStyle.Render(a.Label()), dimStyle.Render(a.Name))
			for _, t := range session.CompatibleTracks(tracks, a.Name) {
				fmt.Fprintf(out, "  %s %s\n", t.TrackID, dimStyle.Render(t.Adapter.Type))
			}
		}
		return nil
	},
}

// configCmd groups configuration helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := configService(nil)
		if err := svc.Save(cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", svc.Path())
		return nil
	},
}

func printResults(w io.Writer, query string, outcome search.Outcome) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d result(s) for %q", len(outcome.Results), query)),
		dimStyle.Render("via "+outcome.Tier.String()))
	for _, r := range outcome.Results {
		fmt.Fprintf(w, "  %s %s %s %s\n", nameStyle.Render(r.Name), r.Type, dimStyle.Render(r.Location), dimStyle.Render(r.ID))
	}
}

func printContent(w io.Writer, st selection.State, title string) {
	fmt.Fprintln(w, headerStyle.Render(st.DisplayTitle(title)))
	if !st.HasContent() {
		fmt.Fprintln(w, dimStyle.Render("no "+st.Mode.String()+" content"))
		return
	}
	c := st.Content
	rows := [][2]string{{"images", c.Images}, {"labels", c.Labels}, {"types", c.Types}}
	if st.Mode == content.ModeText {
		rows = [][2]string{{"markdown", c.MarkdownURLs}, {"descriptions", c.Descriptions}, {"content types", c.ContentTypes}}
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(row[0]+":"), row[1])
	}
}
