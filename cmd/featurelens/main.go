package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"featurelens/internal/config"
	"featurelens/internal/content"
	"featurelens/internal/eventbus"
	"featurelens/internal/logging"
	"featurelens/internal/search"
	"featurelens/internal/selection"
	"featurelens/internal/session"
	"featurelens/internal/ui"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	sessionPath string

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "featurelens",
	Short: "Browse and search genome annotation features",
	Long: `featurelens walks an assembly → track → feature selection and shows the
images or markdown attached to the chosen feature and its sub-features.

Run without arguments to start the interactive browser.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		if sessionPath != "" {
			cfg.Session.Fixture = sessionPath
		}
		logger, err = logging.New(logging.Settings{
			File:    cfg.Log.File,
			Level:   cfg.Log.Level,
			Verbose: verbose,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVarP(&sessionPath, "session", "s", "", "Session fixture file (overrides session.fixture)")

	searchCmd.Flags().StringVarP(&assemblyName, "assembly", "a", "", "Assembly name or alias (required)")
	searchCmd.Flags().StringVarP(&trackID, "track", "t", "", "Track id (required)")
	searchCmd.MarkFlagRequired("assembly")
	searchCmd.MarkFlagRequired("track")

	contentCmd.Flags().StringVarP(&assemblyName, "assembly", "a", "", "Assembly name or alias (required)")
	contentCmd.Flags().StringVarP(&trackID, "track", "t", "", "Track id (required)")
	contentCmd.Flags().StringVarP(&modeName, "mode", "m", "", "Content mode: image or text (default from config)")
	contentCmd.MarkFlagRequired("assembly")
	contentCmd.MarkFlagRequired("track")

	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(tracksCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configService(bus eventbus.EventBus) config.ConfigService {
	if configPath != "" {
		return config.NewConfigServiceAt(configPath, bus)
	}
	return config.NewConfigServiceWithBus(bus)
}

// loadConfig reads --config when given, otherwise the user config file
// falling back to defaults
func loadConfig() (*config.Config, error) {
	svc := configService(nil)
	if configPath != "" {
		return svc.LoadFromPath(configPath)
	}
	return svc.Load()
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// components holds everything a command needs
type components struct {
	session  session.Context
	catalog  session.Catalog
	searcher *search.Searcher
	machine  *selection.Machine
}

func build(bus eventbus.EventBus, mode content.Mode) (*components, error) {
	fx, err := session.LoadFixture(cfg.Session.Fixture)
	if err != nil {
		return nil, err
	}
	logger.Info("session loaded",
		zap.String("fixture", cfg.Session.Fixture),
		zap.String("session", fx.ID()))

	sess := session.Cached(fx)

	searchOpts := cfg.SearchOptions()
	searchOpts.Logger = logger
	searcher := search.New(sess, searchOpts)

	selOpts := cfg.SelectionOptions()
	selOpts.Mode = mode
	selOpts.Logger = logger
	machine := selection.New(sess, searcher, content.NewAggregator(logger), bus, selOpts)

	catalog, _ := sess.(session.Catalog)
	return &components{session: sess, catalog: catalog, searcher: searcher, machine: machine}, nil
}

func runBrowse() error {
	ctx, cancel := signalContext()
	defer cancel()

	bus := eventbus.New(logger)
	defer bus.Close()

	c, err := build(bus, cfg.Mode())
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, c.machine, c.catalog, ui.Options{Title: cfg.View.Title, Logger: logger})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Forward state snapshots to the UI
	unsubscribe := bus.Subscribe(eventbus.EventStateChanged, func(e eventbus.DomainEvent) {
		p.Send(ui.EventMsg{Event: e})
	})
	defer unsubscribe()
	unsubscribeDiscarded := bus.Subscribe(eventbus.EventSearchDiscarded, func(e eventbus.DomainEvent) {
		p.Send(ui.EventMsg{Event: e})
	})
	defer unsubscribeDiscarded()

	logger.Info("starting browser")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		logger.Error("browser failed", zap.Error(err))
		return fmt.Errorf("error running program: %w", err)
	}
	logger.Info("browser exited")
	return nil
}
