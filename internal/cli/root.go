// Package cli implements the storefront command line.
package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zoobzio/storefront/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Backend    string // overrides config.Backend when set
	Path       string // overrides config.Path when set
	NoFaults   bool
	Verbose    bool
	Format     string // "json" | "text"

	app *App
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the storefront CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront data layer",
		Long: `Drive the storefront stores from the command line.

Every command opens the configured backend, refreshes the stores it needs
and prints their state. Network delay and failures are simulated according
to the [fetch] section of the config.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return WrapExitError(ExitCommandError, "load config", err)
			}
			log := newLogger(cmd.ErrOrStderr(), opts.Verbose)
			app, err := Open(cmd.Context(), cfg, log, newAlerter(cmd.ErrOrStderr()))
			if err != nil {
				return WrapExitError(ExitCommandError, "open backend", err)
			}
			opts.app = app
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if opts.app == nil {
				return nil
			}
			err := opts.app.Close()
			opts.app = nil
			return err
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default "+config.DefaultConfigPath+")")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "storage backend (memory|file|sqlite|redis|postgres|etcd|consul|nats|zookeeper|firestore|kubernetes)")
	cmd.PersistentFlags().StringVar(&opts.Path, "path", "", "data directory or database file")
	cmd.PersistentFlags().BoolVar(&opts.NoFaults, "no-faults", false, "disable simulated delay and failures")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewErrorsCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.Path != "" {
		cfg.Path = opts.Path
	}
	if opts.NoFaults {
		cfg.Fetch.MinDelay = config.Duration{}
		cfg.Fetch.MaxDelay = config.Duration{}
		cfg.Fetch.FailureRate = 0
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
