package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/formfill/internal/infrastructure/config"
	"github.com/GriffinCanCode/formfill/internal/infrastructure/logging"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
	dev        bool
	cacheDir   string
	browser    bool
	unknown    string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand builds the formfill command tree.
func NewRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "formfill",
		Short:         "formfill extracts, fills and submits web forms.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if g.log != nil {
				_ = g.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "TOML configuration file")
	flags.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&g.dev, "dev", false, "human readable development logs")
	flags.StringVar(&g.cacheDir, "cache-dir", "", "directory of cached form structures")
	flags.BoolVar(&g.browser, "browser", false, "render pages in headless Chrome")
	flags.StringVar(&g.unknown, "unknown", "", "unsupported questions: skip or fail")

	root.AddCommand(
		newExtractCommand(g),
		newGenerateCommand(g),
		newSubmitCommand(g),
		newCacheCommand(g),
		newServeCommand(g),
	)
	return root
}

// setup loads configuration and applies the flags that were set.
func (g *globals) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = g.logLevel
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = g.dev
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = g.cacheDir
	}
	if flags.Changed("browser") {
		cfg.Browser.Enabled = g.browser
	}
	if flags.Changed("unknown") {
		cfg.Extract.Unknown = g.unknown
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	g.cfg = cfg
	g.log = logger
	return nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
