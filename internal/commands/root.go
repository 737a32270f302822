package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/buildinfo"
	"github.com/cleared-dev/ledgerview/internal/config"
)

type globalFlags struct {
	configPath string
	envFile    string
	debug      bool
	logFormat  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:     "ledgerview",
		Short:   "Editable running-balance view over a bank ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd, g)
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", config.FileName, "config file")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", "", "env file with overrides (default .env if present)")
	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newShowCommand(g))
	rootCmd.AddCommand(newValidateCommand(g))
	rootCmd.AddCommand(newEditCommand(g))
	rootCmd.AddCommand(newEvalCommand())
	rootCmd.AddCommand(newBalancesCommand(g))
	rootCmd.AddCommand(newServeCommand(g))
	rootCmd.AddCommand(newExportCommand(g))
	rootCmd.AddCommand(newImportCommand(g))

	return rootCmd
}

func setupLogging(cmd *cobra.Command, g *globalFlags) error {
	logLevel := slog.LevelInfo
	if g.debug {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	switch g.logFormat {
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	default:
		return fmt.Errorf("unknown log format %q", g.logFormat)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// loadConfig reads the config file, falling back to defaults when the
// default file is absent, then applies environment overrides. A relative
// offline.dir is resolved against the config file's directory.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	switch {
	case err == nil:
		if cfg.Offline.Dir != "" && !filepath.IsAbs(cfg.Offline.Dir) {
			cfg.Offline.Dir = filepath.Join(filepath.Dir(g.configPath), cfg.Offline.Dir)
		}
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		slog.Debug("no config file, using defaults", "path", g.configPath)
		cfg = config.Default()
	default:
		return nil, err
	}

	if err := config.ApplyEnv(cfg, g.envFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
