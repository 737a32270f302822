package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerview/internal/config"
	"github.com/cleared-dev/ledgerview/internal/gitops"
	"github.com/cleared-dev/ledgerview/internal/offline"
)

const defaultDataDir = "data"

func newInitCommand() *cobra.Command {
	var baseURL string
	var offlineMode bool
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default ledgerview.yaml and an empty offline data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, baseURL, offlineMode, useGit)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "dashboard server base URL")
	cmd.Flags().BoolVar(&offlineMode, "offline", false, "read and write the local data directory instead of the server")
	cmd.Flags().BoolVar(&useGit, "git", false, "version the data directory with git; import and export commit snapshots")

	return cmd
}

func runInit(cmd *cobra.Command, dir, baseURL string, offlineMode, useGit bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if fileExists(cfgPath) {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	// Write ledgerview.yaml.
	cfg := config.Default()
	if baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if offlineMode {
		cfg.Offline.Dir = defaultDataDir
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write empty ledger and edit history.
	dataDir := filepath.Join(dir, defaultDataDir)
	if err := offline.Init(dataDir); err != nil {
		return fmt.Errorf("writing data dir: %w", err)
	}

	if useGit && !gitops.IsRepo(dataDir) {
		if err := gitops.Init(dataDir); err != nil {
			return err
		}
		if _, err := gitops.Snapshot(dataDir, "init: empty ledger", gitops.DefaultAuthor); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledgerview at %s\n", dir)
	return nil
}
