// Package cmd provides the CLI commands for docqa.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docqa-dev/docqa/internal/config"
	"github.com/docqa-dev/docqa/internal/logging"
	"github.com/docqa-dev/docqa/internal/output"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()

	cfg *config.Config
	out = output.New(os.Stdout)
)

// NewRootCmd creates the root command for the docqa CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docqa",
		Short: "Retrieval-augmented question answering over your documents",
		Long: `docqa ingests documents, indexes them for hybrid keyword and
semantic retrieval, and answers questions grounded in the retrieved
passages. A built-in evaluator scores retrieval quality against
labeled datasets.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docqa version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: "+config.DefaultConfigPath()+")")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setup
	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newAskCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newEvaluateCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		out.Error("%v", err)
		return err
	}
	return nil
}

// setup loads configuration and installs the process logger before any
// command runs.
func setup(_ *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config %s: %w", path, err)
		}
	} else {
		cfg, err = config.Load("")
		if err != nil {
			return err
		}
	}

	logCfg := logging.Config{
		Level:     cfg.Logging.Level,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}
	if logCfg.FilePath == "" {
		logCfg.FilePath = logging.DefaultLogPath()
	}
	if debugMode {
		logCfg.Level = "debug"
	}

	loggingCleanup, err = logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	return nil
}
