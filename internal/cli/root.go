// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/llm"
	"github.com/jeranaias/planforge/internal/logging"
	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/storage"
)

// BuildInfo is set by main from linker flags.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// GeneratorFactory builds the pipeline capability from LLM settings.
type GeneratorFactory func(cfg config.LLMConfig, logger *slog.Logger) (pipeline.Generator, error)

// annotationConfigOptional marks commands that run without an existing
// --config file.
const annotationConfigOptional = "planforge/config-optional"

// app carries state shared by every command of one invocation.
type app struct {
	info         BuildInfo
	newGenerator GeneratorFactory

	configPath string
	logLevel   string
	dbPath     string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error
}

// Execute runs the command line and returns the error of the command that
// ran. SIGINT and SIGTERM cancel the command's context.
func Execute(info BuildInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand(info).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree using the configured LLM provider.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(&app{info: info, newGenerator: llm.New})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "planforge",
		Short: "Turn a project description into a plan, schedule, review and HTML report",
		Long: `planforge runs a fixed four-stage LLM pipeline (planner, scheduler,
reviewer, renderer) over a project description. Results are stored in a
local SQLite database and served over an HTTP API.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.planforge/config.toml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&a.dbPath, "db", "", "database path (overrides storage.path)")

	root.AddCommand(
		a.serveCommand(),
		a.runCommand(),
		a.listCommand(),
		a.showCommand(),
		a.deleteCommand(),
		a.configCommand(),
		a.checkCommand(),
		a.modelsCommand(),
		a.versionCommand(),
	)
	return root
}

// setup loads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	switch {
	case a.configPath == "":
		a.cfg, err = config.Load()
	case cmd.Annotations[annotationConfigOptional] != "" && !fileExists(a.configPath):
		a.cfg = config.Default()
		a.cfg.ApplyEnvOverrides()
	default:
		a.cfg, err = config.LoadFromPath(a.configPath)
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		if !logging.ValidLevel(a.logLevel) {
			return fmt.Errorf("invalid --log-level %q", a.logLevel)
		}
		a.cfg.Log.Level = strings.ToUpper(a.logLevel)
	}
	if a.dbPath != "" {
		a.cfg.Storage.Path = a.dbPath
	}

	a.logger, a.closeLog, err = logging.New(logging.Options{
		Level:  a.cfg.Log.Level,
		Format: a.cfg.Log.Format,
		File:   a.cfg.Log.File,
		Output: cmd.ErrOrStderr(),
	})
	return err
}

func (a *app) teardown() error {
	if a.closeLog != nil {
		return a.closeLog()
	}
	return nil
}

// openStore opens the configured project database.
func (a *app) openStore() (*storage.Repository, error) {
	return storage.Open(a.cfg.Storage.Path, a.logger)
}

// newPipeline validates credentials and builds a pipeline from config.
// policy overrides pipeline.policy when non-empty.
func (a *app) newPipeline(policy string, observer pipeline.Observer) (*pipeline.Pipeline, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = a.cfg.Pipeline.Policy
	}
	pol, err := pipeline.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}

	gen, err := a.newGenerator(a.cfg.LLM, a.logger)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithPolicy(pol),
		pipeline.WithLogger(a.logger),
		pipeline.WithRowCheck(a.cfg.Pipeline.VerifyTableRows),
	}
	if observer != nil {
		opts = append(opts, pipeline.WithObserver(observer))
	}
	return pipeline.New(gen, opts...), nil
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "planforge %s\n", a.info.Version)
			if a.info.GitCommit != "" {
				fmt.Fprintf(out, "  commit: %s\n", a.info.GitCommit)
			}
			if a.info.BuildDate != "" {
				fmt.Fprintf(out, "  built:  %s\n", a.info.BuildDate)
			}
			return nil
		},
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
