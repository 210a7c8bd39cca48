// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/project"
	"github.com/jeranaias/planforge/internal/util"
)

type runOptions struct {
	file    string
	out     string
	noStore bool
	policy  string
	timeout time.Duration
}

func (a *app) runCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run --file project.yaml",
		Short: "Run the pipeline on a project file",
		Long: `Run the four pipeline stages on a project request file (.yaml, .yml or
.json) and print a status line as each stage finishes. The project and its
outputs are stored unless --no-store is given. The exit status is non-zero
when any stage failed, but all outputs are still written.`,
		Example: `  planforge run --file project.yaml --out report.html
  planforge run --file project.json --policy short-circuit --no-store`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.file, "file", "f", "", "project request file (required)")
	flags.StringVarP(&opts.out, "out", "o", "", "write the rendered HTML report to this file")
	flags.BoolVar(&opts.noStore, "no-store", false, "do not save the project to the database")
	flags.StringVar(&opts.policy, "policy", "", "upstream error policy: cascade or short-circuit")
	flags.DurationVar(&opts.timeout, "timeout", 0, "abort generation after this long (0 = no limit)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) run(ctx context.Context, stdout, stderr io.Writer, opts runOptions) error {
	req, err := project.LoadFile(opts.file)
	if err != nil {
		return commandError("run", "load project", err)
	}

	observer := func(name pipeline.StageName, out pipeline.Output) {
		fmt.Fprintln(stderr, stageLine(name, out))
	}
	pipe, err := a.newPipeline(opts.policy, observer)
	if err != nil {
		return commandError("run", "configure pipeline", err)
	}

	var (
		id    string
		input = req.Format()
		save  func(*pipeline.State) error
	)
	if !opts.noStore {
		repo, err := a.openStore()
		if err != nil {
			return commandError("run", "open storage", err)
		}
		defer repo.Close()

		p, err := repo.Create(ctx, req)
		if err != nil {
			return commandError("run", "create project", err)
		}
		id, input = p.ID, p.Input
		save = func(st *pipeline.State) error {
			return repo.SaveResults(context.WithoutCancel(ctx), id, st)
		}
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	fmt.Fprintf(stderr, "%s %s (%s policy)\n", TitleStyle.Render("Planning"), req.ProjectType, pipe.Policy())
	st := pipe.Run(ctx, pipeline.NewState(input))

	if save != nil {
		if err := save(st); err != nil {
			return commandError("run", "save results", err)
		}
	}

	if opts.out != "" {
		if err := util.AtomicWriteFile(opts.out, []byte(st.Text(pipeline.Renderer)), 0644); err != nil {
			return commandError("run", "write report", err)
		}
	}

	printRunSummary(stdout, id, opts.out, st)

	if failed := st.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, name := range failed {
			names[i] = string(name)
		}
		return fmt.Errorf("%w: %s", ErrPartialRun, strings.Join(names, ", "))
	}
	return nil
}

func printRunSummary(w io.Writer, id, out string, st *pipeline.State) {
	if id != "" {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Project ID"), ValueStyle.Render(id))
	}
	if out != "" {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Report"), ValueStyle.Render(out))
	}
	if id == "" && out == "" {
		// Nothing was persisted, so the report goes to stdout.
		fmt.Fprintln(w, st.Text(pipeline.Renderer))
	}
}
