// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/storage"
	"github.com/jeranaias/planforge/internal/util"
)

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.openStore()
			if err != nil {
				return commandError("list", "open storage", err)
			}
			defer repo.Close()

			summaries, err := repo.List(cmd.Context())
			if err != nil {
				return commandError("list", "query", err)
			}
			writeProjectList(cmd.OutOrStdout(), summaries, terminalWidth(cmd.OutOrStdout()))
			return nil
		},
	}
}

// writeProjectList prints one row per project, fitting objectives into the
// remaining terminal width.
func writeProjectList(w io.Writer, summaries []storage.Summary, width int) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No projects found."))
		return
	}

	const idW, dateW, typeW = 36, 16, 20
	objW := width - idW - dateW - typeW - 3
	if objW < 10 {
		objW = 10
	}

	header := strings.Join([]string{
		util.PadWidth("ID", idW), util.PadWidth("CREATED", dateW), util.PadWidth("TYPE", typeW), "OBJECTIVES",
	}, " ")
	fmt.Fprintln(w, TitleStyle.Render(header))

	for _, s := range summaries {
		fmt.Fprintln(w, strings.Join([]string{
			util.PadWidth(s.ID, idW),
			util.PadWidth(s.CreatedAt.Local().Format("2006-01-02 15:04"), dateW),
			util.PadWidth(s.ProjectType, typeW),
			util.TruncateWidth(util.OneLine(s.Objectives), objW),
		}, " "))
	}
}

// sections maps --section values to state slots.
var sections = map[string]pipeline.StageName{
	"plan":     pipeline.Planner,
	"schedule": pipeline.Scheduler,
	"review":   pipeline.Reviewer,
	"html":     pipeline.Renderer,
}

func (a *app) showCommand() *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored project's outputs",
		Long: `Show the plan, schedule and review of a stored project. Markdown is
rendered for the terminal when stdout is a TTY. --section html prints the
rendered report as-is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openStore()
			if err != nil {
				return commandError("show", "open storage", err)
			}
			defer repo.Close()

			p, err := repo.Get(cmd.Context(), args[0])
			if err != nil {
				return commandError("show", "load "+args[0], err)
			}

			out := cmd.OutOrStdout()
			return writeProject(out, p, section, isTerminal(out), terminalWidth(out))
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "plan, schedule, review or html (default: all markdown sections)")
	return cmd
}

func writeProject(w io.Writer, p *storage.Project, section string, tty bool, width int) error {
	st := p.State()

	if section != "" {
		name, ok := sections[section]
		if !ok {
			return fmt.Errorf("unknown section %q (want plan, schedule, review or html)", section)
		}
		if name == pipeline.Renderer {
			fmt.Fprintln(w, st.Text(name))
			return nil
		}
		fmt.Fprint(w, renderMarkdown(st.Text(name), tty, width))
		return nil
	}

	fmt.Fprintf(w, "%s%s\n", RenderLabel("Project"), ValueStyle.Render(p.ID))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Type"), ValueStyle.Render(p.ProjectType))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Created"), ValueStyle.Render(p.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	for _, name := range pipeline.Order {
		fmt.Fprintf(w, "%s%s\n", RenderLabel(stageTitle(name)), RenderStatus(st.Get(name).Status))
	}

	for _, name := range []pipeline.StageName{pipeline.Planner, pipeline.Scheduler, pipeline.Reviewer} {
		fmt.Fprintln(w, RenderSeparator(min(width, 70)))
		fmt.Fprint(w, renderMarkdown(st.Text(name), tty, width))
		fmt.Fprintln(w)
	}
	return nil
}

// renderMarkdown renders md with glamour for a terminal and returns it
// unchanged otherwise or when rendering fails.
func renderMarkdown(md string, tty bool, width int) string {
	if !tty {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width, 100)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.openStore()
			if err != nil {
				return commandError("delete", "open storage", err)
			}
			defer repo.Close()

			if err := repo.Delete(cmd.Context(), args[0]); err != nil {
				return commandError("delete", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %s\n", SuccessStyle.Render("[OK]"), args[0])
			return nil
		},
	}
}

func stageTitle(name pipeline.StageName) string {
	s := string(name)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
