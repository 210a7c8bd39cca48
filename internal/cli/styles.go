// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/planforge/internal/pipeline"
	"github.com/jeranaias/planforge/internal/util"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(16)

	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// RenderSeparator renders a horizontal rule of width columns.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 70
	}
	return SeparatorStyle.Render(strings.Repeat("-", width))
}

// RenderLabel renders a fixed-width field label.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}

// RenderStatus renders a slot status as a bracketed tag.
func RenderStatus(status pipeline.Status) string {
	switch status {
	case pipeline.StatusOK:
		return SuccessStyle.Render("[OK]  ")
	case pipeline.StatusError:
		return ErrorStyle.Render("[FAIL]")
	default:
		return DimStyle.Render("[SKIP]")
	}
}

// stageLine formats one progress line for a finished stage.
func stageLine(name pipeline.StageName, out pipeline.Output) string {
	stage := util.PadWidth(string(name), 10)
	elapsed := DimStyle.Render(formatDurationShort(out.Elapsed))
	if out.Failed() {
		detail := util.TruncateWidth(util.OneLine(out.Text), 60)
		return fmt.Sprintf("%s %s %s  %s", RenderStatus(out.Status), stage, elapsed, ErrorStyle.Render(detail))
	}
	return fmt.Sprintf("%s %s %s  %s", RenderStatus(out.Status), stage, elapsed, DimStyle.Render(fmt.Sprintf("%d chars", len(out.Text))))
}

// formatDurationShort formats a short duration for display.
func formatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}
