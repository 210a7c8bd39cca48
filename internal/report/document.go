// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"
)

// =============================================================================
// LOCAL DOCUMENT
// =============================================================================

// Sections holds the markdown inputs of a report.
type Sections struct {
	Title       string
	Summary     string
	Plan        string
	Schedule    string
	Review      string
	GeneratedAt time.Time
}

// Document renders a complete standalone HTML report: Project Summary,
// Project Plan, Project Schedule and Review Feedback in that order. Markdown
// tables become <table> elements with <thead> and <tbody>, so every schedule
// row counted by ScheduleRows appears in the output. Raw HTML in the inputs
// is not passed through.
func Document(s Sections) (string, error) {
	title := s.Title
	if title == "" {
		title = "Project Report"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(title)))
	sb.WriteString("    <meta name=\"generator\" content=\"planforge\">\n")
	if !s.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", s.GeneratedAt.Format(time.RFC3339)))
	}
	sb.WriteString(css)
	sb.WriteString("</head>\n")
	sb.WriteString("<body>\n")
	sb.WriteString("    <div class=\"container\">\n")
	sb.WriteString(fmt.Sprintf("        <h1>%s</h1>\n", html.EscapeString(title)))

	sections := []struct {
		id, heading, body string
	}{
		{"summary", "Project Summary", s.Summary},
		{"plan", "Project Plan", s.Plan},
		{"schedule", "Project Schedule", s.Schedule},
		{"review", "Review Feedback", s.Review},
	}
	for _, sec := range sections {
		rendered, err := renderMarkdown(sec.body)
		if err != nil {
			return "", fmt.Errorf("failed to render %s section: %w", sec.id, err)
		}
		sb.WriteString(fmt.Sprintf("        <section id=\"%s\">\n", sec.id))
		sb.WriteString(fmt.Sprintf("            <h2>%s</h2>\n", sec.heading))
		sb.WriteString(rendered)
		sb.WriteString("        </section>\n")
	}

	sb.WriteString("    </div>\n")
	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return sb.String(), nil
}

func renderMarkdown(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "<p><em>Not available.</em></p>\n", nil
	}
	var buf bytes.Buffer
	if err := markdownEngine().Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const css = `    <style>
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; color: #222; margin: 0; background: #f7f7f9; }
        .container { max-width: 960px; margin: 0 auto; padding: 24px; background: #fff; }
        h1 { border-bottom: 2px solid #3b82f6; padding-bottom: 8px; }
        h2 { margin-top: 32px; color: #1e3a8a; }
        section { margin-bottom: 24px; }
        table { border-collapse: collapse; width: 100%; margin: 12px 0; }
        th, td { border: 1px solid #ccc; padding: 8px 10px; text-align: left; }
        th { background: #eef2ff; }
        tr:nth-child(even) td { background: #fafafa; }
        @media (max-width: 640px) { .container { padding: 12px; } th, td { padding: 6px; } }
    </style>
`

// =============================================================================
// ERROR DOCUMENT
// =============================================================================

const errorBodyClass = `<body class="generation-error">`

// ErrorDocument returns a minimal valid HTML document reporting a failure.
// heading and detail are escaped.
func ErrorDocument(heading, detail string) string {
	return "<!DOCTYPE html>\n<html>\n<head><meta charset=\"UTF-8\"><title>" +
		html.EscapeString(heading) + "</title></head>\n" +
		errorBodyClass + "<h1>" + html.EscapeString(heading) + "</h1><p>" +
		html.EscapeString(detail) + "</p></body>\n</html>\n"
}

// IsErrorDocument reports whether text was produced by ErrorDocument or
// carries the plain "<h1>Error generating HTML</h1>" failure heading.
func IsErrorDocument(text string) bool {
	return strings.Contains(text, errorBodyClass) ||
		strings.Contains(text, "<h1>Error generating HTML</h1>")
}
