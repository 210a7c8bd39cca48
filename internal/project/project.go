// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxFileSize bounds request files read by LoadFile.
const MaxFileSize = 1 << 20

// ErrInvalidRequest is wrapped by every Validate failure.
var ErrInvalidRequest = errors.New("invalid project request")

// Request describes a project to plan. The same tags serve JSON request
// bodies and YAML request files.
type Request struct {
	ProjectType  string   `json:"project_type" yaml:"project_type"`
	Objectives   string   `json:"objectives" yaml:"objectives"`
	Industry     string   `json:"industry" yaml:"industry"`
	TeamMembers  []string `json:"team_members" yaml:"team_members"`
	Requirements []string `json:"requirements" yaml:"requirements"`
}

// Validate checks the fields the pipeline prompts depend on. Team members
// are required because the scheduler may only assign listed people.
func (r *Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.ProjectType) == "" {
		problems = append(problems, "project_type is required")
	}
	if strings.TrimSpace(r.Objectives) == "" {
		problems = append(problems, "objectives is required")
	}
	if len(nonBlank(r.TeamMembers)) == 0 {
		problems = append(problems, "at least one team member is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// Format renders the request as the markdown block fed to the planner.
// Output depends only on field values, so equal requests format equally.
func (r *Request) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "**Project Type:** %s\n\n", strings.TrimSpace(r.ProjectType))
	fmt.Fprintf(&b, "**Project Objectives:** %s\n\n", strings.TrimSpace(r.Objectives))
	fmt.Fprintf(&b, "**Industry:** %s\n\n", strings.TrimSpace(r.Industry))

	b.WriteString("**Team Members:**\n")
	writeList(&b, r.TeamMembers)
	b.WriteString("\n**Project Requirements:**\n")
	writeList(&b, r.Requirements)

	return b.String()
}

func writeList(b *strings.Builder, items []string) {
	for _, item := range nonBlank(items) {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// LoadFile reads a request from a .yaml, .yml or .json file. JSON is parsed
// by the YAML decoder, which accepts it as a subset. Unknown keys are an
// error so typos in field names surface early.
func LoadFile(path string) (*Request, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("unsupported request file type %q (want .yaml, .yml or .json)", ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("request file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML or JSON request document and validates it.
func Parse(data []byte) (*Request, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
