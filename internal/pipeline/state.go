// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"fmt"
	"time"
)

// =============================================================================
// STAGE NAMES
// =============================================================================

// StageName identifies a pipeline stage and, through Field, the state slot it owns.
type StageName string

const (
	Planner   StageName = "planner"
	Scheduler StageName = "scheduler"
	Reviewer  StageName = "reviewer"
	Renderer  StageName = "renderer"
)

// Order is the fixed execution order of the stages.
var Order = []StageName{Planner, Scheduler, Reviewer, Renderer}

// Field returns the name of the state field owned by the stage.
func (n StageName) Field() string {
	switch n {
	case Planner:
		return "plan"
	case Scheduler:
		return "schedule"
	case Reviewer:
		return "review"
	case Renderer:
		return "html_output"
	default:
		return string(n)
	}
}

// =============================================================================
// OUTPUT SLOT
// =============================================================================

// Status is the tri-state of a stage output slot.
type Status int

const (
	StatusNotRun Status = iota
	StatusOK
	StatusError
)

// String returns the storage form of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "not_run"
	}
}

// ParseStatus converts the storage form back into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "", "not_run":
		return StatusNotRun, nil
	case "ok":
		return StatusOK, nil
	case "error":
		return StatusError, nil
	}
	return StatusNotRun, fmt.Errorf("unknown stage status %q", s)
}

// Output is the value held in one stage slot. Text is the generated content
// for StatusOK and the error marker for StatusError.
type Output struct {
	Status  Status
	Text    string
	Err     error
	Elapsed time.Duration
}

// OK reports whether the stage produced real content.
func (o Output) OK() bool { return o.Status == StatusOK }

// Failed reports whether the slot holds an error marker.
func (o Output) Failed() bool { return o.Status == StatusError }

// =============================================================================
// STATE
// =============================================================================

// State is the accumulator threaded through every stage of one run.
// It is allocated per run and must not be shared between concurrent runs.
type State struct {
	Input    string
	Plan     Output
	Schedule Output
	Review   Output
	Rendered Output
}

// NewState returns a State holding input with every output slot NotRun.
func NewState(input string) *State {
	return &State{Input: input}
}

// FromFields builds a State from a field map such as one decoded from a
// request or a test fixture. Missing keys become empty NotRun slots, values
// holding the stage's error marker become Error slots and other non-empty
// values become OK slots.
func FromFields(fields map[string]string) *State {
	st := NewState(fields["input"])
	for _, name := range Order {
		text := fields[name.Field()]
		switch {
		case text == "":
		case IsMarker(name, text):
			st.set(name, Output{Status: StatusError, Text: text})
		default:
			st.set(name, Output{Status: StatusOK, Text: text})
		}
	}
	return st
}

// Fields returns all five fields by name. Every key is always present.
func (s *State) Fields() map[string]string {
	fields := map[string]string{"input": s.InputText()}
	for _, name := range Order {
		fields[name.Field()] = s.Text(name)
	}
	return fields
}

// InputText returns the project description, or "" for a nil State.
func (s *State) InputText() string {
	if s == nil {
		return ""
	}
	return s.Input
}

// Get returns the slot owned by the named stage. A nil State or an unknown
// name yields a zero NotRun Output rather than an error.
func (s *State) Get(name StageName) Output {
	if s == nil {
		return Output{}
	}
	switch name {
	case Planner:
		return s.Plan
	case Scheduler:
		return s.Schedule
	case Reviewer:
		return s.Review
	case Renderer:
		return s.Rendered
	}
	return Output{}
}

// Text returns the text in the named stage's slot, "" if unset.
func (s *State) Text(name StageName) string {
	return s.Get(name).Text
}

// set writes the slot owned by name. Only the pipeline calls it, and only on
// behalf of the owning stage.
func (s *State) set(name StageName, out Output) {
	switch name {
	case Planner:
		s.Plan = out
	case Scheduler:
		s.Schedule = out
	case Reviewer:
		s.Review = out
	case Renderer:
		s.Rendered = out
	}
}

// Failed lists the stages whose slot holds an error marker, in pipeline order.
func (s *State) Failed() []StageName {
	var failed []StageName
	for _, name := range Order {
		if s.Get(name).Failed() {
			failed = append(failed, name)
		}
	}
	return failed
}

// HasErrors reports whether any stage failed.
func (s *State) HasErrors() bool {
	return len(s.Failed()) > 0
}

// Complete reports whether every stage produced real content.
func (s *State) Complete() bool {
	for _, name := range Order {
		if !s.Get(name).OK() {
			return false
		}
	}
	return true
}
