// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jeranaias/planforge/internal/logging"
	"github.com/jeranaias/planforge/internal/report"
	"github.com/jeranaias/planforge/internal/util"
)

// =============================================================================
// GENERATOR
// =============================================================================

// Generator is the text generation capability every stage calls once.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// =============================================================================
// POLICY
// =============================================================================

// Policy decides what a stage does when a required upstream slot holds an
// error marker.
type Policy int

const (
	// Cascade treats an upstream marker as content: it is non-empty, so the
	// precondition passes and the marker is embedded in the next prompt.
	Cascade Policy = iota
	// ShortCircuit fails the stage without calling the Generator.
	ShortCircuit
)

func (p Policy) String() string {
	if p == ShortCircuit {
		return "short-circuit"
	}
	return "cascade"
}

// ParsePolicy accepts "cascade", "short-circuit" and "short_circuit".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cascade":
		return Cascade, nil
	case "short-circuit", "short_circuit", "shortcircuit":
		return ShortCircuit, nil
	}
	return Cascade, fmt.Errorf("unknown pipeline policy %q", s)
}

// =============================================================================
// OPTIONS
// =============================================================================

// Observer is called after each stage writes its slot.
type Observer func(name StageName, out Output)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPolicy sets the upstream-error policy. The default is Cascade.
func WithPolicy(policy Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithLogger sets the logger for stage progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers a callback invoked after every stage.
func WithObserver(fn Observer) Option {
	return func(p *Pipeline) { p.observer = fn }
}

// WithRowCheck makes the Renderer log a warning when the rendered document
// has a different number of table rows than the schedule. The slot is never
// changed.
func WithRowCheck(enabled bool) Option {
	return func(p *Pipeline) { p.checkRows = enabled }
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline drives the stages in order against one State per run.
// A Pipeline holds no per-run data and is safe for concurrent Run calls when
// its Generator is.
type Pipeline struct {
	gen       Generator
	stages    []Stage
	policy    Policy
	logger    *slog.Logger
	observer  Observer
	checkRows bool
}

// New creates a Pipeline around gen.
func New(gen Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:    gen,
		stages: DefaultStages(),
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Policy returns the configured upstream-error policy.
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// Run executes Planner, Scheduler, Reviewer and Renderer in order and
// returns st. It never fails: each stage records its own failure in its slot.
// A nil st is treated as an empty input.
func (p *Pipeline) Run(ctx context.Context, st *State) *State {
	if st == nil {
		st = NewState("")
	}
	start := time.Now()
	p.logger.Info("pipeline started", "policy", p.policy.String(), "input_chars", len(st.Input))

	for _, stage := range p.stages {
		p.runStage(ctx, stage, st)
	}

	p.logger.Info("pipeline finished",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"failed", len(st.Failed()))
	return st
}

// RunStage executes a single stage against st. The error is only for an
// unknown stage name; stage failures are recorded in st.
func (p *Pipeline) RunStage(ctx context.Context, name StageName, st *State) (*State, error) {
	if st == nil {
		st = NewState("")
	}
	for _, stage := range p.stages {
		if stage.Name == name {
			p.runStage(ctx, stage, st)
			return st, nil
		}
	}
	return st, fmt.Errorf("unknown stage %q", name)
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage, st *State) {
	log := p.logger.With("stage", string(stage.Name))
	log.Info("stage started")

	start := time.Now()
	text, err := p.execute(ctx, stage, st)
	elapsed := time.Since(start)

	var out Output
	if err != nil {
		out = Output{Status: StatusError, Text: Marker(stage.Name, err), Err: err, Elapsed: elapsed}
		log.Error("stage failed", "kind", errorKind(err).String(), "error", err)
	} else {
		out = Output{Status: StatusOK, Text: text, Elapsed: elapsed}
		log.Info("stage completed", "chars", len(text), "elapsed", elapsed.Round(time.Millisecond))
		log.Debug("stage output", "preview", util.TruncateRunes(text, 200))
	}
	st.set(stage.Name, out)

	if stage.Name == Renderer && out.OK() && p.checkRows {
		p.checkTableRows(log, st)
	}
	if p.observer != nil {
		p.observer(stage.Name, out)
	}
}

// execute validates preconditions and calls the Generator once.
func (p *Pipeline) execute(ctx context.Context, stage Stage, st *State) (string, error) {
	if err := p.checkPreconditions(stage, st); err != nil {
		return "", &StageError{Stage: stage.Name, Kind: KindPrecondition, Err: err}
	}
	if p.gen == nil {
		return "", &StageError{Stage: stage.Name, Kind: KindCapability, Err: ErrNoGenerator}
	}

	text, err := p.generate(WithStage(ctx, stage.Name), stage.Prompt(st))
	if err != nil {
		return "", &StageError{Stage: stage.Name, Kind: KindCapability, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &StageError{Stage: stage.Name, Kind: KindCapability, Err: ErrEmptyResponse}
	}
	return text, nil
}

// generate calls the Generator, turning a panic into an error so one broken
// capability call cannot end the run.
func (p *Pipeline) generate(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panic: %v", r)
		}
	}()
	return p.gen.Generate(ctx, prompt)
}

// checkTableRows compares the schedule's markdown table rows with the rows of
// the rendered document's schedule tables.
func (p *Pipeline) checkTableRows(log *slog.Logger, st *State) {
	if !st.Schedule.OK() {
		return
	}
	want := report.CountRows(report.ScheduleRows(st.Schedule.Text))
	if want == 0 {
		return
	}
	got := report.ScheduleTableRows(st.Rendered.Text)
	if got != want {
		log.Warn("rendered schedule table row count differs", "schedule_rows", want, "rendered_rows", got)
	}
}

func errorKind(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindCapability
}
