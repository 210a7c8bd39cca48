// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline runs the fixed four-stage document generation pipeline.
//
// A project description flows through Planner, Scheduler, Reviewer and
// Renderer in that order. Every stage reads the outputs of the stages before
// it from a shared State, calls the Generator exactly once, and writes its own
// output slot. A stage never aborts the run: capability failures and missing
// upstream output are written into the stage's slot as an error marker, so
// Run always returns a State with all four slots populated.
//
// # Key Types
//
//   - State: per-run accumulator (input plus one Output per stage)
//   - Output: tri-state slot value (NotRun, Ok, Error) holding text
//   - Generator: the text generation capability, injected at construction
//   - Pipeline: the driver; Run executes all stages, RunStage executes one
//   - Policy: what a stage does when an upstream slot holds an error marker
//
// # Usage
//
//	p := pipeline.New(generator, pipeline.WithLogger(logger))
//	st := p.Run(ctx, pipeline.NewState(input))
//	if st.HasErrors() {
//	    log.Printf("partial result, failed stages: %v", st.Failed())
//	}
//
// # Upstream Errors
//
// Under the default Cascade policy a marker left by an upstream stage is
// ordinary non-empty text to the stages after it, and is embedded into their
// prompts. ShortCircuit makes a stage skip the Generator and write its own
// marker when a required upstream slot is in the Error state.
package pipeline
