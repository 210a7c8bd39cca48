// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import "context"

// =============================================================================
// STAGES
// =============================================================================

// Stage describes one generative step: the slots it needs and how it turns
// the current State into a prompt. The slot it writes is the one named by
// Name.Field().
type Stage struct {
	Name     StageName
	Requires []StageName
	Prompt   func(st *State) string
}

// DefaultStages returns the four stages in execution order.
func DefaultStages() []Stage {
	return []Stage{
		{Name: Planner, Prompt: plannerPrompt},
		{Name: Scheduler, Requires: []StageName{Planner}, Prompt: schedulerPrompt},
		{Name: Reviewer, Requires: []StageName{Scheduler}, Prompt: reviewerPrompt},
		{Name: Renderer, Requires: []StageName{Planner, Scheduler, Reviewer}, Prompt: rendererPrompt},
	}
}

// Prompt builds the prompt the named stage would send for st.
// It returns false for an unknown stage name.
func Prompt(name StageName, st *State) (string, bool) {
	for _, s := range DefaultStages() {
		if s.Name == name {
			return s.Prompt(st), true
		}
	}
	return "", false
}

// checkPreconditions validates the stage's upstream slots. Emptiness is the
// only test under Cascade; ShortCircuit additionally rejects error markers.
func (p *Pipeline) checkPreconditions(stage Stage, st *State) error {
	for _, up := range stage.Requires {
		out := st.Get(up)
		if p.policy == ShortCircuit && out.Failed() {
			return &upstreamError{upstream: up, failed: true}
		}
		if out.Text == "" {
			return &upstreamError{upstream: up}
		}
	}
	return nil
}

// =============================================================================
// STAGE CONTEXT
// =============================================================================

type stageKey struct{}

// WithStage returns a context carrying the name of the stage making a
// Generator call.
func WithStage(ctx context.Context, name StageName) context.Context {
	return context.WithValue(ctx, stageKey{}, name)
}

// StageFromContext returns the stage name set by WithStage.
func StageFromContext(ctx context.Context) (StageName, bool) {
	name, ok := ctx.Value(stageKey{}).(StageName)
	return name, ok
}
