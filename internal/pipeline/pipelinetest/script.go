// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipelinetest provides a scripted Generator for exercising the
// pipeline without a model behind it.
package pipelinetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jeranaias/planforge/internal/pipeline"
)

// ErrUnscripted is returned for a call from a stage with no scripted reply.
var ErrUnscripted = errors.New("no reply scripted for stage")

// Call is one recorded Generate invocation.
type Call struct {
	Stage  pipeline.StageName
	Prompt string
}

type reply struct {
	text  string
	err   error
	panic any
	fn    func(prompt string) (string, error)
}

// Script answers Generate calls with canned replies keyed by the calling
// stage, as reported by pipeline.StageFromContext. It records every call and
// is safe for concurrent use.
type Script struct {
	mu      sync.Mutex
	replies map[pipeline.StageName]reply
	calls   []Call
}

// New returns an empty Script. Every stage is unscripted until configured.
func New() *Script {
	return &Script{replies: make(map[pipeline.StageName]reply)}
}

// Reply makes stage receive text.
func (s *Script) Reply(stage pipeline.StageName, text string) *Script {
	return s.set(stage, reply{text: text})
}

// Fail makes stage receive err.
func (s *Script) Fail(stage pipeline.StageName, err error) *Script {
	return s.set(stage, reply{err: err})
}

// Panic makes the call from stage panic with v.
func (s *Script) Panic(stage pipeline.StageName, v any) *Script {
	return s.set(stage, reply{panic: v})
}

// Func makes stage answer through fn, which sees the prompt.
func (s *Script) Func(stage pipeline.StageName, fn func(prompt string) (string, error)) *Script {
	return s.set(stage, reply{fn: fn})
}

// Succeed scripts "<stage> output" for every stage.
func Succeed() *Script {
	s := New()
	for _, name := range pipeline.Order {
		s.Reply(name, fmt.Sprintf("%s output", name))
	}
	return s
}

func (s *Script) set(stage pipeline.StageName, r reply) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[stage] = r
	return s
}

// Generate implements pipeline.Generator.
func (s *Script) Generate(ctx context.Context, prompt string) (string, error) {
	stage, _ := pipeline.StageFromContext(ctx)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Stage: stage, Prompt: prompt})
	r, ok := s.replies[stage]
	s.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnscripted, stage)
	}
	if r.panic != nil {
		panic(r.panic)
	}
	if r.fn != nil {
		return r.fn(prompt)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.text, r.err
}

// Calls returns a copy of the recorded calls in invocation order.
func (s *Script) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Stages returns the calling stage of every recorded call, in order.
func (s *Script) Stages() []pipeline.StageName {
	calls := s.Calls()
	stages := make([]pipeline.StageName, len(calls))
	for i, c := range calls {
		stages[i] = c.Stage
	}
	return stages
}

// CallCount returns how many times stage called Generate.
func (s *Script) CallCount(stage pipeline.StageName) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Stage == stage {
			n++
		}
	}
	return n
}

// Prompt returns the prompt of the first call from stage.
func (s *Script) Prompt(stage pipeline.StageName) (string, bool) {
	for _, c := range s.Calls() {
		if c.Stage == stage {
			return c.Prompt, true
		}
	}
	return "", false
}
