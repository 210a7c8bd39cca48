// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/planforge/internal/report"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingUpstream is matched by precondition failures: a required
	// upstream slot is empty.
	ErrMissingUpstream = errors.New("missing upstream output")

	// ErrUpstreamFailed is matched when a required upstream slot holds an
	// error marker and the ShortCircuit policy is in effect.
	ErrUpstreamFailed = errors.New("upstream stage failed")

	// ErrEmptyResponse is returned when the Generator succeeds with no text.
	ErrEmptyResponse = errors.New("generator returned an empty response")

	// ErrNoGenerator is returned when the pipeline was built without a Generator.
	ErrNoGenerator = errors.New("no generator configured")
)

// ErrorKind separates the two ways a stage can fail.
type ErrorKind int

const (
	// KindCapability covers every Generator failure: transport, timeout,
	// quota, malformed or empty response.
	KindCapability ErrorKind = iota
	// KindPrecondition covers missing or failed upstream output.
	KindPrecondition
)

func (k ErrorKind) String() string {
	if k == KindPrecondition {
		return "precondition"
	}
	return "capability"
}

// StageError is the failure recorded in Output.Err when a stage fails.
type StageError struct {
	Stage StageName
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// upstreamError describes an unusable upstream slot.
type upstreamError struct {
	upstream StageName
	failed   bool
}

func (e *upstreamError) Error() string {
	if e.failed {
		return fmt.Sprintf("%s stage failed upstream", e.upstream)
	}
	return fmt.Sprintf("no %s available from previous step", e.upstream.Field())
}

func (e *upstreamError) Is(target error) bool {
	if e.failed {
		return target == ErrUpstreamFailed
	}
	return target == ErrMissingUpstream
}

// =============================================================================
// ERROR MARKERS
// =============================================================================

// markerSubject is the noun used in a stage's error marker.
func markerSubject(name StageName) string {
	switch name {
	case Planner:
		return "plan"
	case Scheduler:
		return "schedule"
	case Reviewer:
		return "review"
	case Renderer:
		return "HTML"
	}
	return string(name)
}

// MarkerPrefix returns the prefix every error marker of the stage starts with.
// The Renderer's marker is a small HTML document and is recognised by
// IsMarker instead.
func MarkerPrefix(name StageName) string {
	return "Error generating " + markerSubject(name) + ":"
}

// Marker builds the text a failed stage writes into its slot.
func Marker(name StageName, err error) string {
	if name == Renderer {
		return report.ErrorDocument("Error generating "+markerSubject(name), err.Error())
	}
	return MarkerPrefix(name) + " " + err.Error()
}

// IsMarker reports whether text is an error marker written by the stage.
// Callers that only have the stored strings use it to tell a partial result
// from a complete one.
func IsMarker(name StageName, text string) bool {
	if name == Renderer {
		return report.IsErrorDocument(text)
	}
	return strings.HasPrefix(text, MarkerPrefix(name))
}
