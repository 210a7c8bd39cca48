// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/planforge/internal/cloud"
	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/ollama"
	"github.com/jeranaias/planforge/internal/project"
	"github.com/jeranaias/planforge/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitPartialRun    = 6
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// ErrPartialRun is returned by run when at least one stage failed. The
// outputs are still written.
var ErrPartialRun = errors.New("pipeline completed with failed stages")

// CommandError adds the failing command and action to an error.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func commandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	var verrs config.ValidateErrors
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrPartialRun):
		return ExitPartialRun
	case errors.Is(err, storage.ErrProjectNotFound):
		return ExitNotFoundError
	case errors.Is(err, cloud.ErrNotConfigured), errors.As(err, &verrs), ollama.IsModelNotFound(err):
		return ExitConfigError
	case errors.Is(err, cloud.ErrAuthFailed):
		return ExitAuthError
	case ollama.IsNotRunning(err):
		return ExitNetworkError
	case errors.Is(err, context.DeadlineExceeded), ollama.IsTimeout(err):
		return ExitTimeoutError
	case errors.Is(err, project.ErrInvalidRequest):
		return ExitUsageError
	}
	return ExitGeneralError
}
