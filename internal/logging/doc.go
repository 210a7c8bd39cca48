// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the *slog.Logger shared by the server, the CLI and
// the pipeline driver.
//
// Loggers are created once at startup from the [log] config section and
// passed down explicitly; nothing in planforge logs through a package-level
// default. Text output is the default. JSON output is meant for log
// collectors. When a file is configured, records are appended to it instead
// of going to stderr.
package logging
