// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by planforge packages.
//
//   - AtomicWriteFile: crash-safe file writes (config files, exported reports)
//   - TruncateRunes: UTF-8 safe truncation for log previews
//   - TruncateWidth: display-width truncation for terminal tables
//   - OneLine: collapse multi-line text into a single display line
package util
