// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report inspects and builds the HTML project report.
//
// ScheduleRows and ScheduleTableRows count schedule data rows on both sides
// of the Renderer stage so a caller can check that no schedule row was
// dropped. Tables in other sections of the report are not counted.
// Document renders a deterministic standalone report from the markdown stage
// outputs without a model, and ErrorDocument builds the small document the
// Renderer writes when it fails.
package report
