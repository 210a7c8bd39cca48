// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// SchemaVersion is recorded in the metadata table.
const SchemaVersion = 1

// Schema creates the projects table. List slices are stored as JSON arrays.
// Timestamps are unix nanoseconds so ordering is exact.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    project_type TEXT NOT NULL,
    objectives TEXT NOT NULL,
    industry TEXT NOT NULL DEFAULT '',
    team_members TEXT NOT NULL DEFAULT '[]',
    requirements TEXT NOT NULL DEFAULT '[]',
    input TEXT NOT NULL,
    plan TEXT NOT NULL DEFAULT '',
    plan_status TEXT NOT NULL DEFAULT 'not_run',
    schedule TEXT NOT NULL DEFAULT '',
    schedule_status TEXT NOT NULL DEFAULT 'not_run',
    review TEXT NOT NULL DEFAULT '',
    review_status TEXT NOT NULL DEFAULT 'not_run',
    html_output TEXT NOT NULL DEFAULT '',
    html_status TEXT NOT NULL DEFAULT 'not_run',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);
`

// InitMetadata seeds the schema version.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
