package store

// Schema contains the complete DDL for the tracker tables.
const Schema = `
-- Applications in insertion order. id is the public identifier.
CREATE TABLE IF NOT EXISTS applications (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         INTEGER NOT NULL UNIQUE,
    company    TEXT NOT NULL,
    position   TEXT NOT NULL,
    date       TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL DEFAULT 'applied',
    notes      TEXT NOT NULL DEFAULT '',
    source     TEXT NOT NULL DEFAULT '',
    url        TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_applications_dedup ON applications(company, position, created_at);

-- Singleton settings row, stored as JSON so new fields need no migration.
CREATE TABLE IF NOT EXISTS settings (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    data       TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Singleton pending detected job. Local state, never exported.
CREATE TABLE IF NOT EXISTS pending_job (
    id      INTEGER PRIMARY KEY CHECK (id = 1),
    data    TEXT NOT NULL,
    held_at INTEGER NOT NULL
);
`
