package store

// schemaSQL defines the SQLite schema for an exported catalog.
// Tables:
//   - structures: one row per structure, in catalog order
//   - members: ordered members of each structure
//   - run_stats: conversion counters keyed by name
//   - failures: documents that could not be read
const schemaSQL = `
CREATE TABLE IF NOT EXISTS structures (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    parent TEXT NOT NULL DEFAULT '',
    kind TEXT NOT NULL,
    size INTEGER NOT NULL,
    document TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS members (
    structure_id INTEGER NOT NULL REFERENCES structures(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    byte_offset INTEGER NOT NULL,
    byte_size INTEGER NOT NULL,
    PRIMARY KEY (structure_id, position)
);

CREATE TABLE IF NOT EXISTS run_stats (
    key TEXT PRIMARY KEY,
    value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS failures (
    document TEXT NOT NULL,
    error TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_structures_name ON structures(name);
CREATE INDEX IF NOT EXISTS idx_structures_parent ON structures(parent);
CREATE INDEX IF NOT EXISTS idx_members_name ON members(name);
`

// initSchema creates the database tables and indexes if they don't exist.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	return err
}
