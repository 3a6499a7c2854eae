// Package sqldocs exposes the run-registry DDL bundles directly from the
// docs tree, so the persistence backends and the documentation cannot drift
// apart.
package sqldocs

import _ "embed"

// SQLite contains the run-registry SQLite DDL bundle.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the run-registry Postgres DDL bundle.
//
//go:embed postgres.sql
var Postgres string
