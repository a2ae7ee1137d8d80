// Package postgres holds the canonical database schema.
package postgres

import _ "embed"

//go:embed schema.sql
var schema string

// Schema returns the DDL for all tables, indexes and sequences. Statements
// are idempotent so it can be applied to an existing database.
func Schema() string {
	return schema
}
