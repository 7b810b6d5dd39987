package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "staging tables",
		Up: func(tx *sql.Tx) error {
			// seq preserves source file order; dates are stored as YYYY-MM-DD.
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS cases (
    seq INTEGER PRIMARY KEY,
    date TEXT NOT NULL,
    state TEXT NOT NULL,
    cases_new REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS hospital (
    seq INTEGER PRIMARY KEY,
    date TEXT NOT NULL,
    state TEXT NOT NULL,
    admitted_total REAL NOT NULL DEFAULT 0,
    beds REAL NOT NULL DEFAULT 0,
    beds_covid REAL NOT NULL DEFAULT 0
);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "join key indexes",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_cases_key ON cases(date, state);
CREATE INDEX IF NOT EXISTS idx_hospital_key ON hospital(date, state);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
