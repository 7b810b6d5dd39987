package database

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/healthcap/internal/dataset"
)

const dateLayout = "2006-01-02"

// InsertCases appends case records in order; seq follows slice order.
func (db *DB) InsertCases(ctx context.Context, records []dataset.CaseRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert cases: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO cases (date, state, cases_new) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing case insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Date.Format(dateLayout), r.State, r.NewCases); err != nil {
			return fmt.Errorf("inserting case %s/%s: %w", r.Date.Format(dateLayout), r.State, err)
		}
	}
	return tx.Commit()
}

// InsertHospital appends hospital records in order; seq follows slice order.
func (db *DB) InsertHospital(ctx context.Context, records []dataset.HospitalRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert hospital: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO hospital (date, state, admitted_total, beds, beds_covid) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing hospital insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Date.Format(dateLayout), r.State, r.AdmittedTotal, r.Beds, r.BedsCovid); err != nil {
			return fmt.Errorf("inserting hospital %s/%s: %w", r.Date.Format(dateLayout), r.State, err)
		}
	}
	return tx.Commit()
}

// StagedCounts returns the number of staged case and hospital rows.
func (db *DB) StagedCounts(ctx context.Context) (cases, hospital int, err error) {
	err = db.conn.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM cases), (SELECT COUNT(*) FROM hospital)",
	).Scan(&cases, &hospital)
	return cases, hospital, err
}

// ResetStaging empties both staging tables so a file-backed database can be
// reused across runs.
func (db *DB) ResetStaging(ctx context.Context) error {
	for _, table := range []string{"cases", "hospital"} {
		if _, err := db.conn.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("resetting %s: %w", table, err)
		}
	}
	return nil
}
