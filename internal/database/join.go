package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/TobiSchelling/healthcap/internal/dataset"
)

// joinedSQL returns the case/hospital join for a policy. Rows follow the
// case file order, then the hospital file order for duplicate keys. The
// ratio is NULL when there is no hospital row or beds is zero.
func joinedSQL(policy dataset.JoinPolicy) (string, error) {
	var join string
	switch policy {
	case dataset.JoinInner, "":
		join = "INNER JOIN"
	case dataset.JoinLeft:
		join = "LEFT JOIN"
	default:
		return "", fmt.Errorf("unknown join policy %q", policy)
	}

	return fmt.Sprintf(`
SELECT
    c.date,
    c.state,
    c.cases_new,
    COALESCE(h.admitted_total, 0) AS admitted_total,
    COALESCE(h.beds, 0) AS beds,
    COALESCE(h.beds_covid, 0) AS beds_covid,
    CAST(strftime('%%Y', c.date) AS INTEGER) AS year,
    CAST(strftime('%%m', c.date) AS INTEGER) AS month,
    CASE WHEN h.beds <> 0 THEN h.admitted_total * 100.0 / h.beds END AS ratio,
    h.seq IS NOT NULL AS has_hospital
FROM cases c
%s hospital h ON h.date = c.date AND h.state = c.state`, join), nil
}

// JoinedRecords returns the joined rows for policy in source order.
func (db *DB) JoinedRecords(ctx context.Context, policy dataset.JoinPolicy) ([]dataset.JoinedRecord, error) {
	base, err := joinedSQL(policy)
	if err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, base+"\nORDER BY c.seq, h.seq")
	if err != nil {
		return nil, fmt.Errorf("querying joined records: %w", err)
	}
	defer rows.Close()

	var records []dataset.JoinedRecord
	for rows.Next() {
		var (
			r     dataset.JoinedRecord
			date  string
			ratio sql.NullFloat64
		)
		if err := rows.Scan(&date, &r.State, &r.NewCases, &r.AdmittedTotal, &r.Beds, &r.BedsCovid,
			&r.Year, &r.Month, &ratio, &r.HasHospital); err != nil {
			return nil, fmt.Errorf("scanning joined record: %w", err)
		}
		r.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing staged date %q: %w", date, err)
		}
		if ratio.Valid {
			r.CapacityRatio = ratio.Float64
			r.RatioDefined = true
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// MonthlyAverages groups the joined rows by year and month. The mean skips
// undefined ratios; a group with none defined averages to 0.
func (db *DB) MonthlyAverages(ctx context.Context, policy dataset.JoinPolicy) ([]dataset.MonthlyAverage, error) {
	base, err := joinedSQL(policy)
	if err != nil {
		return nil, err
	}

	query := `
SELECT year, month, COALESCE(AVG(ratio), 0), COUNT(*)
FROM (` + base + `)
GROUP BY year, month
ORDER BY year, month`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying monthly averages: %w", err)
	}
	defer rows.Close()

	var out []dataset.MonthlyAverage
	for rows.Next() {
		var m dataset.MonthlyAverage
		if err := rows.Scan(&m.Year, &m.Month, &m.MeanRatio, &m.Records); err != nil {
			return nil, fmt.Errorf("scanning monthly average: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// JoinReport counts matched rows and rows present in only one source.
func (db *DB) JoinReport(ctx context.Context, policy dataset.JoinPolicy) (dataset.JoinReport, error) {
	if policy == "" {
		policy = dataset.JoinInner
	}
	if _, err := joinedSQL(policy); err != nil {
		return dataset.JoinReport{}, err
	}

	rep := dataset.JoinReport{Policy: policy}
	err := db.conn.QueryRowContext(ctx, `
SELECT
    (SELECT COUNT(*) FROM cases c JOIN hospital h ON h.date = c.date AND h.state = c.state),
    (SELECT COUNT(*) FROM cases c WHERE NOT EXISTS
        (SELECT 1 FROM hospital h WHERE h.date = c.date AND h.state = c.state)),
    (SELECT COUNT(*) FROM hospital h WHERE NOT EXISTS
        (SELECT 1 FROM cases c WHERE c.date = h.date AND c.state = h.state))`,
	).Scan(&rep.Matched, &rep.CasesOnly, &rep.HospitalOnly)
	if err != nil {
		return dataset.JoinReport{}, fmt.Errorf("counting join coverage: %w", err)
	}
	return rep, nil
}
