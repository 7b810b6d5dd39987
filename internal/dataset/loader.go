package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Loader error kinds. Every load error wraps exactly one of these.
var (
	ErrFileNotFound  = errors.New("data file not found")
	ErrParse         = errors.New("malformed data file")
	ErrMissingColumn = errors.New("missing required column")
)

// Column names expected in the source files.
const (
	ColDate          = "date"
	ColState         = "state"
	ColCasesNew      = "cases_new"
	ColAdmittedTotal = "admitted_total"
	ColBeds          = "beds"
	ColBedsCovid     = "beds_covid"
)

// Loader reads the source CSV files from a single data directory.
type Loader struct {
	Dir string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// LoadCases parses the case dataset.
func (l *Loader) LoadCases(name string) ([]CaseRecord, error) {
	t, err := l.readTable(name, ColDate, ColState, ColCasesNew)
	if err != nil {
		return nil, err
	}

	records := make([]CaseRecord, 0, len(t.rows))
	for i, row := range t.rows {
		date, err := t.date(row, i)
		if err != nil {
			return nil, err
		}
		cases, err := t.number(row, i, ColCasesNew)
		if err != nil {
			return nil, err
		}
		records = append(records, CaseRecord{
			Date:     date,
			State:    t.text(row, ColState),
			NewCases: cases,
		})
	}
	return records, nil
}

// LoadHospital parses the hospital capacity dataset.
func (l *Loader) LoadHospital(name string) ([]HospitalRecord, error) {
	t, err := l.readTable(name, ColDate, ColState, ColAdmittedTotal, ColBeds, ColBedsCovid)
	if err != nil {
		return nil, err
	}

	records := make([]HospitalRecord, 0, len(t.rows))
	for i, row := range t.rows {
		date, err := t.date(row, i)
		if err != nil {
			return nil, err
		}
		admitted, err := t.number(row, i, ColAdmittedTotal)
		if err != nil {
			return nil, err
		}
		beds, err := t.number(row, i, ColBeds)
		if err != nil {
			return nil, err
		}
		covid, err := t.number(row, i, ColBedsCovid)
		if err != nil {
			return nil, err
		}
		records = append(records, HospitalRecord{
			Date:          date,
			State:         t.text(row, ColState),
			AdmittedTotal: admitted,
			Beds:          beds,
			BedsCovid:     covid,
		})
	}
	return records, nil
}

// table is a parsed CSV file with a header index.
type table struct {
	path   string
	header map[string]int
	rows   [][]string
}

func (l *Loader) readTable(name string, required ...string) (*table, error) {
	path := filepath.Join(l.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	head, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty file", ErrParse, path)
		}
		return nil, fmt.Errorf("%w: %s: reading header: %v", ErrParse, path, err)
	}

	header := make(map[string]int, len(head))
	for i, h := range head {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		header[strings.ToLower(h)] = i
	}
	for _, col := range required {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("%w: %s has no %q column", ErrMissingColumn, path, col)
		}
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return &table{path: path, header: header, rows: rows}, nil
}

func (t *table) text(row []string, col string) string {
	return strings.TrimSpace(row[t.header[col]])
}

// line returns the 1-based file line of data row i (the header is line 1).
func line(i int) int { return i + 2 }

func (t *table) date(row []string, i int) (time.Time, error) {
	raw := t.text(row, ColDate)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s line %d: empty date", ErrParse, t.path, line(i))
	}
	parsed, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s line %d: date %q: %v", ErrParse, t.path, line(i), raw, err)
	}
	return calendarDay(parsed), nil
}

func (t *table) number(row []string, i int, col string) (float64, error) {
	raw := t.text(row, col)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s line %d: column %q: %v", ErrParse, t.path, line(i), col, err)
	}
	// NaN marks a missing value, like an empty cell.
	if math.IsNaN(v) {
		return 0, nil
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s line %d: column %q: infinite value %q", ErrParse, t.path, line(i), col, raw)
	}
	return v, nil
}

// calendarDay drops the time-of-day, keeping the date in UTC.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveDataDir resolves a relative data directory. The directory next to
// the running executable wins; otherwise the path is taken relative to the
// working directory.
func ResolveDataDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), dir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}
