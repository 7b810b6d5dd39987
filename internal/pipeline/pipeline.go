package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"

	"github.com/TobiSchelling/healthcap/internal/config"
	"github.com/TobiSchelling/healthcap/internal/database"
	"github.com/TobiSchelling/healthcap/internal/dataset"
	"github.com/TobiSchelling/healthcap/internal/logging"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Failed returns the first failed step, or nil.
func (r *Result) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Err != nil {
			return &r.Steps[i]
		}
	}
	return nil
}

// Pipeline loads both source files, joins them in the staging database and
// derives the summary and monthly aggregates.
type Pipeline struct {
	dataDir      string
	casesFile    string
	hospitalFile string
	stagingDB    string
	policy       dataset.JoinPolicy
	clock        clockwork.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used to stamp the dataset.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithDataDir overrides the configured data directory.
func WithDataDir(dir string) Option {
	return func(p *Pipeline) { p.dataDir = dir }
}

// New creates a new pipeline.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		dataDir:      cfg.GetDataDir(),
		casesFile:    cfg.Data.CasesFile,
		hospitalFile: cfg.Data.HospitalFile,
		stagingDB:    cfg.Data.StagingDB,
		policy:       cfg.Policy(),
		clock:        clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes Load, Stage, Join, Summarize and Aggregate. Any failure is
// fatal: the returned Result lists the steps up to and including the
// failed one.
func (p *Pipeline) Run(ctx context.Context) (*dataset.Dataset, *Result, error) {
	r := &Result{}
	fail := func(name string, err error) (*dataset.Dataset, *Result, error) {
		r.Steps = append(r.Steps, StepResult{Name: name, Err: err})
		return nil, r, fmt.Errorf("%s: %w", name, err)
	}

	// Step 1: Load
	logging.Info().Str("dir", p.dataDir).Msg("Step 1/5: Loading source files")
	loader := dataset.NewLoader(p.dataDir)
	cases, err := loader.LoadCases(p.casesFile)
	if err != nil {
		return fail("Load", err)
	}
	hospital, err := loader.LoadHospital(p.hospitalFile)
	if err != nil {
		return fail("Load", err)
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Load",
		Summary: fmt.Sprintf("Read %s case rows from %s and %s hospital rows from %s",
			humanize.Comma(int64(len(cases))), filepath.Base(p.casesFile),
			humanize.Comma(int64(len(hospital))), filepath.Base(p.hospitalFile)),
	})

	// Step 2: Stage
	logging.Info().Msg("Step 2/5: Staging rows")
	db, err := database.Open(p.stagingDB)
	if err != nil {
		return fail("Stage", err)
	}
	defer db.Close()

	if err := p.stage(ctx, db, cases, hospital); err != nil {
		return fail("Stage", err)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Stage",
		Summary: fmt.Sprintf("Staged into %s", db.Path()),
	})

	// Step 3: Join
	logging.Info().Str("policy", string(p.policy)).Msg("Step 3/5: Joining cases with hospital data")
	records, err := db.JoinedRecords(ctx, p.policy)
	if err != nil {
		return fail("Join", err)
	}
	report, err := db.JoinReport(ctx, p.policy)
	if err != nil {
		return fail("Join", err)
	}
	logJoin(report, len(records))
	r.Steps = append(r.Steps, StepResult{
		Name: "Join",
		Summary: fmt.Sprintf("%s joined rows (%s policy); %d case rows and %d hospital rows without a match",
			humanize.Comma(int64(len(records))), report.Policy, report.CasesOnly, report.HospitalOnly),
	})

	// Step 4: Summarize
	logging.Info().Msg("Step 4/5: Summarizing")
	summary := Summarize(records)
	r.Steps = append(r.Steps, StepResult{Name: "Summarize", Summary: describeSummary(summary)})

	// Step 5: Aggregate
	logging.Info().Msg("Step 5/5: Aggregating by year and month")
	monthly, err := db.MonthlyAverages(ctx, p.policy)
	if err != nil {
		return fail("Aggregate", err)
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Aggregate",
		Summary: fmt.Sprintf("%d year/month groups", len(monthly)),
	})

	return dataset.New(records, summary, monthly, report, p.clock.Now()), r, nil
}

func (p *Pipeline) stage(ctx context.Context, db *database.DB, cases []dataset.CaseRecord, hospital []dataset.HospitalRecord) error {
	if err := db.ResetStaging(ctx); err != nil {
		return err
	}
	if err := db.InsertCases(ctx, cases); err != nil {
		return err
	}
	return db.InsertHospital(ctx, hospital)
}

func logJoin(rep dataset.JoinReport, rows int) {
	ev := logging.Info()
	if rep.CasesOnly > 0 || rep.HospitalOnly > 0 {
		ev = logging.Warn()
	}
	ev.Str("policy", string(rep.Policy)).
		Int("rows", rows).
		Int("matched", rep.Matched).
		Int("cases_only", rep.CasesOnly).
		Int("hospital_only", rep.HospitalOnly).
		Msg("join complete")
}

func describeSummary(s dataset.SummaryStats) string {
	if !s.HasMax {
		return fmt.Sprintf("No defined capacity ratio; COVID-19 bed share %.2f%%", s.CovidBedShare)
	}
	return fmt.Sprintf("Highest capacity %s at %.2f%%; COVID-19 bed share %.2f%%",
		s.MaxState, s.MaxRatio, s.CovidBedShare)
}
