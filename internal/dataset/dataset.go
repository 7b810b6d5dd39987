package dataset

import "time"

// Dataset is the immutable result of the startup pipeline. It is built
// once and shared read-only by every handler.
type Dataset struct {
	records  []JoinedRecord
	summary  SummaryStats
	monthly  []MonthlyAverage
	states   []string
	join     JoinReport
	loadedAt time.Time
}

// New assembles a Dataset. The slices are copied so later mutation by the
// caller cannot leak into the shared value.
func New(records []JoinedRecord, summary SummaryStats, monthly []MonthlyAverage, join JoinReport, loadedAt time.Time) *Dataset {
	return &Dataset{
		records:  append([]JoinedRecord(nil), records...),
		summary:  summary,
		monthly:  append([]MonthlyAverage(nil), monthly...),
		states:   distinctStates(records),
		join:     join,
		loadedAt: loadedAt,
	}
}

// Len returns the number of joined records.
func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of every joined record in source order.
func (d *Dataset) Records() []JoinedRecord {
	return append([]JoinedRecord(nil), d.records...)
}

// ForState returns a freshly allocated slice of the records for state.
func (d *Dataset) ForState(state string) []JoinedRecord {
	var out []JoinedRecord
	for _, r := range d.records {
		if r.State == state {
			out = append(out, r)
		}
	}
	return out
}

// Summary returns the summary card scalars.
func (d *Dataset) Summary() SummaryStats { return d.summary }

// Monthly returns a copy of the year/month averages, ordered by year then month.
func (d *Dataset) Monthly() []MonthlyAverage {
	return append([]MonthlyAverage(nil), d.monthly...)
}

// States returns the distinct state names in first-seen order.
func (d *Dataset) States() []string {
	return append([]string(nil), d.states...)
}

// Join returns the join accounting.
func (d *Dataset) Join() JoinReport { return d.join }

// LoadedAt returns when the pipeline produced the dataset.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

func distinctStates(records []JoinedRecord) []string {
	seen := make(map[string]bool)
	var states []string
	for _, r := range records {
		if seen[r.State] {
			continue
		}
		seen[r.State] = true
		states = append(states, r.State)
	}
	return states
}
