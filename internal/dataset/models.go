package dataset

import "time"

// CaseRecord is one row of the case dataset: new cases for a state on a day.
type CaseRecord struct {
	Date     time.Time
	State    string
	NewCases float64
}

// HospitalRecord is one row of the hospital dataset.
type HospitalRecord struct {
	Date          time.Time
	State         string
	AdmittedTotal float64
	Beds          float64
	BedsCovid     float64
}

// JoinedRecord combines same-day, same-state case and hospital data.
//
// CapacityRatio is AdmittedTotal / Beds * 100. When Beds is zero, or there
// is no hospital row for the key, the ratio is 0 and RatioDefined is false.
type JoinedRecord struct {
	Date          time.Time
	State         string
	NewCases      float64
	AdmittedTotal float64
	Beds          float64
	BedsCovid     float64
	Year          int
	Month         int
	CapacityRatio float64
	RatioDefined  bool
	HasHospital   bool
}

// SummaryStats holds the scalars shown on the summary cards.
type SummaryStats struct {
	MaxState      string  `json:"max_state"`
	MaxRatio      float64 `json:"max_ratio"`
	CovidBedShare float64 `json:"covid_bed_share"`
	HasMax        bool    `json:"has_max"`
}

// MonthlyAverage is the mean capacity ratio across all states for a year/month.
type MonthlyAverage struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	MeanRatio float64 `json:"mean_ratio"`
	Records   int     `json:"records"`
}

// JoinPolicy controls which rows survive the case/hospital join.
type JoinPolicy string

const (
	// JoinInner keeps only (date, state) keys present in both sources.
	JoinInner JoinPolicy = "inner"
	// JoinLeft keeps every case row; rows without hospital data have
	// HasHospital=false and an undefined ratio.
	JoinLeft JoinPolicy = "left"
)

// JoinReport accounts for the rows the join matched and dropped.
type JoinReport struct {
	Policy       JoinPolicy `json:"policy"`
	Matched      int        `json:"matched"`
	CasesOnly    int        `json:"cases_only"`
	HospitalOnly int        `json:"hospital_only"`
}
