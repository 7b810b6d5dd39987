package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatasetStatesFirstSeen(t *testing.T) {
	ds := New([]JoinedRecord{
		{State: "Selangor"},
		{State: "Penang"},
		{State: "Selangor"},
		{State: "Johor"},
	}, SummaryStats{}, nil, JoinReport{}, time.Time{})

	assert.Equal(t, []string{"Selangor", "Penang", "Johor"}, ds.States())
	assert.Equal(t, 4, ds.Len())
	assert.Len(t, ds.ForState("Selangor"), 2)
	assert.Empty(t, ds.ForState("Sabah"))
}

func TestDatasetIsolatedFromCaller(t *testing.T) {
	records := []JoinedRecord{{State: "Selangor", NewCases: 1}}
	ds := New(records, SummaryStats{}, []MonthlyAverage{{Year: 2021, Month: 1}}, JoinReport{}, time.Time{})

	records[0].NewCases = 99
	assert.Equal(t, 1.0, ds.Records()[0].NewCases)

	got := ds.ForState("Selangor")
	got[0].NewCases = 42
	assert.Equal(t, 1.0, ds.Records()[0].NewCases)

	monthly := ds.Monthly()
	monthly[0].MeanRatio = 7
	assert.Zero(t, ds.Monthly()[0].MeanRatio)
}
