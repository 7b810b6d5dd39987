package pipeline

import "github.com/TobiSchelling/healthcap/internal/dataset"

// Summarize computes the card scalars over the joined records.
//
// The maximum is the first strict maximum over defined ratios in record
// order, so ties go to the earliest row. The COVID-19 bed share is
// sum(BedsCovid) / sum(Beds) * 100 across every row, or 0 when there are
// no beds at all.
func Summarize(records []dataset.JoinedRecord) dataset.SummaryStats {
	var (
		s         dataset.SummaryStats
		beds      float64
		bedsCovid float64
	)
	for _, r := range records {
		beds += r.Beds
		bedsCovid += r.BedsCovid

		if !r.RatioDefined {
			continue
		}
		if !s.HasMax || r.CapacityRatio > s.MaxRatio {
			s.MaxState = r.State
			s.MaxRatio = r.CapacityRatio
			s.HasMax = true
		}
	}
	if beds != 0 {
		s.CovidBedShare = bedsCovid / beds * 100
	}
	return s
}
