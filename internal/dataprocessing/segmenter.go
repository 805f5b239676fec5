package dataprocessing

import (
	"investlens/pkg/contracts/domain"
)

// DefaultReferenceYear is the year ages are measured against unless configured.
const DefaultReferenceYear = 2025

// ageBin is a half-open [Lower, Upper) age interval.
type ageBin struct {
	Lower, Upper int
	Group        domain.AgeGroup
}

var ageBins = []ageBin{
	{18, 30, domain.AgeGroup18To29},
	{30, 40, domain.AgeGroup30To39},
	{40, 50, domain.AgeGroup40To49},
	{50, 60, domain.AgeGroup50To59},
	{60, 70, domain.AgeGroup60To69},
	{70, 100, domain.AgeGroup70Plus},
}

// AgeGroupFor maps an age onto its bucket, AgeGroupNone outside [18,100).
func AgeGroupFor(age int) domain.AgeGroup {
	for _, b := range ageBins {
		if age >= b.Lower && age < b.Upper {
			return b.Group
		}
	}
	return domain.AgeGroupNone
}

// Segmenter derives age and age group from the birth year.
type Segmenter struct {
	ReferenceYear int
}

// NewSegmenter returns a Segmenter; a non-positive year selects DefaultReferenceYear.
func NewSegmenter(referenceYear int) *Segmenter {
	if referenceYear <= 0 {
		referenceYear = DefaultReferenceYear
	}
	return &Segmenter{ReferenceYear: referenceYear}
}

// Segment returns a copy of records with Age and AgeGroup filled in, plus the
// number of records that fell outside every bucket.
func (s *Segmenter) Segment(records []domain.InvestmentRecord) ([]domain.InvestmentRecord, int) {
	out := make([]domain.InvestmentRecord, len(records))
	ungrouped := 0
	for i, r := range records {
		r.Age = s.ReferenceYear - r.BirthDate.Year()
		r.AgeGroup = AgeGroupFor(r.Age)
		if r.AgeGroup == domain.AgeGroupNone {
			ungrouped++
		}
		out[i] = r
	}
	return out, ungrouped
}
