package dataprocessing

import (
	"investlens/pkg/contracts/domain"
)

// Filter returns the records matching the selected year, one of the selected
// age groups and one of the selected land types, in table order. Ungrouped
// records never match. An empty group or land set yields an empty result.
func Filter(table []domain.InvestmentRecord, params domain.FilterParams) []domain.InvestmentRecord {
	return filterRecords(table, params, true)
}

// FilterIgnoringYear applies the age group and land type predicates only.
func FilterIgnoringYear(table []domain.InvestmentRecord, params domain.FilterParams) []domain.InvestmentRecord {
	return filterRecords(table, params, false)
}

func filterRecords(table []domain.InvestmentRecord, params domain.FilterParams, byYear bool) []domain.InvestmentRecord {
	out := make([]domain.InvestmentRecord, 0)
	if len(params.AgeGroups) == 0 || len(params.LandTypes) == 0 {
		return out
	}

	groups := make(map[domain.AgeGroup]struct{}, len(params.AgeGroups))
	for _, g := range params.AgeGroups {
		groups[g] = struct{}{}
	}
	lands := make(map[string]struct{}, len(params.LandTypes))
	for _, l := range params.LandTypes {
		lands[l] = struct{}{}
	}

	for _, r := range table {
		if byYear && r.InvestmentYear != params.Year {
			continue
		}
		if r.AgeGroup == domain.AgeGroupNone {
			continue
		}
		if _, ok := groups[r.AgeGroup]; !ok {
			continue
		}
		if _, ok := lands[r.LandType]; !ok {
			continue
		}
		out = append(out, r)
	}
	return out
}
