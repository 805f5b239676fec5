package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"investlens/pkg/contracts/domain"
)

func TestFilter(t *testing.T) {
	table := sampleTable()

	tests := []struct {
		name   string
		params domain.FilterParams
		want   []int // indexes into table
	}{
		{
			name:   "everything in 2024 except ungrouped",
			params: allSelected(2024),
			want:   []int{0, 1, 2, 3, 4},
		},
		{
			name:   "year only matches",
			params: allSelected(2023),
			want:   []int{6, 7},
		},
		{
			name:   "single group",
			params: domain.FilterParams{Year: 2024, AgeGroups: []domain.AgeGroup{domain.AgeGroup30To39}, LandTypes: []string{"Residential", "Commercial", "Farm"}},
			want:   []int{0, 2},
		},
		{
			name:   "single land",
			params: domain.FilterParams{Year: 2024, AgeGroups: domain.AgeGroups(), LandTypes: []string{"Farm"}},
			want:   []int{3},
		},
		{
			name:   "empty age group set",
			params: domain.FilterParams{Year: 2024, AgeGroups: []domain.AgeGroup{}, LandTypes: []string{"Farm"}},
			want:   nil,
		},
		{
			name:   "empty land set",
			params: domain.FilterParams{Year: 2024, AgeGroups: domain.AgeGroups()},
			want:   nil,
		},
		{
			name:   "unknown year",
			params: allSelected(1999),
			want:   nil,
		},
		{
			name:   "ungrouped never selected",
			params: domain.FilterParams{Year: 2024, AgeGroups: []domain.AgeGroup{domain.AgeGroupNone}, LandTypes: []string{"Residential"}},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(table, tt.params)
			expected := make([]domain.InvestmentRecord, 0, len(tt.want))
			for _, i := range tt.want {
				expected = append(expected, table[i])
			}
			assert.Equal(t, expected, got)
		})
	}
}

func TestFilterIsPure(t *testing.T) {
	table := sampleTable()
	before := sampleTable()

	first := Filter(table, allSelected(2024))
	second := Filter(table, allSelected(2024))

	assert.Equal(t, first, second)
	assert.Equal(t, before, table)
}

func TestFilterSubsetOfTable(t *testing.T) {
	table := sampleTable()
	params := domain.FilterParams{Year: 2024, AgeGroups: []domain.AgeGroup{domain.AgeGroup30To39, domain.AgeGroup70Plus}, LandTypes: []string{"Residential"}}

	for _, r := range Filter(table, params) {
		assert.Equal(t, 2024, r.InvestmentYear)
		assert.Contains(t, params.AgeGroups, r.AgeGroup)
		assert.Contains(t, params.LandTypes, r.LandType)
	}
}

func TestFilterIgnoringYear(t *testing.T) {
	table := sampleTable()
	params := domain.FilterParams{Year: 1999, AgeGroups: []domain.AgeGroup{domain.AgeGroup30To39}, LandTypes: []string{"Residential", "Farm"}}

	got := FilterIgnoringYear(table, params)
	assert.Equal(t, []domain.InvestmentRecord{table[0], table[2], table[7]}, got)
}
