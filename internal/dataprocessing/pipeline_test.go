package dataprocessing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investlens/pkg/contracts/domain"
)

func TestBuildCanonicalFromWorkbook(t *testing.T) {
	path := writeWorkbook(t, standardHeaders, [][]interface{}{
		{time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC), 2024, "JULY", "Residential", 2, 1500},
		{"1960-05-01", 2024, "january", "Farm", 1, "₦4,000"},
		{"2012-05-01", 2024, "AUGUST", "Farm", 1, 100},
		{"1980-01-01", 2024, "MARCH", "Farm", 1, 100},
		{"1980-01-01", 2024, "JULY", "Farm", "x", 100},
		{nil, 2024, "JULY", "Farm", 1, 100},
	})

	src, err := NewSource(SourceConfig{Kind: SourceFile, Path: path})
	require.NoError(t, err)

	canon, err := BuildCanonical(context.Background(), src, BuildOptions{Columns: DefaultColumns(), ReferenceYear: 2025})
	require.NoError(t, err)

	assert.Equal(t, "investments.xlsx", canon.Source)
	assert.Equal(t, 6, canon.SourceRows)
	require.Len(t, canon.Records, 3)
	assert.Equal(t, 1, canon.Ungrouped)
	assert.Equal(t, 3, canon.Dropped.Total())
	assert.Equal(t, 1, canon.Dropped.Reasons[domain.DropMonthOutsideRange])
	assert.Equal(t, 1, canon.Dropped.Reasons[domain.DropInvalidNumber])
	assert.Equal(t, 1, canon.Dropped.Reasons[domain.DropMissingRequired])

	assert.Equal(t, domain.AgeGroup30To39, canon.Records[0].AgeGroup)
	assert.Equal(t, domain.AgeGroup60To69, canon.Records[1].AgeGroup)
	assert.Equal(t, 4000.0, canon.Records[1].AmountPaid)
	assert.Equal(t, domain.AgeGroupNone, canon.Records[2].AgeGroup)

	views := ComputeViews(canon.Records, Options(canon.Records).Default)
	assert.Equal(t, 5500.0, views.Metrics.TotalAmount)
}

func TestBuildCanonicalSchemaError(t *testing.T) {
	path := writeWorkbook(t, []string{"DOB", "LAND"}, [][]interface{}{{"1990-01-01", "Farm"}})

	_, err := BuildCanonical(context.Background(), &FileSource{Path: path}, BuildOptions{Columns: DefaultColumns()})
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"INVESTMENT YEAR", "INVESTMENT MONTH", "UNIT", "AMOUNT"}, schemaErr.Missing)
}

func TestBuildCanonicalLoadError(t *testing.T) {
	_, err := BuildCanonical(context.Background(), &FileSource{Path: "/does/not/exist.xlsx"}, BuildOptions{})
	assert.ErrorContains(t, err, "failed to load exist.xlsx")
}
