package grid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickRangeResolve(t *testing.T) {
	today := time.Date(2024, time.March, 15, 17, 45, 0, 0, time.UTC)

	tests := []struct {
		r    QuickRange
		want DateRange
	}{
		{RangeToday, DateRange{"2024-03-15", "2024-03-15"}},
		{RangeYesterday, DateRange{"2024-03-14", "2024-03-14"}},
		{RangeLast7Days, DateRange{"2024-03-09", "2024-03-15"}},
		{RangeLast30Days, DateRange{"2024-02-15", "2024-03-15"}},
		{RangeThisMonth, DateRange{"2024-03-01", "2024-03-15"}},
		{RangeLastMonth, DateRange{"2024-02-01", "2024-02-29"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			got, err := tt.r.Resolve(today)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestQuickRangeAcrossYear(t *testing.T) {
	got, err := RangeLastMonth.Resolve(time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, DateRange{"2024-12-01", "2024-12-31"}, got)
}

func TestQuickRangeUnknown(t *testing.T) {
	_, err := QuickRange("fortnight").Resolve(time.Now())
	assert.Error(t, err)
}

func TestDateRangeValidate(t *testing.T) {
	assert.Error(t, DateRange{"2024-03-10", "2024-03-01"}.Validate())
	assert.Error(t, DateRange{"10/03/2024", "2024-03-11"}.Validate())
	assert.NoError(t, DateRange{"2024-03-01", "2024-03-01"}.Validate())
}
