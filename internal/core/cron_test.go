package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron(t *testing.T) {
	_, err := ParseCron("0 9 * * 1")
	require.NoError(t, err)

	_, err = ParseCron("@daily")
	assert.Error(t, err)

	_, err = ParseCron("61 9 * * *")
	assert.Error(t, err)
}

func TestPatternCronExpr(t *testing.T) {
	tests := []struct {
		pattern Pattern
		want    string
		ok      bool
	}{
		{Pattern{Frequency: FrequencyDaily, Hour: 9, Minute: 5}, "5 9 * * *", true},
		{Pattern{Frequency: FrequencyWeekly, Hour: 18, Minute: 30, Weekday: time.Sunday}, "30 18 * * 0", true},
		{Pattern{Frequency: FrequencyWeekly, Hour: 18, Minute: 30, Weekday: time.Saturday}, "30 18 * * 6", true},
		{Pattern{Frequency: FrequencyMonthly, Hour: 7, Monthly: MonthlySpec{Kind: MonthlyDate, Day: 15}}, "0 7 15 * *", true},
		{Pattern{Frequency: FrequencyMonthly, Hour: 7, Monthly: MonthlySpec{Kind: MonthlyLastDay}}, "", false},
	}
	for _, tt := range tests {
		got, ok := tt.pattern.CronExpr()
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestNextRuns(t *testing.T) {
	from := time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC)

	daily := Pattern{Frequency: FrequencyDaily, Hour: 9}
	times, err := NextRuns(daily, from, 2)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2024, time.January, 16, 9, 0, 0, 0, time.UTC),
	}, times)

	lastDay := Pattern{Frequency: FrequencyMonthly, Hour: 15, Monthly: MonthlySpec{Kind: MonthlyLastDay}}
	times, err = NextRuns(lastDay, from, 3)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, time.January, 31, 15, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 29, 15, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 31, 15, 0, 0, 0, time.UTC),
	}, times)

	secondMon := Pattern{Frequency: FrequencyMonthly, Hour: 9, Monthly: MonthlySpec{Kind: MonthlyNthWeekday, Ordinal: 2, Weekday: time.Monday}}
	times, err = NextRuns(secondMon, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), 2)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, time.July, 8, 9, 0, 0, 0, time.UTC),
	}, times)

	none, err := NextRuns(daily, from, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNextRun(t *testing.T) {
	from := time.Date(2024, time.May, 10, 10, 0, 0, 0, time.UTC)
	next := NextRun(Pattern{Frequency: FrequencyWeekly, Hour: 9, Weekday: time.Friday}, from)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2024, time.May, 17, 9, 0, 0, 0, time.UTC), *next)
}
