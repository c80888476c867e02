package statements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePeriodPrecedence(t *testing.T) {
	year, err := ResolvePeriod(2024, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 1), year.Start)
	assert.Equal(t, day(2024, time.December, 31), year.End)
	assert.Equal(t, "2024", year.Label())

	q2, err := ResolvePeriod(2024, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.April, 1), q2.Start)
	assert.Equal(t, day(2024, time.June, 30), q2.End)
	assert.Equal(t, "2024-Q2", q2.Label())

	feb, err := ResolvePeriod(2024, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.February, 29), feb.End)
	assert.Equal(t, "2024-02", feb.Label())
}

func TestResolvePeriodRejectsInvalidInput(t *testing.T) {
	for name, args := range map[string][3]int{
		"year too small":    {1800, 0, 0},
		"quarter range":     {2024, 5, 0},
		"negative quarter":  {2024, -1, 0},
		"month range":       {2024, 0, 13},
		"month and quarter": {2024, 1, 2},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ResolvePeriod(args[0], args[1], args[2])
			require.ErrorIs(t, err, ErrInvalidPeriod)
		})
	}
}

func TestPeriodQueryValidate(t *testing.T) {
	require.NoError(t, PeriodQuery{Year: 2024}.Validate())
	require.NoError(t, PeriodQuery{Year: 2024, Quarter: 4}.Validate())
	require.NoError(t, PeriodQuery{Year: 2024, Month: 12}.Validate())

	err := PeriodQuery{Year: 10000}.Validate()
	require.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Contains(t, err.Error(), "year 10000")

	err = PeriodQuery{Year: 2024, Quarter: 2, Month: 5}.Validate()
	require.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Contains(t, err.Error(), "excluded_with")

	require.ErrorIs(t, ValidateYear(1899), ErrInvalidPeriod)
	require.NoError(t, ValidateYear(1900))
}

func TestMonthIndexAndQuarters(t *testing.T) {
	m, ok := MonthIndex(time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC), 2024)
	require.True(t, ok)
	assert.Equal(t, 11, m)
	_, ok = MonthIndex(day(2025, time.January, 1), 2024)
	assert.False(t, ok)

	assert.Equal(t, 1, QuarterOf(3))
	assert.Equal(t, 4, QuarterOf(10))
	assert.True(t, IsQuarterEnd(6))
	assert.False(t, IsQuarterEnd(7))
}

func TestParseDateRange(t *testing.T) {
	rng, err := ParseDateRange("2024-01-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, rng.Contains(day(2024, time.March, 31)))

	_, err = ParseDateRange("2024-04-01", "2024-03-31")
	require.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = ParseDateRange("01/01/2024", "2024-03-31")
	require.ErrorIs(t, err, ErrInvalidPeriod)
}
