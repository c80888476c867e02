package statements

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/internal/ledger"
)

// ErrInvalidPeriod marks malformed or out-of-range year, quarter or month parameters.
var ErrInvalidPeriod = errors.New("statements: invalid period")

var monthKeys = [12]string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// PeriodQuery is a report period request. Zero quarter or month means absent.
type PeriodQuery struct {
	Year    int `validate:"gte=1900,lte=9999"`
	Quarter int `validate:"omitempty,gte=1,lte=4"`
	Month   int `validate:"omitempty,gte=1,lte=12,excluded_with=Quarter"`
}

var validate = validator.New()

// Validate checks the query's ranges and rejects a quarter combined with a month.
func (q PeriodQuery) Validate() error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s %v (%s)", strings.ToLower(fe.Field()), fe.Value(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidPeriod, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidPeriod, err)
}

// ValidateYear rejects years outside the supported calendar.
func ValidateYear(year int) error {
	return PeriodQuery{Year: year}.Validate()
}

// MonthIndex assigns date to a zero-based month slot of year. Dates outside the
// year report false.
func MonthIndex(date time.Time, year int) (int, bool) {
	if date.Year() != year {
		return 0, false
	}
	return int(date.Month()) - 1, true
}

// QuarterOf maps a month (1-12) to its quarter (1-4).
func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

// IsQuarterEnd reports whether month (1-12) closes a quarter.
func IsQuarterEnd(month int) bool {
	return month%3 == 0
}

// Period is a resolved reporting window.
type Period struct {
	Year    int       `json:"year"`
	Quarter int       `json:"quarter,omitempty"`
	Month   int       `json:"month,omitempty"`
	Start   time.Time `json:"-"`
	End     time.Time `json:"-"`
}

// Range converts the period to an inclusive ledger date range.
func (p Period) Range() ledger.DateRange {
	return ledger.DateRange{From: p.Start, To: p.End}
}

// Label renders the period for humans, e.g. "2024", "2024-Q2" or "2024-03".
func (p Period) Label() string {
	switch {
	case p.Month > 0:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	case p.Quarter > 0:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Quarter)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}

// ResolvePeriod derives the window from a year and an optional quarter or
// month; zero means absent. A month wins over a quarter, a quarter over the
// full year. Supplying both is rejected.
func ResolvePeriod(year, quarter, month int) (Period, error) {
	if err := (PeriodQuery{Year: year, Quarter: quarter, Month: month}).Validate(); err != nil {
		return Period{}, err
	}
	switch {
	case month != 0:
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return Period{Year: year, Month: month, Start: start, End: start.AddDate(0, 1, -1)}, nil
	case quarter != 0:
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return Period{Year: year, Quarter: quarter, Start: start, End: start.AddDate(0, 3, -1)}, nil
	default:
		rng := ledger.YearRange(year)
		return Period{Year: year, Start: rng.From, End: rng.To}, nil
	}
}

// ParseDateRange parses an inclusive YYYY-MM-DD window.
func ParseDateRange(start, end string) (ledger.DateRange, error) {
	from, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return ledger.DateRange{}, fmt.Errorf("%w: start %q", ErrInvalidPeriod, start)
	}
	to, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return ledger.DateRange{}, fmt.Errorf("%w: end %q", ErrInvalidPeriod, end)
	}
	if to.Before(from) {
		return ledger.DateRange{}, fmt.Errorf("%w: end before start", ErrInvalidPeriod)
	}
	return ledger.DateRange{From: from, To: to}, nil
}
