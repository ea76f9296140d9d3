package npm

import (
	"strings"
	"time"

	"github.com/matzehuels/npmreg/pkg/errors"
)

// DownloadPeriod is the time span of a downloads query: one of the named
// periods, a single day (YYYY-MM-DD) or an inclusive range
// (YYYY-MM-DD:YYYY-MM-DD).
type DownloadPeriod string

// Named periods relative to the last full day of data.
const (
	LastDay   DownloadPeriod = "last-day"
	LastWeek  DownloadPeriod = "last-week"
	LastMonth DownloadPeriod = "last-month"
	LastYear  DownloadPeriod = "last-year"
)

const dayLayout = "2006-01-02"

// Day returns the period covering the single day of t.
func Day(t time.Time) DownloadPeriod {
	return DownloadPeriod(t.Format(dayLayout))
}

// DateRange returns the inclusive period from start to end.
func DateRange(start, end time.Time) DownloadPeriod {
	return DownloadPeriod(start.Format(dayLayout) + ":" + end.Format(dayLayout))
}

// Validate reports whether p is a well-formed period. It returns an
// INVALID_INPUT error otherwise.
func (p DownloadPeriod) Validate() error {
	switch p {
	case LastDay, LastWeek, LastMonth, LastYear:
		return nil
	case "":
		return errors.New(errors.ErrCodeInvalidInput, "download period is required")
	}

	s := string(p)
	startStr, endStr, isRange := strings.Cut(s, ":")
	start, err := time.Parse(dayLayout, startStr)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid download period %q: want last-day, last-week, last-month, last-year, YYYY-MM-DD or YYYY-MM-DD:YYYY-MM-DD", s)
	}
	if !isRange {
		return nil
	}
	end, err := time.Parse(dayLayout, endStr)
	if err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "invalid download period %q: bad end date", s)
	}
	if end.Before(start) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid download period %q: end is before start", s)
	}
	return nil
}
