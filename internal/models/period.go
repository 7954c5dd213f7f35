package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// periodPattern matches billing period identifiers like "2025-03"
var periodPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// CurrentBillingPeriod returns the current calendar month as "YYYY-MM"
// using local system time
func CurrentBillingPeriod() string {
	return time.Now().Format("2006-01")
}

// PeriodMonthYear parses a "YYYY-MM" billing period into its month and
// year components. A malformed period is a caller error and is reported,
// never silently defaulted.
func PeriodMonthYear(period string) (month int, year int, err error) {
	matches := periodPattern.FindStringSubmatch(period)
	if matches == nil {
		return 0, 0, fmt.Errorf("invalid billing period %q: expected YYYY-MM", period)
	}

	year, _ = strconv.Atoi(matches[1])
	month, _ = strconv.Atoi(matches[2])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid billing period %q: month out of range", period)
	}

	return month, year, nil
}

// PeriodDates returns the first and last instant of the calendar month
// named by the billing period. Month lengths and leap years come from
// calendar arithmetic, not day tables.
func PeriodDates(period string) (start time.Time, end time.Time, err error) {
	month, year, err := PeriodMonthYear(period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end, nil
}
