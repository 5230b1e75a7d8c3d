package contract

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout of every date handled by cecompare.
const DateLayout = "2006-01-02"

// DatePlaceholder is replaced by the requested date in engine URL templates.
const DatePlaceholder = "{start_date}"

// maxRangeDays bounds a single run to roughly ten years of dates.
const maxRangeDays = 3660

// DateFormat builds a YYYY-MM-DD date, zero-padding days below 10.
func DateFormat(year, month string, day int) string {
	d := strconv.Itoa(day)
	if day < 10 {
		d = "0" + d
	}
	return fmt.Sprintf("%s-%s-%s", year, month, d)
}

// DateRange returns every date from start to end inclusive.
func DateRange(start, end string) ([]string, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD): %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q (expected YYYY-MM-DD): %w", end, err)
	}
	if e.Before(s) {
		return nil, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	if e.Sub(s) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("date range %s..%s exceeds %d days", start, end, maxRangeDays)
	}

	// Within one month the day of month is iterated directly.
	if s.Year() == e.Year() && s.Month() == e.Month() {
		year, month := start[:4], start[5:7]
		dates := make([]string, 0, e.Day()-s.Day()+1)
		for day := s.Day(); day <= e.Day(); day++ {
			dates = append(dates, DateFormat(year, month, day))
		}
		return dates, nil
	}

	var dates []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		dates = append(dates, DateFormat(fmt.Sprintf("%04d", d.Year()), fmt.Sprintf("%02d", int(d.Month())), d.Day()))
	}
	return dates, nil
}

// ExpandURL substitutes the date into an engine URL template.
func ExpandURL(template, date string) string {
	return strings.ReplaceAll(template, DatePlaceholder, date)
}
