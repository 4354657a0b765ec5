// Package sqlquery compiles the semantic IR into parameterized SQL over the
// sensor_data table, validates generated SQL against a strict allow-list,
// and executes it with typed errors.
package sqlquery

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/agrosense/agrosense/pkg/models"
)

// Window is a concrete half-open UTC interval [Start, End) labeled by the
// range token that produced it.
type Window struct {
	Start time.Time
	End   time.Time
	Label string
}

var (
	lastNPattern     = regexp.MustCompile(`^last_([1-9][0-9]*)_(minutes|hours|days|weeks|months)$`)
	agoPattern       = regexp.MustCompile(`^([1-9][0-9]*)_(hours|days|weeks)_ago$`)
	previousNPattern = regexp.MustCompile(`^previous_([1-9][0-9]*)_(hours|days|weeks)$`)
)

// ResolveRange maps a range token to its window relative to now. All math is
// UTC; intervals are half-open per the time semantics contract.
func ResolveRange(token models.RangeToken, now time.Time) (Window, error) {
	now = now.UTC()
	label := string(token)

	switch token {
	case "today":
		start := floorDay(now)
		return Window{start, start.AddDate(0, 0, 1), label}, nil
	case "yesterday":
		end := floorDay(now)
		return Window{end.AddDate(0, 0, -1), end, label}, nil
	case "this_week":
		start := mondayOf(now)
		return Window{start, start.AddDate(0, 0, 7), label}, nil
	case "this_month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{start, start.AddDate(0, 1, 0), label}, nil
	case "this_year":
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return Window{start, start.AddDate(1, 0, 0), label}, nil
	case "last_week":
		return Window{now.AddDate(0, 0, -7), now, label}, nil
	case "last_month":
		return Window{now.AddDate(0, 0, -30), now, label}, nil
	case "last_year":
		return Window{now.AddDate(0, 0, -365), now, label}, nil
	}

	if m := lastNPattern.FindStringSubmatch(label); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Window{now.Add(-time.Duration(n) * unitDuration(m[2])), now, label}, nil
	}

	if m := agoPattern.FindStringSubmatch(label); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "hours":
			start := now.Add(-time.Duration(n) * time.Hour)
			return Window{start, start.Add(time.Hour), label}, nil
		case "days":
			day := floorDay(now).AddDate(0, 0, -n)
			return Window{day, day.AddDate(0, 0, 1), label}, nil
		case "weeks":
			start := mondayOf(now).AddDate(0, 0, -7*n)
			return Window{start, start.AddDate(0, 0, 7), label}, nil
		}
	}

	if m := previousNPattern.FindStringSubmatch(label); m != nil {
		n, _ := strconv.Atoi(m[1])
		d := time.Duration(n) * unitDuration(m[2])
		return Window{now.Add(-2 * d), now.Add(-d), label}, nil
	}

	return Window{}, fmt.Errorf("unknown range token %q", token)
}

func unitDuration(unit string) time.Duration {
	switch unit {
	case "minutes":
		return time.Minute
	case "hours":
		return time.Hour
	case "days":
		return 24 * time.Hour
	case "weeks":
		return 7 * 24 * time.Hour
	case "months":
		return 30 * 24 * time.Hour
	}
	return time.Hour
}

func floorDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayOf returns 00:00 UTC of the Monday of t's ISO week.
func mondayOf(t time.Time) time.Time {
	day := floorDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}
