package translate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/sqlquery"
)

// ParsedTime is the outcome of scanning a canonical-English question for
// time expressions.
type ParsedTime struct {
	Tokens      []models.RangeToken
	Context     *models.TimeContext
	Granularity models.Interval
	Found       bool
}

type timePattern struct {
	re          *regexp.Regexp
	granularity models.Interval
	// build turns the captured numeral (0 when none) into a token.
	build func(n int) models.RangeToken
}

// Patterns are applied in priority order; matched spans are masked so the
// looser patterns below cannot re-match them. The looser forms accept the
// Persian word order the fallback translation produces ("3 days last").
var timePatterns = []timePattern{
	{regexp.MustCompile(`\b(\d+)\s*minutes?\s*ago\b`), models.IntervalMinute,
		func(n int) models.RangeToken { return rt("last_%d_minutes", n) }},
	{regexp.MustCompile(`\b(\d+)\s*hours?\s*ago\b`), models.IntervalHour,
		func(n int) models.RangeToken { return rt("%d_hours_ago", n) }},
	{regexp.MustCompile(`\b(\d+)\s*days?\s*ago\b`), models.IntervalDay,
		func(n int) models.RangeToken { return rt("%d_days_ago", n) }},
	{regexp.MustCompile(`\b(\d+)\s*weeks?\s*ago\b`), models.IntervalWeek,
		func(n int) models.RangeToken { return rt("%d_weeks_ago", n) }},
	{regexp.MustCompile(`\bprevious\s+(\d+)\s*hours?\b`), models.IntervalHour,
		func(n int) models.RangeToken { return rt("previous_%d_hours", n) }},
	{regexp.MustCompile(`\bprevious\s+(\d+)\s*days?\b`), models.IntervalDay,
		func(n int) models.RangeToken { return rt("previous_%d_days", n) }},
	{regexp.MustCompile(`\bprevious\s+(\d+)\s*weeks?\b`), models.IntervalWeek,
		func(n int) models.RangeToken { return rt("previous_%d_weeks", n) }},
	{regexp.MustCompile(`\b(?:last|past|recent)\s+(\d+)\s*minutes?\b|\b(\d+)\s*minutes?\b`), models.IntervalMinute,
		func(n int) models.RangeToken { return rt("last_%d_minutes", n) }},
	{regexp.MustCompile(`\b(?:last|past|recent)\s+(\d+)\s*hours?\b|\b(\d+)\s*hours?\b`), models.IntervalHour,
		func(n int) models.RangeToken { return rt("last_%d_hours", n) }},
	{regexp.MustCompile(`\b(?:last|past|recent)\s+(\d+)\s*days?\b|\b(\d+)\s*days?\b`), models.IntervalDay,
		func(n int) models.RangeToken { return rt("last_%d_days", n) }},
	{regexp.MustCompile(`\b(?:last|past|recent)\s+(\d+)\s*weeks?\b|\b(\d+)\s*weeks?\b`), models.IntervalWeek,
		func(n int) models.RangeToken { return rt("last_%d_weeks", n) }},
	{regexp.MustCompile(`\b(?:last|past|recent)\s+(\d+)\s*months?\b|\b(\d+)\s*months?\b`), models.IntervalMonth,
		func(n int) models.RangeToken { return rt("last_%d_months", n) }},
	{regexp.MustCompile(`\bthis\s+week\b`), models.IntervalDay,
		func(int) models.RangeToken { return "this_week" }},
	{regexp.MustCompile(`\blast\s+week\b`), models.IntervalDay,
		func(int) models.RangeToken { return "last_week" }},
	{regexp.MustCompile(`\bthis\s+month\b`), models.IntervalDay,
		func(int) models.RangeToken { return "this_month" }},
	{regexp.MustCompile(`\blast\s+month\b`), models.IntervalDay,
		func(int) models.RangeToken { return "last_month" }},
	{regexp.MustCompile(`\bthis\s+year\b`), models.IntervalMonth,
		func(int) models.RangeToken { return "this_year" }},
	{regexp.MustCompile(`\blast\s+year\b`), models.IntervalMonth,
		func(int) models.RangeToken { return "last_year" }},
	{regexp.MustCompile(`\btoday\b`), models.IntervalHour,
		func(int) models.RangeToken { return "today" }},
	{regexp.MustCompile(`\byesterday\b`), models.IntervalHour,
		func(int) models.RangeToken { return "yesterday" }},
}

func rt(format string, n int) models.RangeToken {
	return models.RangeToken(fmt.Sprintf(format, n))
}

// ParseTime scans canonical English for time expressions and returns the
// range tokens in text order plus the concrete context of the first one.
// With no match, the default window (last 24 hours, hourly granularity) is
// returned with Found=false.
func ParseTime(text string, now time.Time) ParsedTime {
	text = strings.ToLower(text)

	type match struct {
		pos   int
		token models.RangeToken
		gran  models.Interval
	}
	var matches []match
	masked := []byte(text)

	for _, p := range timePatterns {
		for {
			loc := p.re.FindSubmatchIndex(masked)
			if loc == nil {
				break
			}
			n := 0
			// First non-empty capture group holds the numeral.
			for g := 1; 2*g+1 < len(loc); g++ {
				if loc[2*g] >= 0 {
					n, _ = strconv.Atoi(string(masked[loc[2*g]:loc[2*g+1]]))
					break
				}
			}
			token := p.build(n)
			if token.Valid() {
				matches = append(matches, match{pos: loc[0], token: token, gran: p.granularity})
			}
			for i := loc[0]; i < loc[1]; i++ {
				masked[i] = '#'
			}
		}
	}

	if len(matches) == 0 {
		return ParsedTime{
			Tokens:      []models.RangeToken{models.DefaultRange},
			Granularity: models.IntervalHour,
			Found:       false,
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	parsed := ParsedTime{Granularity: matches[0].gran, Found: true}
	seen := map[models.RangeToken]bool{}
	for _, m := range matches {
		if seen[m.token] {
			continue
		}
		seen[m.token] = true
		parsed.Tokens = append(parsed.Tokens, m.token)
	}

	if window, err := sqlquery.ResolveRange(parsed.Tokens[0], now); err == nil {
		parsed.Context = &models.TimeContext{
			Start:    window.Start,
			End:      window.End,
			Interval: parsed.Granularity,
		}
	}
	return parsed
}
