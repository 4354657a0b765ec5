package translate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agrosense/agrosense/pkg/models"
)

// comparisonCues are the explicit markers that flag comparison intent.
// "trend" alone is deliberately absent: a trend is not a comparison.
var comparisonCues = []string{
	"compare", "comparison", " vs ", " vs.", "versus", "difference", "compared to",
}

var (
	betweenAndPattern = regexp.MustCompile(`\bbetween\b.+\band\b`)
	lastVsPrevPattern = regexp.MustCompile(`\blast\s+\d+\s+\w+\s+(?:vs|versus|against)\s+previous\b`)
	conjoinedRanges   = regexp.MustCompile(`\b(?:and|vs|versus|or)\b`)
)

// DetectComparison applies the strict comparison rule: an explicit cue, a
// between...and construction, two time ranges joined by a conjunction, or a
// "last N vs previous N" pattern.
func DetectComparison(english string, rangeCount int) bool {
	lower := " " + strings.ToLower(english) + " "
	for _, cue := range comparisonCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	if betweenAndPattern.MatchString(lower) && rangeCount >= 2 {
		return true
	}
	if lastVsPrevPattern.MatchString(lower) {
		return true
	}
	if rangeCount >= 2 && conjoinedRanges.MatchString(lower) {
		return true
	}
	return false
}

var expandableLastN = regexp.MustCompile(`^last_(\d+)_(hours|days|weeks)$`)

// maxExpansion caps granularity-driven expansion so a "compare last 90 days"
// does not fan out into 90 UNION branches. Single digits also keep the
// "N_units_ago" labels in lexical order, which is how the comparison query
// sorts its rows.
const maxExpansion = 9

// ExpandComparison turns the detected ranges into the ordered multi-range
// list a comparison query needs. Two or more detected ranges pass through;
// a single expandable range fans out by granularity ("last 4 hours" becomes
// hour-by-hour slices); calendar singletons pair with their predecessor.
func ExpandComparison(tokens []models.RangeToken) []models.RangeToken {
	if len(tokens) >= 2 {
		return tokens
	}
	if len(tokens) == 0 {
		return []models.RangeToken{"today", "yesterday"}
	}

	tok := tokens[0]
	if m := expandableLastN.FindStringSubmatch(string(tok)); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 2 && n <= maxExpansion {
			unit := strings.TrimSuffix(m[2], "s")
			out := make([]models.RangeToken, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, models.RangeToken(fmt.Sprintf("%d_%ss_ago", i, unit)))
			}
			return out
		}
		// Too wide to slice: contrast with the preceding window instead.
		return []models.RangeToken{tok, models.RangeToken("previous_" + m[1] + "_" + m[2])}
	}

	switch tok {
	case "today":
		return []models.RangeToken{"today", "yesterday"}
	case "this_week":
		return []models.RangeToken{"this_week", "last_week"}
	case "this_month":
		return []models.RangeToken{"this_month", "last_month"}
	case "this_year":
		return []models.RangeToken{"this_year", "last_year"}
	}
	return []models.RangeToken{tok, "yesterday"}
}

// ComparisonGrouping maps the dominant granularity of a comparison to the
// grouping of its result rows.
func ComparisonGrouping(tokens []models.RangeToken, granularity models.Interval) models.Grouping {
	for _, t := range tokens {
		switch t {
		case "this_week", "last_week":
			return models.GroupWeek
		case "this_month", "last_month":
			return models.GroupMonth
		case "this_year", "last_year":
			return models.GroupMonth
		}
	}
	g := granularity.Grouping()
	if g == models.GroupNone {
		return models.GroupHour
	}
	return g
}
