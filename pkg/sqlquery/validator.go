package sqlquery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agrosense/agrosense/pkg/agrierr"
)

// Validator enforces the SQL allow-list: SELECT-only, single table, column
// whitelist, denylist keywords rejected at word boundaries, and at least one
// canonical sensor-type literal among the parameters.
type Validator struct {
	canonical func(string) bool
}

// NewValidator builds a validator over a canonical-type membership check.
func NewValidator(isCanonical func(string) bool) *Validator {
	return &Validator{canonical: isCanonical}
}

var denylistPattern = regexp.MustCompile(
	`(?i)\b(DROP|DELETE|UPDATE|INSERT|ALTER|CREATE|TRUNCATE|ATTACH|PRAGMA)\b`)

// allowedWords covers the whitelisted columns and aliases plus the SQL
// keywords and functions the builder (and the restricted LLM fallback) may
// emit. Any other identifier fails validation.
var allowedWords = map[string]struct{}{
	// columns and aliases
	"ts": {}, "sensor_type": {}, "value": {}, "unit": {},
	"time_period": {}, "avg_value": {}, "min_value": {}, "max_value": {}, "data_points": {},
	// table
	"sensor_data": {},
	// keywords
	"select": {}, "from": {}, "where": {}, "and": {}, "or": {}, "not": {},
	"as": {}, "group": {}, "by": {}, "order": {}, "asc": {}, "desc": {},
	"limit": {}, "offset": {}, "in": {}, "union": {}, "all": {}, "distinct": {},
	"between": {}, "like": {}, "is": {}, "null": {},
	// functions
	"avg": {}, "min": {}, "max": {}, "count": {}, "sum": {}, "round": {},
	"strftime": {}, "datetime": {}, "date": {},
}

var identPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
var fromPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN)\s+([A-Za-z_][A-Za-z0-9_]*)`)
var stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)

// Validate accepts or rejects a compiled query. All rejections carry
// KindValidation.
func (v *Validator) Validate(q Query) error {
	sql := strings.TrimSpace(q.SQL)
	if sql == "" {
		return agrierr.New(agrierr.KindValidation, "empty SQL")
	}
	if !strings.HasPrefix(strings.ToUpper(sql), "SELECT") {
		return agrierr.New(agrierr.KindValidation, "only SELECT statements are allowed")
	}
	if m := denylistPattern.FindString(sql); m != "" {
		return agrierr.New(agrierr.KindValidation, "forbidden keyword %q", m)
	}
	if strings.Contains(sql, ";") {
		return agrierr.New(agrierr.KindValidation, "statement separators are not allowed")
	}

	// Quoted literals are opaque to identifier checks.
	stripped := stringLiteralPattern.ReplaceAllString(sql, "''")

	for _, m := range fromPattern.FindAllStringSubmatch(stripped, -1) {
		if !strings.EqualFold(m[1], "sensor_data") {
			return agrierr.New(agrierr.KindValidation, "table %q is not allowed", m[1])
		}
	}

	for _, word := range identPattern.FindAllString(stripped, -1) {
		if _, ok := allowedWords[strings.ToLower(word)]; !ok {
			return agrierr.New(agrierr.KindValidation, "identifier %q is not in the whitelist", word)
		}
	}

	if !v.referencesCanonicalSensor(q) {
		return agrierr.New(agrierr.KindValidation, "no canonical sensor type referenced")
	}
	return nil
}

// referencesCanonicalSensor checks bound string parameters first, then any
// quoted literals (the restricted LLM fallback inlines its literals).
func (v *Validator) referencesCanonicalSensor(q Query) bool {
	// Exactly one statement may omit the sensor filter: the internal
	// latest-rows fallback. Everything else, including LLM output, must
	// name a canonical type.
	if strings.TrimSpace(q.SQL) == latestRowsSQL {
		return true
	}
	for _, arg := range q.Args {
		if s, ok := arg.(string); ok && v.canonical(s) {
			return true
		}
	}
	for _, lit := range stringLiteralPattern.FindAllString(q.SQL, -1) {
		s := strings.Trim(lit, "'")
		if v.canonical(s) {
			return true
		}
	}
	return false
}

// Denylist returns the forbidden keywords; exposed for intent routing so
// dangerous natural-language queries can be short-circuited into a typed
// validation error.
func Denylist() []string {
	return []string{"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "CREATE", "TRUNCATE", "ATTACH", "PRAGMA"}
}

// ContainsDenylisted reports whether free text contains a denylisted SQL
// keyword at a word boundary.
func ContainsDenylisted(text string) bool {
	return denylistPattern.MatchString(text)
}

// String renders the query for provenance output with placeholders intact.
func (q Query) String() string {
	if len(q.Args) == 0 {
		return q.SQL
	}
	return fmt.Sprintf("%s -- args: %v", q.SQL, q.Args)
}
