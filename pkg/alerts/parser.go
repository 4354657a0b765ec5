// Package alerts implements user-defined threshold alerts: parsing rules out
// of natural language, persisting them, evaluating them against live sensor
// data, and dispatching their actions.
package alerts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/models"
	"github.com/agrosense/agrosense/pkg/ontology"
	"github.com/agrosense/agrosense/pkg/translate"
)

// operatorCues maps phrasing to comparison operators. Two-sided cues
// (">=", "<=") come first so "35 or above" does not resolve to ">".
var operatorCues = []struct {
	op   models.Operator
	cues []string
}{
	{models.OpGreaterEqual, []string{"at least", "or above", "or more", "or higher"}},
	{models.OpLessEqual, []string{"at most", "or below", "or less", "or lower"}},
	{models.OpGreater, []string{
		"above", "over", "exceeds", "exceed", "greater than", "more than",
		"higher than", "goes beyond", "بالای", "بیشتر از", "بالاتر از",
	}},
	{models.OpLess, []string{
		"below", "under", "less than", "drops below", "falls below",
		"lower than", "زیر", "کمتر از", "پایین‌تر از", "پایین تر از",
	}},
	{models.OpEqual, []string{"equals", "is exactly", "reaches", "hits"}},
}

var actionCues = []struct {
	action string
	cues   []string
}{
	{"email", []string{"email", "e-mail", "ایمیل"}},
	{"sms", []string{"sms", "text me", "text message", "پیامک"}},
	{"auto", []string{"auto", "automatic", "turn on", "turn off", "activate", "خودکار"}},
	{"notification", []string{"notify", "notification", "push", "اطلاع"}},
}

var (
	windowPattern    = regexp.MustCompile(`(?:over|for|in|during)\s+(?:the\s+)?(?:last|past)\s+(\d+)\s*(minutes?|hours?|days?)`)
	thresholdPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// Parser extracts alert rules from natural language.
type Parser struct {
	registry *ontology.Registry
	nowFunc  func() time.Time
	newID    func() string
}

// NewParser builds a parser over the sensor catalog.
func NewParser(registry *ontology.Registry) *Parser {
	return &Parser{registry: registry, nowFunc: time.Now, newID: newAlertID}
}

// ParseSpec turns a request like "alert me if temperature goes above 35" into
// a validated rule. Persian input is accepted; numerals are folded to ASCII
// before scanning.
func (p *Parser) ParseSpec(text, sessionID string) (*models.AlertSpec, error) {
	lang := translate.DetectLanguage(text)
	normalized := strings.ToLower(translate.NormalizeDigits(text))

	english := normalized
	if lang == translate.LangPersian {
		english = strings.ToLower(translate.FallbackTranslate(text))
	}

	sensor, err := p.resolveSensor(english, normalized, lang)
	if err != nil {
		return nil, err
	}

	// The window span is masked before anything else scans the text: its
	// numeral must not be mistaken for the threshold, and its "over the
	// last ..." phrasing must not be mistaken for an operator cue.
	windowMinutes, masked := extractWindow(english)
	maskedNormalized := normalized
	if lang != translate.LangPersian {
		maskedNormalized = masked
	}

	op := detectOperator(masked, maskedNormalized)
	if op == "" {
		return nil, agrierr.New(agrierr.KindValidation,
			"could not determine a comparison (above/below/equals) in the alert request")
	}

	threshold, ok := extractThreshold(masked)
	if !ok {
		return nil, agrierr.New(agrierr.KindValidation,
			"could not find a numeric threshold in the alert request")
	}

	spec := &models.AlertSpec{
		ID:                p.newID(),
		SessionID:         sessionID,
		SensorType:        sensor,
		Operator:          op,
		Threshold:         threshold,
		Severity:          detectSeverity(english, normalized),
		TimeWindowMinutes: windowMinutes,
		Action:            detectAction(english, normalized),
		Active:            true,
		CreatedAt:         p.nowFunc().UTC(),
	}
	spec.Name = fmt.Sprintf("%s %s %s", sensor, op, strconv.FormatFloat(threshold, 'f', -1, 64))

	if err := spec.Validate(); err != nil {
		return nil, agrierr.Wrap(err, agrierr.KindValidation, "alert spec rejected")
	}
	return spec, nil
}

func (p *Parser) resolveSensor(english, normalized string, lang translate.Language) (string, error) {
	if found := p.registry.FindAll(english, "en"); len(found) > 0 {
		return found[0], nil
	}
	if lang == translate.LangPersian {
		if found := p.registry.FindAll(normalized, "fa"); len(found) > 0 {
			return found[0], nil
		}
	}
	if m, ok := p.registry.LookupSynonym(english, "en"); ok {
		return m.Type, nil
	}
	return "", agrierr.New(agrierr.KindMapping,
		"could not identify which sensor the alert refers to")
}

func detectOperator(english, normalized string) models.Operator {
	for _, group := range operatorCues {
		for _, cue := range group.cues {
			if strings.Contains(english, cue) || strings.Contains(normalized, cue) {
				return group.op
			}
		}
	}
	return ""
}

func detectSeverity(english, normalized string) models.Severity {
	switch {
	case containsAny(english, "critical", "urgent", "emergency") ||
		containsAny(normalized, "بحرانی", "اضطراری"):
		return models.SeverityCritical
	case containsAny(english, "info", "informational", "fyi"):
		return models.SeverityInfo
	}
	return models.SeverityWarning
}

func detectAction(english, normalized string) string {
	for _, group := range actionCues {
		for _, cue := range group.cues {
			if strings.Contains(english, cue) || strings.Contains(normalized, cue) {
				return group.action
			}
		}
	}
	return "log"
}

// extractWindow pulls an averaging window ("over the last 2 hours") out of
// the request and masks its span so the threshold scan skips it. Returns the
// window in minutes, 0 meaning evaluate the latest point.
func extractWindow(english string) (int, string) {
	loc := windowPattern.FindStringSubmatchIndex(english)
	if loc == nil {
		return 0, english
	}
	n, _ := strconv.Atoi(english[loc[2]:loc[3]])
	unit := english[loc[4]:loc[5]]

	minutes := n
	switch {
	case strings.HasPrefix(unit, "hour"):
		minutes = n * 60
	case strings.HasPrefix(unit, "day"):
		minutes = n * 60 * 24
	}

	masked := english[:loc[0]] + strings.Repeat("#", loc[1]-loc[0]) + english[loc[1]:]
	return minutes, masked
}

func extractThreshold(s string) (float64, bool) {
	m := thresholdPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
