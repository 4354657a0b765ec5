package router

import (
	"regexp"
	"strings"

	"github.com/agrosense/agrosense/pkg/ontology"
)

// Intent is the coarse routing decision for a question.
type Intent string

const (
	IntentDataQuery Intent = "data_query"
	IntentAlert     Intent = "alert_management"
	IntentMixed     Intent = "mixed"
)

// alertCues signal a standing-rule request rather than a one-off question.
var alertCues = []string{
	"alert", "notify me", "warn me", "let me know if", "let me know when",
	"remind me", "هشدار", "خبر بده", "اطلاع بده",
}

// reasoningCues signal an advice question layered on top of the data.
var reasoningCues = []string{
	"why", "should i", "should we", "recommend", "advice", "advise",
	"what can i do", "how can i improve", "is it healthy", "is this normal",
	"چرا", "توصیه", "چه کنم", "آیا طبیعی",
}

var numeralPattern = regexp.MustCompile(`\d`)

// classifyIntent applies the routing rules in order: an alert cue with a
// numeric threshold is alert management; a known sensor term plus a reasoning
// cue is a mixed question; everything else is a plain data query.
func classifyIntent(english, normalized string, registry *ontology.Registry) Intent {
	both := english + " " + normalized

	if containsAny(both, alertCues...) && numeralPattern.MatchString(both) {
		return IntentAlert
	}
	if containsAny(both, reasoningCues...) && mentionsSensor(english, normalized, registry) {
		return IntentMixed
	}
	return IntentDataQuery
}

func mentionsSensor(english, normalized string, registry *ontology.Registry) bool {
	if len(registry.FindAll(english, "en")) > 0 {
		return true
	}
	if len(registry.FindAll(normalized, "fa")) > 0 {
		return true
	}
	_, ok := registry.LookupSynonym(english, "en")
	return ok
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
