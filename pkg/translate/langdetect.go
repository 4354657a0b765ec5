// Package translate maps natural-language questions (English or Persian)
// into the validated semantic IR: language detection, translation, time
// parsing, comparison detection, and ontology mapping.
package translate

import "strings"

// Language is a detected input language.
type Language string

const (
	LangEnglish Language = "en"
	LangPersian Language = "fa"
)

// persianDomainKeywords tip ambiguous mixed-script input toward Persian.
var persianDomainKeywords = []string{
	"دما", "رطوبت", "خاک", "فشار", "نور", "باد", "باران",
	"میانگین", "امروز", "دیروز", "هفته", "ماه", "هشدار",
}

// DetectLanguage classifies by character distribution: Persian ratio > 0.4
// wins, English ratio > 0.6 wins, otherwise domain keywords decide with an
// English default.
func DetectLanguage(q string) Language {
	var persian, ascii, letters int
	for _, r := range q {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			persian++
			letters++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			ascii++
			letters++
		}
	}
	if letters == 0 {
		return LangEnglish
	}
	if float64(persian)/float64(letters) > 0.4 {
		return LangPersian
	}
	if float64(ascii)/float64(letters) > 0.6 {
		return LangEnglish
	}
	for _, kw := range persianDomainKeywords {
		if strings.Contains(q, kw) {
			return LangPersian
		}
	}
	return LangEnglish
}
