package translate

import "strings"

// persianDigits maps Extended Arabic-Indic and Arabic-Indic digits to ASCII.
var persianDigits = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// persianNumberWords maps spelled-out Persian numerals one through ten.
var persianNumberWords = map[string]string{
	"یک": "1", "دو": "2", "سه": "3", "چهار": "4", "پنج": "5",
	"شش": "6", "هفت": "7", "هشت": "8", "نه": "9", "ده": "10",
}

// NormalizeDigits rewrites Persian numerals (digits and number words) to
// ASCII integers so the time scanner sees one numeral alphabet.
func NormalizeDigits(s string) string {
	s = persianDigits.Replace(s)
	words := strings.Fields(s)
	for i, w := range words {
		if n, ok := persianNumberWords[w]; ok {
			words[i] = n
		}
	}
	return strings.Join(words, " ")
}

// substitutions is the deterministic fa→en fallback used when the LLM is
// unavailable. Multi-word phrases first so they win over their parts.
var substitutions = []struct{ fa, en string }{
	{"رطوبت خاک", "soil moisture"},
	{"درجه حرارت", "temperature"},
	{"دمای هوا", "temperature"},
	{"فشار هوا", "pressure"},
	{"دی اکسید کربن", "co2"},
	{"شدت نور", "light intensity"},
	{"مصرف آب", "water usage"},
	{"مصرف انرژی", "energy usage"},
	{"مصرف برق", "energy usage"},
	{"سرعت باد", "wind speed"},
	{"تعداد آفات", "pest count"},
	{"خیسی برگ", "leaf wetness"},
	{"هفته گذشته", "last week"},
	{"ماه گذشته", "last month"},
	{"سال گذشته", "last year"},
	{"این هفته", "this week"},
	{"این ماه", "this month"},
	{"امسال", "this year"},
	{"دما", "temperature"},
	{"رطوبت", "humidity"},
	{"فشار", "pressure"},
	{"نور", "light"},
	{"باران", "rainfall"},
	{"بارش", "rainfall"},
	{"باد", "wind speed"},
	{"آفات", "pest count"},
	{"اسیدیته", "ph"},
	{"میانگین", "average"},
	{"متوسط", "average"},
	{"حداکثر", "maximum"},
	{"بیشترین", "maximum"},
	{"حداقل", "minimum"},
	{"کمترین", "minimum"},
	{"تعداد", "count"},
	{"مقایسه", "compare"},
	{"در مقابل", "vs"},
	{"نسبت به", "compared to"},
	{"تفاوت", "difference"},
	{"روند", "trend"},
	{"نمودار", "chart"},
	{"امروز", "today"},
	{"دیروز", "yesterday"},
	{"الان", "current"},
	{"فعلی", "current"},
	{"اخیر", "last"},
	{"گذشته", "last"},
	{"ساعت", "hours"},
	{"روز", "days"},
	{"هفته", "week"},
	{"ماه", "month"},
	{"سال", "year"},
	{"چقدر", "how much"},
	{"چیست", "what is"},
	{"چند", "how many"},
}

// FallbackTranslate renders Persian input into rough canonical English using
// the substitution table. Time expressions and comparison cues survive; the
// result is good enough for the rule-based pipeline.
func FallbackTranslate(q string) string {
	q = NormalizeDigits(q)
	for _, sub := range substitutions {
		q = strings.ReplaceAll(q, sub.fa, sub.en)
	}
	// Persian word order leaves qualifiers after the noun ("3 days last");
	// the time scanner accepts both orders, so no reordering here.
	return strings.Join(strings.Fields(q), " ")
}
