package format

import (
	"time"

	"github.com/agrosense/agrosense/pkg/agrierr"
	"github.com/agrosense/agrosense/pkg/models"
)

const kindEmpty = agrierr.KindEmptyResult

// errorCatalog maps failure kinds to the bilingual client-facing messages.
// Internal detail stays in logs; these are the words end users see.
var errorCatalog = map[agrierr.Kind]struct{ en, fa string }{
	agrierr.KindBadRequest: {
		en: "The request could not be understood.",
		fa: "درخواست قابل فهم نبود.",
	},
	agrierr.KindValidation: {
		en: "The generated query was rejected by the safety validator.",
		fa: "پرس‌وجوی تولیدشده توسط اعتبارسنج ایمنی رد شد.",
	},
	agrierr.KindMapping: {
		en: "Could not map the question to a known sensor type.",
		fa: "امکان تطبیق پرسش با هیچ حسگر شناخته‌شده‌ای وجود نداشت.",
	},
	agrierr.KindExecution: {
		en: "The query failed while reading sensor data.",
		fa: "اجرای پرس‌وجو هنگام خواندن داده حسگرها با خطا مواجه شد.",
	},
	agrierr.KindEmptyResult: {
		en: "No sensor data was found for the requested period.",
		fa: "برای بازه درخواستی داده‌ای از حسگرها یافت نشد.",
	},
	agrierr.KindLLMUnavailable: {
		en: "The language model is unavailable; a simplified answer was attempted.",
		fa: "مدل زبانی در دسترس نیست؛ پاسخ ساده‌شده ارائه شد.",
	},
	agrierr.KindTimeout: {
		en: "The request took too long and was stopped.",
		fa: "پردازش درخواست بیش از حد طول کشید و متوقف شد.",
	},
	agrierr.KindCancelled: {
		en: "The request was cancelled.",
		fa: "درخواست لغو شد.",
	},
	agrierr.KindInternal: {
		en: "An internal error occurred.",
		fa: "خطای داخلی رخ داد.",
	},
}

// DescribeError renders a failure into the typed bilingual detail block.
func DescribeError(err error) *models.ErrorDetails {
	kind := agrierr.KindOf(err)
	entry, ok := errorCatalog[kind]
	if !ok {
		entry = errorCatalog[agrierr.KindInternal]
		kind = agrierr.KindInternal
	}
	return &models.ErrorDetails{
		Kind:      string(kind),
		Message:   entry.en,
		MessageFa: entry.fa,
	}
}

// ErrorResult builds the unified result for a failed query. The summary is in
// the caller's language; the full detail block carries both.
func ErrorResult(err error, lang string, ir *models.SemanticIR) *models.QueryResult {
	details := DescribeError(err)
	summary := details.Message
	if lang == "fa" && details.MessageFa != "" {
		summary = details.MessageFa
	}
	return &models.QueryResult{
		Success:   false,
		Summary:   summary,
		Metrics:   map[string]models.SensorMetrics{},
		RawData:   []map[string]any{},
		Chart:     []models.ChartPoint{},
		Timestamp: time.Now().UTC(),
		Validation: models.Validation{
			QueryValid:       agrierr.KindOf(err) != agrierr.KindValidation,
			ExecutionSuccess: false,
			SensorTypes:      []string{},
			SemanticJSON:     ir,
			ErrorDetails:     details,
		},
	}
}
