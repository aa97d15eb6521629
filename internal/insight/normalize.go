package insight

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type KeyNumber struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Insight string `json:"insight"`
}

// InsightResult is the sanitized, validated shape of a monthly insight. After
// normalization the summary and trend analysis are never empty.
type InsightResult struct {
	Summary         string      `json:"summary"`
	Recommendations []string    `json:"recommendations"`
	TrendAnalysis   string      `json:"trend_analysis"`
	KeyNumbers      []KeyNumber `json:"key_numbers"`
}

var (
	openingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	closingFence  = regexp.MustCompile("\\s*```$")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	sentenceSplit = regexp.MustCompile(`[.!?]\s+`)
)

// ParseLLMContent recovers a JSON object from untrusted model output: strip
// code fences, try a direct parse, slice between the outermost braces, then
// strip trailing commas. It never fails loudly; unusable content returns nil.
func ParseLLMContent(content string) map[string]any {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return nil
	}

	raw = openingFence.ReplaceAllString(raw, "")
	raw = closingFence.ReplaceAllString(raw, "")
	raw = strings.TrimSpace(raw)

	if payload := decodeObject(raw); payload != nil {
		return payload
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}

	sliced := raw[start : end+1]
	if payload := decodeObject(sliced); payload != nil {
		return payload
	}

	return decodeObject(trailingComma.ReplaceAllString(sliced, "$1"))
}

func decodeObject(raw string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	return payload
}

// NormalizeInsightResponse validates and sanitizes a parsed insight payload.
// It returns nil when the payload cannot be repaired into a complete result,
// which sends the orchestrator to the next degradation tier.
func NormalizeInsightResponse(payload map[string]any) *InsightResult {
	if payload == nil {
		return nil
	}

	summary := ""
	if text, ok := payload["summary"].(string); ok {
		summary = SanitizeHTML(text)
	}

	recommendations := make([]string, 0, 6)
	for _, item := range stringList(payload["recommendations"]) {
		sanitized := SanitizeHTML(item)
		if sanitized == "" {
			continue
		}
		recommendations = append(recommendations, sanitized)
		if len(recommendations) == 6 {
			break
		}
	}

	keyNumbers := normalizeKeyNumbers(payload["key_numbers"])

	trendAnalysis := ""
	if text, ok := payload["trend_analysis"].(string); ok {
		trendAnalysis = SanitizeHTML(text)
	}
	if trendAnalysis == "" && summary != "" {
		trendAnalysis = summary
	}

	if len(recommendations) == 0 && trendAnalysis != "" {
		recommendations = append(recommendations, trendAnalysis)
	}
	if len(recommendations) < 3 && summary != "" {
		for _, sentence := range sentenceSplit.Split(StripHTML(summary), -1) {
			if len(recommendations) >= 3 {
				break
			}
			sanitized := SanitizeHTML(strings.TrimSpace(sentence))
			if sanitized == "" {
				continue
			}
			recommendations = append(recommendations, sanitized)
		}
	}

	if summary == "" || len(recommendations) == 0 || trendAnalysis == "" {
		return nil
	}

	if len(recommendations) > 6 {
		recommendations = recommendations[:6]
	}

	return &InsightResult{
		Summary:         summary,
		Recommendations: recommendations,
		TrendAnalysis:   trendAnalysis,
		KeyNumbers:      keyNumbers,
	}
}

func normalizeKeyNumbers(value any) []KeyNumber {
	items, ok := value.([]any)
	if !ok {
		return nil
	}

	numbers := make([]KeyNumber, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}

		label := SanitizeHTML(firstText(entry, "label", "metric", "name"))
		amount := SanitizeHTML(firstText(entry, "value", "amount"))
		note := SanitizeHTML(firstText(entry, "insight", "note", "reason"))

		if label == "" || amount == "" {
			continue
		}

		numbers = append(numbers, KeyNumber{Label: label, Value: amount, Insight: note})
		if len(numbers) == 8 {
			break
		}
	}

	return numbers
}

// NormalizeForecastResponse clamps and repairs a parsed forecast payload,
// falling back to the baseline per field. Like the insight path it returns
// nil only for payloads that are not objects at all.
func NormalizeForecastResponse(payload map[string]any, baseline ForecastResult) *ForecastResult {
	if payload == nil {
		return nil
	}

	predictedIncome := int64(math.Round(math.Max(0,
		numberField(payload, []string{"predicted_income", "predictedIncome"}, float64(baseline.PredictedIncome)))))
	predictedExpense := int64(math.Round(math.Max(0,
		numberField(payload, []string{"predicted_expense", "predictedExpense"}, float64(baseline.PredictedExpense)))))
	predictedBalance := int64(math.Round(
		numberField(payload, []string{"predicted_balance", "predictedBalance"}, float64(predictedIncome-predictedExpense))))

	confidence := clampInt(int(math.Round(
		numberField(payload, []string{"confidence"}, float64(baseline.Confidence)))), 35, 95)

	insightText := plainText(payload["insight"])
	if insightText == "" {
		insightText = baseline.Insight
	}

	actionItems := make([]string, 0, 4)
	for _, item := range stringList(payload["action_items"]) {
		text := plainText(item)
		if text == "" {
			continue
		}
		actionItems = append(actionItems, text)
		if len(actionItems) == 4 {
			break
		}
	}
	if len(actionItems) == 0 {
		actionItems = baseline.ActionItems
	}

	return &ForecastResult{
		NextMonthLabel:   baseline.NextMonthLabel,
		PredictedIncome:  predictedIncome,
		PredictedExpense: predictedExpense,
		PredictedBalance: predictedBalance,
		IncomeRange:      normalizeRange(payload, "income_range", "incomeRange", baseline.IncomeRange, false),
		ExpenseRange:     normalizeRange(payload, "expense_range", "expenseRange", baseline.ExpenseRange, false),
		BalanceRange:     normalizeRange(payload, "balance_range", "balanceRange", baseline.BalanceRange, true),
		Confidence:       confidence,
		Insight:          insightText,
		ActionItems:      actionItems,
	}
}

// normalizeRange accepts {min,max} objects, [min,max] arrays and flat
// <key>_min/<key>_max fields, swapping inverted bounds.
func normalizeRange(payload map[string]any, key, altKey string, fallback Range, allowNegative bool) Range {
	low := float64(fallback.Min)
	high := float64(fallback.Max)

	value := payload[key]
	if value == nil {
		value = payload[altKey]
	}

	switch typed := value.(type) {
	case []any:
		if len(typed) >= 2 {
			low = coerceNumber(typed[0], low)
			high = coerceNumber(typed[1], high)
		}
	case map[string]any:
		low = coerceNumber(typed["min"], low)
		high = coerceNumber(typed["max"], high)
	}

	low = coerceNumber(payload[key+"_min"], low)
	high = coerceNumber(payload[key+"_max"], high)

	if !allowNegative {
		low = math.Max(0, low)
		high = math.Max(0, high)
	}

	if low > high {
		low, high = high, low
	}

	return Range{
		Min: int64(math.Round(low)),
		Max: int64(math.Round(high)),
	}
}

func numberField(payload map[string]any, keys []string, fallback float64) float64 {
	for _, key := range keys {
		if value, ok := payload[key]; ok {
			return coerceNumber(value, fallback)
		}
	}

	return fallback
}

// coerceNumber accepts JSON numbers and numeric strings, keeping the
// fallback for anything else.
func coerceNumber(value any, fallback float64) float64 {
	switch typed := value.(type) {
	case float64:
		return typed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return fallback
		}
		return parsed
	default:
		return fallback
	}
}

// stringList accepts both an array of values and a newline-separated string.
func stringList(value any) []string {
	switch typed := value.(type) {
	case []any:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			if text, ok := item.(string); ok {
				items = append(items, text)
			}
		}
		return items
	case string:
		return strings.Split(typed, "\n")
	default:
		return nil
	}
}

func firstText(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		if text, ok := entry[key].(string); ok && strings.TrimSpace(text) != "" {
			return text
		}
	}

	return ""
}

func plainText(value any) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(StripHTML(SanitizeHTML(text)))
}
