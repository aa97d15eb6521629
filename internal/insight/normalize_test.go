package insight

import (
	"strings"
	"testing"
)

// TestParseLLMContent covers the recovery ladder for model output: fenced
// JSON, prose around the object, trailing commas, unusable text.
func TestParseLLMContent(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantKey string
	}{
		{
			name:    "plain json",
			content: `{"summary": "oke"}`,
			wantKey: "summary",
		},
		{
			name:    "fenced json",
			content: "```json\n{\"summary\": \"oke\"}\n```",
			wantKey: "summary",
		},
		{
			name:    "prose around object",
			content: `Berikut hasilnya: {"summary": "oke"} semoga membantu`,
			wantKey: "summary",
		},
		{
			name:    "trailing comma",
			content: `{"summary": "oke", "recommendations": ["a",],}`,
			wantKey: "summary",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := ParseLLMContent(tc.content)
			if payload == nil {
				t.Fatal("expected payload, got nil")
			}
			if _, ok := payload[tc.wantKey]; !ok {
				t.Fatalf("expected key %q in %v", tc.wantKey, payload)
			}
		})
	}

	if got := ParseLLMContent("maaf, saya tidak bisa membantu"); got != nil {
		t.Fatalf("expected nil for plain prose, got %v", got)
	}
	if got := ParseLLMContent(""); got != nil {
		t.Fatalf("expected nil for empty content, got %v", got)
	}
	if got := ParseLLMContent(`{"summary": broken}`); got != nil {
		t.Fatalf("expected nil for broken json, got %v", got)
	}
}

// TestNormalizeInsightResponse verifies sanitization, the recommendation
// padding rules and the rejection of incomplete payloads.
func TestNormalizeInsightResponse(t *testing.T) {
	payload := map[string]any{
		"summary": `<p onclick="x()">Bulan ini <script>alert(1)</script>surplus.</p>`,
		"recommendations": []any{
			"<li>Kurangi jajan</li>",
			"",
			"Tambah tabungan",
		},
		"trend_analysis": "Pengeluaran stabil.",
		"key_numbers": []any{
			map[string]any{"label": "Saldo", "value": "Rp1.000.000", "insight": "aman"},
			map[string]any{"metric": "Rasio", "amount": "70%"},
			map[string]any{"value": "tanpa label"},
		},
	}

	result := NormalizeInsightResponse(payload)
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	if strings.Contains(result.Summary, "script") || strings.Contains(result.Summary, "onclick") {
		t.Fatalf("summary not sanitized: %s", result.Summary)
	}
	if len(result.Recommendations) < 2 {
		t.Fatalf("expected at least 2 recommendations, got %v", result.Recommendations)
	}
	if result.TrendAnalysis != "Pengeluaran stabil." {
		t.Fatalf("unexpected trend analysis: %s", result.TrendAnalysis)
	}

	if len(result.KeyNumbers) != 2 {
		t.Fatalf("expected 2 key numbers, got %+v", result.KeyNumbers)
	}
	if result.KeyNumbers[1].Label != "Rasio" || result.KeyNumbers[1].Value != "70%" {
		t.Fatalf("expected metric/amount aliases honored, got %+v", result.KeyNumbers[1])
	}
}

// TestNormalizeInsightResponsePadsRecommendations verifies that missing
// recommendations are filled from the trend analysis and summary sentences.
func TestNormalizeInsightResponsePadsRecommendations(t *testing.T) {
	payload := map[string]any{
		"summary":        "Kalimat satu. Kalimat dua. Kalimat tiga.",
		"trend_analysis": "Tren pengeluaran naik.",
	}

	result := NormalizeInsightResponse(payload)
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	if len(result.Recommendations) != 3 {
		t.Fatalf("expected 3 padded recommendations, got %v", result.Recommendations)
	}
	if result.Recommendations[0] != "Tren pengeluaran naik." {
		t.Fatalf("expected trend analysis first, got %s", result.Recommendations[0])
	}
}

func TestNormalizeInsightResponseRejectsIncomplete(t *testing.T) {
	if got := NormalizeInsightResponse(nil); got != nil {
		t.Fatal("expected nil for nil payload")
	}
	if got := NormalizeInsightResponse(map[string]any{"recommendations": []any{"a"}}); got != nil {
		t.Fatal("expected nil without summary")
	}
	if got := NormalizeInsightResponse(map[string]any{"summary": "<script>x</script>"}); got != nil {
		t.Fatal("expected nil when summary sanitizes to empty")
	}
}

// TestNormalizeForecastResponse verifies clamping, balance derivation and
// per-field baseline fallbacks.
func TestNormalizeForecastResponse(t *testing.T) {
	baseline := ForecastResult{
		NextMonthLabel:   "April 2024",
		PredictedIncome:  5000000,
		PredictedExpense: 3000000,
		PredictedBalance: 2000000,
		IncomeRange:      Range{Min: 4500000, Max: 5500000},
		ExpenseRange:     Range{Min: 2500000, Max: 3500000},
		BalanceRange:     Range{Min: 1500000, Max: 2500000},
		Confidence:       60,
		Insight:          "baseline insight",
		ActionItems:      []string{"baseline action"},
	}

	payload := map[string]any{
		"predicted_income":  "5200000",
		"predicted_expense": float64(-100),
		"confidence":        float64(150),
		"income_range":      map[string]any{"min": float64(5400000), "max": float64(4800000)},
		"expense_range":     []any{float64(2000000), float64(2600000)},
		"insight":           "<b>Arus kas</b> membaik.",
		"action_items":      []any{"Sisihkan 20%", "", "Review langganan"},
	}

	result := NormalizeForecastResponse(payload, baseline)
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	if result.PredictedIncome != 5200000 {
		t.Fatalf("expected numeric string coerced, got %d", result.PredictedIncome)
	}
	if result.PredictedExpense != 0 {
		t.Fatalf("expected negative expense clamped to 0, got %d", result.PredictedExpense)
	}
	if result.PredictedBalance != 5200000 {
		t.Fatalf("expected balance derived from income-expense, got %d", result.PredictedBalance)
	}
	if result.Confidence != 95 {
		t.Fatalf("expected confidence clamped to 95, got %d", result.Confidence)
	}
	if result.IncomeRange.Min != 4800000 || result.IncomeRange.Max != 5400000 {
		t.Fatalf("expected inverted range swapped, got %+v", result.IncomeRange)
	}
	if result.ExpenseRange.Min != 2000000 || result.ExpenseRange.Max != 2600000 {
		t.Fatalf("expected array range honored, got %+v", result.ExpenseRange)
	}
	if result.BalanceRange != baseline.BalanceRange {
		t.Fatalf("expected missing balance range to keep baseline, got %+v", result.BalanceRange)
	}
	if result.Insight != "Arus kas membaik." {
		t.Fatalf("expected insight stripped to plain text, got %q", result.Insight)
	}
	if len(result.ActionItems) != 2 {
		t.Fatalf("expected 2 action items, got %v", result.ActionItems)
	}
	if result.NextMonthLabel != "April 2024" {
		t.Fatalf("expected baseline month label kept, got %s", result.NextMonthLabel)
	}
}

func TestNormalizeForecastResponseFallsBackToBaseline(t *testing.T) {
	baseline := ForecastResult{
		NextMonthLabel:   "Mei 2024",
		PredictedIncome:  1000000,
		PredictedExpense: 800000,
		PredictedBalance: 200000,
		Confidence:       55,
		Insight:          "baseline insight",
		ActionItems:      []string{"baseline action"},
	}

	result := NormalizeForecastResponse(map[string]any{}, baseline)
	if result == nil {
		t.Fatal("expected result, got nil")
	}

	if result.PredictedIncome != 1000000 || result.PredictedExpense != 800000 {
		t.Fatalf("expected baseline predictions, got %d/%d", result.PredictedIncome, result.PredictedExpense)
	}
	if result.Confidence != 55 {
		t.Fatalf("expected baseline confidence, got %d", result.Confidence)
	}
	if result.Insight != "baseline insight" {
		t.Fatalf("expected baseline insight, got %q", result.Insight)
	}
	if len(result.ActionItems) != 1 || result.ActionItems[0] != "baseline action" {
		t.Fatalf("expected baseline action items, got %v", result.ActionItems)
	}

	if got := NormalizeForecastResponse(nil, baseline); got != nil {
		t.Fatal("expected nil for nil payload")
	}
}

func TestNormalizeForecastResponseConfidenceFloor(t *testing.T) {
	baseline := ForecastResult{Confidence: 50}
	result := NormalizeForecastResponse(map[string]any{"confidence": float64(5)}, baseline)
	if result.Confidence != 35 {
		t.Fatalf("expected confidence floored at 35, got %d", result.Confidence)
	}
}
