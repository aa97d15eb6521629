package insight

import (
	"strings"
	"testing"
)

func historyPoint(year, monthIndex int, income, expense, balance float64) HistoryPoint {
	return HistoryPoint{
		Year:       year,
		MonthIndex: monthIndex,
		Income:     income,
		Expense:    expense,
		Balance:    balance,
		SortKey:    year*12 + monthIndex,
	}
}

// TestBuildStatisticalForecastTwoMonths verifies the weighted-average
// prediction, the next-month label and the confidence for a short history.
func TestBuildStatisticalForecastTwoMonths(t *testing.T) {
	points := []HistoryPoint{
		historyPoint(2024, 0, 5000000, 3500000, 1500000),
		historyPoint(2024, 1, 5200000, 3600000, 1600000),
	}

	forecast := BuildStatisticalForecast(points)

	if forecast.NextMonthLabel != "Maret 2024" {
		t.Fatalf("expected next month Maret 2024, got %s", forecast.NextMonthLabel)
	}

	// weights 1,2 over the last two incomes plus momentum and slope terms.
	if forecast.PredictedIncome != 5243333 {
		t.Fatalf("expected predicted income 5243333, got %d", forecast.PredictedIncome)
	}

	if forecast.IncomeRange.Min > forecast.PredictedIncome || forecast.IncomeRange.Max < forecast.PredictedIncome {
		t.Fatalf("expected income range to bracket the prediction, got %+v", forecast.IncomeRange)
	}

	if forecast.Confidence < 40 || forecast.Confidence > 95 {
		t.Fatalf("confidence out of bounds: %d", forecast.Confidence)
	}
	if forecast.Confidence != 59 {
		t.Fatalf("expected confidence 59 for this history, got %d", forecast.Confidence)
	}

	if len(forecast.ActionItems) != 3 {
		t.Fatalf("expected 3 action items, got %d", len(forecast.ActionItems))
	}
	if !strings.Contains(forecast.Insight, "surplus") {
		t.Fatalf("expected surplus insight, got %q", forecast.Insight)
	}
}

// TestBuildStatisticalForecastSinglePoint verifies one month of history
// predicts itself.
func TestBuildStatisticalForecastSinglePoint(t *testing.T) {
	points := []HistoryPoint{historyPoint(2024, 11, 4000000, 3000000, 1000000)}

	forecast := BuildStatisticalForecast(points)

	if forecast.PredictedIncome != 4000000 || forecast.PredictedExpense != 3000000 {
		t.Fatalf("expected the single point to carry over, got %d/%d", forecast.PredictedIncome, forecast.PredictedExpense)
	}
	if forecast.NextMonthLabel != "Januari 2025" {
		t.Fatalf("expected year rollover to Januari 2025, got %s", forecast.NextMonthLabel)
	}
}

// TestBuildStatisticalForecastDeficit verifies negative balances survive and
// switch the insight and action items to recovery mode.
func TestBuildStatisticalForecastDeficit(t *testing.T) {
	points := []HistoryPoint{
		historyPoint(2024, 3, 3000000, 3500000, -500000),
		historyPoint(2024, 4, 3000000, 3800000, -800000),
	}

	forecast := BuildStatisticalForecast(points)

	if forecast.PredictedBalance >= 0 {
		t.Fatalf("expected negative predicted balance, got %d", forecast.PredictedBalance)
	}
	if forecast.PredictedExpense < 0 || forecast.PredictedIncome < 0 {
		t.Fatal("income and expense must never go negative")
	}
	if !strings.Contains(forecast.Insight, "defisit") {
		t.Fatalf("expected deficit insight, got %q", forecast.Insight)
	}
	if !strings.Contains(forecast.ActionItems[2], "non-prioritas") {
		t.Fatalf("expected recovery action item, got %q", forecast.ActionItems[2])
	}
}

// TestForecastMetricClampsNegative verifies the non-negative clamp for
// income and expense series.
func TestForecastMetricClampsNegative(t *testing.T) {
	values := []float64{500000, 10000}

	if got := forecastMetric(values, false); got != 0 {
		t.Fatalf("expected clamp at zero, got %v", got)
	}
	if got := forecastMetric([]float64{-100, -500}, true); got >= 0 {
		t.Fatalf("expected negative prediction when allowed, got %v", got)
	}
}

// TestConfidenceLabel verifies the tinggi/menengah/rendah tiers.
func TestConfidenceLabel(t *testing.T) {
	cases := []struct {
		confidence int
		want       string
	}{
		{95, "tinggi"},
		{80, "tinggi"},
		{79, "menengah"},
		{60, "menengah"},
		{59, "rendah"},
		{35, "rendah"},
	}

	for _, tc := range cases {
		if got := ConfidenceLabel(tc.confidence); got != tc.want {
			t.Fatalf("ConfidenceLabel(%d) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}
