package insight

import (
	"strings"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

// TestDynamicPromptContext verifies the rule thresholds that inject findings
// and directives into the prompts.
func TestDynamicPromptContext(t *testing.T) {
	stats := MonthlyStats{
		Balance:                 -250000,
		ExpenseToIncomeRatio:    floatPtr(95),
		TopExpenseCategoryShare: floatPtr(48),
		TopExpenseCategories: []CategoryAmount{
			{Category: "Makanan", Amount: 1200000},
		},
		RecentExpenseTrend: TrendUp,
		ProjectedBalance:   -900000,
	}

	findings, directives := dynamicPromptContext(stats)

	if len(findings) != 5 || len(directives) != 5 {
		t.Fatalf("expected 5 findings and 5 directives, got %d/%d", len(findings), len(directives))
	}
	if !strings.Contains(findings[0], "Defisit arus kas sebesar Rp250.000") {
		t.Fatalf("unexpected deficit finding: %s", findings[0])
	}
	if !strings.Contains(findings[1], "sangat tinggi") {
		t.Fatalf("expected high-ratio finding, got %s", findings[1])
	}
	if !strings.Contains(findings[2], "Makanan") || !strings.Contains(directives[2], "Makanan") {
		t.Fatalf("expected concentration finding to name the category: %s / %s", findings[2], directives[2])
	}
	if !strings.Contains(findings[3], "kenaikan") {
		t.Fatalf("expected rising-trend finding, got %s", findings[3])
	}
	if !strings.Contains(findings[4], "negatif") {
		t.Fatalf("expected negative-projection finding, got %s", findings[4])
	}
}

func TestDynamicPromptContextStableDefaults(t *testing.T) {
	stats := MonthlyStats{
		Balance:            1000000,
		RecentExpenseTrend: TrendStable,
		ProjectedBalance:   500000,
	}

	findings, directives := dynamicPromptContext(stats)

	if len(findings) != 1 || !strings.Contains(findings[0], "Surplus kas") {
		t.Fatalf("expected single surplus finding, got %v", findings)
	}
	if len(directives) != 1 || !strings.Contains(directives[0], "surplus") {
		t.Fatalf("expected single surplus directive, got %v", directives)
	}
}

// TestBuildDeepInsightPrompt verifies the deep prompt carries the aggregates,
// the raw transaction lines and the output contract.
func TestBuildDeepInsightPrompt(t *testing.T) {
	stats := MonthlyStats{
		Month:        "Maret",
		Year:         "2024",
		TotalIncome:  5000000,
		TotalExpense: 3000000,
		Balance:      2000000,
		TopExpenseCategories: []CategoryAmount{
			{Category: "Makanan", Amount: 1500000},
		},
		RecentExpenseTrend: TrendStable,
		HealthScore:        70,
		HealthStatus:       HealthCaution,
		Transactions: []TransactionDigest{
			{Date: "2024-03-02", Type: "expense", AmountRupiah: "Rp150.000", Category: "Makanan", Note: "makan siang"},
		},
	}

	prompt := BuildDeepInsightPrompt(stats, nil)

	for _, want := range []string{
		"Data keuangan pengguna untuk Maret 2024.",
		"- Total pemasukan: Rp5.000.000",
		"- Total pengeluaran: Rp3.000.000",
		"1. Makanan: Rp1.500.000",
		"1. 2024-03-02 | expense | Rp150.000 | Makanan | catatan: makan siang",
		"Data data_keuangan dari FE: tidak tersedia.",
		"Temuan prioritas berbasis data",
		`"key_numbers": [`,
		"Balas HANYA dengan JSON valid tanpa markdown",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("deep prompt missing %q", want)
		}
	}
}

// TestBuildDeepInsightPromptFrontendBlock verifies the accepted client
// payload is summarized inside the prompt.
func TestBuildDeepInsightPromptFrontendBlock(t *testing.T) {
	payload := &FinancialPayload{
		Source:      "dashboard",
		GeneratedAt: "2024-03-10T08:00:00Z",
		Period:      PayloadPeriod{ReferenceMonth: "2024-03"},
		Summary:     PayloadSummary{Income: 4800000, Expense: 2900000, Balance: 1900000},
		Transactions: PayloadTransactions{
			TotalCount: 2,
			Items: []PayloadTransaction{
				{Date: "2024-03-01", Type: "expense", Amount: 200000, Category: "Transportasi", Note: "bensin"},
				{Date: "2024-03-02", Type: "income", Amount: 4800000, Category: "Gaji", Note: "-"},
			},
		},
		PayloadStatus: PayloadAccepted,
		BackendGap:    &BackendGap{IncomeGap: -200000, IncomeGapPercent: -4},
	}

	prompt := BuildDeepInsightPrompt(MonthlyStats{Month: "Maret", Year: "2024"}, payload)

	for _, want := range []string{
		"- Source FE: dashboard",
		"- FE Payload Status: accepted",
		"- FE vs Backend Gap -> income: -Rp200.000 (-4.0%)",
		"1. Transportasi: Rp200.000",
		"2024-03-01 | expense | Rp200.000 | Transportasi | bensin",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("frontend block missing %q", want)
		}
	}
}

func TestBuildCompactInsightPrompt(t *testing.T) {
	stats := MonthlyStats{
		Month:            "April",
		Year:             "2024",
		TotalIncome:      4000000,
		TotalExpense:     3900000,
		Balance:          100000,
		HealthScore:      55,
		HealthStatus:     HealthCaution,
		TransactionCount: 12,
	}

	prompt := BuildCompactInsightPrompt(stats, nil)

	for _, want := range []string{
		"Buat analisis keuangan bulanan untuk April 2024.",
		"Pemasukan: Rp4.000.000.",
		"Status kesehatan finansial: waspada (55/100).",
		"Fokus masalah prioritas:",
		"Balas JSON valid tanpa markdown:",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("compact prompt missing %q", want)
		}
	}

	if len(prompt) >= len(BuildDeepInsightPrompt(stats, nil)) {
		t.Fatal("expected compact prompt to be shorter than the deep prompt")
	}
}

// TestBuildForecastPrompt verifies the history lines, the 12-point cap and
// the embedded baseline numbers.
func TestBuildForecastPrompt(t *testing.T) {
	points := make([]HistoryPoint, 0, 15)
	for i := 0; i < 15; i++ {
		points = append(points, HistoryPoint{
			Year:       2023,
			MonthIndex: i % 12,
			Income:     5000000,
			Expense:    3000000,
			Balance:    2000000,
		})
	}

	baseline := ForecastResult{
		PredictedIncome:  5100000,
		PredictedExpense: 3100000,
		PredictedBalance: 2000000,
		IncomeRange:      Range{Min: 4800000, Max: 5400000},
	}

	prompt := BuildForecastPrompt(points, baseline)

	if strings.Count(prompt, "| income Rp5.000.000 |") != 12 {
		t.Fatalf("expected exactly 12 history lines, got %d", strings.Count(prompt, "| income Rp5.000.000 |"))
	}
	for _, want := range []string{
		"- Prediksi income: Rp5.100.000",
		"- Prediksi expense: Rp3.100.000",
		"- Range income: Rp4.800.000 - Rp5.400.000",
		`"action_items": ["string", "string", "string"]`,
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("forecast prompt missing %q", want)
		}
	}
}

func TestBuildForecastPromptEmptyHistory(t *testing.T) {
	prompt := BuildForecastPrompt(nil, ForecastResult{})
	if !strings.Contains(prompt, "Berikut data histori summary bulanan user") {
		t.Fatal("expected history header")
	}
	if !strings.Contains(prompt, "\n-\n") {
		t.Fatal("expected dash placeholder for empty history")
	}
}
