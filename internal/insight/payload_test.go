package insight

import (
	"testing"
	"time"
)

// TestNormalizeFinancialPayload verifies coercion of an untyped client
// document, list bounding and defaults for missing fields.
func TestNormalizeFinancialPayload(t *testing.T) {
	items := make([]any, 0, 85)
	for i := 0; i < 85; i++ {
		items = append(items, map[string]any{
			"id":     float64(i),
			"type":   "transfer",
			"amount": float64(1000),
		})
	}

	raw := map[string]any{
		"generated_at": "2024-03-10T08:00:00Z",
		"period": map[string]any{
			"reference_month": "2024-03",
		},
		"summary": map[string]any{
			"income":  float64(5000000),
			"expense": "3000000",
			"balance": true,
		},
		"transactions": map[string]any{
			"total_count": float64(85),
			"items":       items,
		},
		"insights": map[string]any{
			"saving_status": "excellent",
		},
	}

	payload := NormalizeFinancialPayload(raw)
	if payload == nil {
		t.Fatal("expected payload, got nil")
	}

	if payload.GeneratedAt != "2024-03-10T08:00:00Z" || payload.Source != "-" {
		t.Fatalf("unexpected metadata: %s %s", payload.GeneratedAt, payload.Source)
	}
	if payload.Period.ReferenceMonth != "2024-03" {
		t.Fatalf("unexpected reference month: %s", payload.Period.ReferenceMonth)
	}
	if payload.Summary.Income != 5000000 {
		t.Fatalf("unexpected income: %v", payload.Summary.Income)
	}
	if payload.Summary.Expense != 3000000 {
		t.Fatalf("expected numeric string coerced, got %v", payload.Summary.Expense)
	}
	if payload.Summary.Balance != 0 {
		t.Fatalf("expected non-numeric balance coerced to 0, got %v", payload.Summary.Balance)
	}

	if len(payload.Transactions.Items) != 80 {
		t.Fatalf("expected items capped at 80, got %d", len(payload.Transactions.Items))
	}
	// The tail survives, so the first kept item is the sixth original one.
	if payload.Transactions.Items[0].ID != 5 {
		t.Fatalf("expected tail retention, first id %v", payload.Transactions.Items[0].ID)
	}
	if payload.Transactions.Items[0].Type != "expense" {
		t.Fatalf("expected unknown type coerced to expense, got %s", payload.Transactions.Items[0].Type)
	}
	if payload.Transactions.Items[0].Category != "Lainnya" {
		t.Fatalf("expected default category, got %s", payload.Transactions.Items[0].Category)
	}

	if payload.Insights.SavingStatus != "warning" {
		t.Fatalf("expected unknown saving status coerced to warning, got %s", payload.Insights.SavingStatus)
	}
}

func TestNormalizeFinancialPayloadRejectsNonObject(t *testing.T) {
	if got := NormalizeFinancialPayload(nil); got != nil {
		t.Fatal("expected nil for nil input")
	}
	if got := NormalizeFinancialPayload("bukan objek"); got != nil {
		t.Fatal("expected nil for string input")
	}
	if got := NormalizeFinancialPayload([]any{map[string]any{}}); got != nil {
		t.Fatal("expected nil for array input")
	}
}

// TestEvaluateFinancialPayload covers the acceptance ladder: missing, stale,
// empty and accepted payloads.
func TestEvaluateFinancialPayload(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	stats := MonthlyStats{TotalIncome: 4000000, TotalExpense: 2000000, Balance: 2000000}

	verdict := EvaluateFinancialPayload(stats, nil, now)
	if verdict.Status != PayloadNotProvided || verdict.Usable != nil {
		t.Fatalf("expected not_provided, got %+v", verdict)
	}

	stale := &FinancialPayload{Period: PayloadPeriod{ReferenceMonth: "2024-01"}}
	verdict = EvaluateFinancialPayload(stats, stale, now)
	if verdict.Status != "stale_period_2024-01" || verdict.Usable != nil {
		t.Fatalf("expected stale verdict, got %+v", verdict)
	}

	empty := &FinancialPayload{Period: PayloadPeriod{ReferenceMonth: "2024-03"}}
	verdict = EvaluateFinancialPayload(stats, empty, now)
	if verdict.Status != PayloadEmpty || verdict.Usable != nil {
		t.Fatalf("expected empty verdict, got %+v", verdict)
	}

	accepted := &FinancialPayload{
		Period: PayloadPeriod{ReferenceMonth: "2024-03"},
		Summary: PayloadSummary{
			Income:  5000000,
			Expense: 2500000,
			Balance: 2500000,
		},
	}
	verdict = EvaluateFinancialPayload(stats, accepted, now)
	if verdict.Status != PayloadAccepted || verdict.Usable == nil || !verdict.HasSummaryNumbers {
		t.Fatalf("expected accepted verdict, got %+v", verdict)
	}
	if verdict.Gap == nil {
		t.Fatal("expected backend gap computed")
	}
	if verdict.Gap.IncomeGap != 1000000 || verdict.Gap.IncomeGapPercent != 25 {
		t.Fatalf("unexpected income gap: %+v", verdict.Gap)
	}
	if verdict.Gap.ExpenseGap != 500000 || verdict.Gap.ExpenseGapPercent != 25 {
		t.Fatalf("unexpected expense gap: %+v", verdict.Gap)
	}
	if verdict.Gap.BalanceGap != 500000 {
		t.Fatalf("unexpected balance gap: %+v", verdict.Gap)
	}
}

// A payload without summary numbers but with transaction activity still
// counts as accepted, just without the frontend-primary marker.
func TestEvaluateFinancialPayloadActivityOnly(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	payload := &FinancialPayload{
		Transactions: PayloadTransactions{TotalCount: 3},
	}

	verdict := EvaluateFinancialPayload(MonthlyStats{}, payload, now)
	if verdict.Status != PayloadAccepted {
		t.Fatalf("expected accepted, got %s", verdict.Status)
	}
	if verdict.HasSummaryNumbers {
		t.Fatal("expected HasSummaryNumbers false for activity-only payload")
	}
}
