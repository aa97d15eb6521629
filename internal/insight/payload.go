package insight

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Payload statuses reported back to the caller.
const (
	PayloadNotProvided = "not_provided"
	PayloadEmpty       = "empty_payload"
	PayloadAccepted    = "accepted"
)

type PayloadPeriod struct {
	ReferenceMonth string `json:"reference_month"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

type PayloadSummary struct {
	Balance             float64 `json:"balance"`
	Income              float64 `json:"income"`
	Expense             float64 `json:"expense"`
	Saving              float64 `json:"saving"`
	RemainingMoney      float64 `json:"remaining_money"`
	ExpenseRatioPercent float64 `json:"expense_ratio_percent"`
}

type PayloadChartPoint struct {
	Date    string  `json:"date"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

type PayloadChart struct {
	TotalPoints  float64             `json:"total_points"`
	TotalIncome  float64             `json:"total_income"`
	TotalExpense float64             `json:"total_expense"`
	NetFlow      float64             `json:"net_flow"`
	PeakIncome   float64             `json:"peak_income"`
	PeakExpense  float64             `json:"peak_expense"`
	Points       []PayloadChartPoint `json:"points"`
}

type PayloadTransaction struct {
	ID       float64 `json:"id"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Note     string  `json:"note"`
}

type PayloadTransactions struct {
	TotalCount    float64              `json:"total_count"`
	IncomeCount   float64              `json:"income_count"`
	ExpenseCount  float64              `json:"expense_count"`
	TotalAmount   float64              `json:"total_amount"`
	AverageAmount float64              `json:"average_amount"`
	Items         []PayloadTransaction `json:"items"`
}

type PayloadInsights struct {
	RecommendedSaving float64 `json:"recommended_saving"`
	SavingGap         float64 `json:"saving_gap"`
	SavingStatus      string  `json:"saving_status"`
}

type PayloadSeriesPoint struct {
	Date             string  `json:"date,omitempty"`
	WeekLabel        string  `json:"week_label,omitempty"`
	StartDate        string  `json:"start_date,omitempty"`
	EndDate          string  `json:"end_date,omitempty"`
	Month            string  `json:"month,omitempty"`
	Income           float64 `json:"income"`
	Expense          float64 `json:"expense"`
	Net              float64 `json:"net"`
	TransactionCount float64 `json:"transaction_count"`
}

type PayloadSeries struct {
	TotalPoints  float64              `json:"total_points"`
	TotalIncome  float64              `json:"total_income"`
	TotalExpense float64              `json:"total_expense"`
	NetFlow      float64              `json:"net_flow"`
	Points       []PayloadSeriesPoint `json:"points"`
}

// FinancialPayload is the client-computed financial snapshot optionally sent
// with a generate request. Every field is defensively coerced; malformed
// input defaults to zero values instead of failing.
type FinancialPayload struct {
	GeneratedAt  string              `json:"generated_at"`
	Source       string              `json:"source"`
	Period       PayloadPeriod       `json:"period"`
	Summary      PayloadSummary      `json:"summary"`
	Chart        PayloadChart        `json:"chart"`
	Transactions PayloadTransactions `json:"transactions"`
	Insights     PayloadInsights     `json:"insights"`
	Daily        PayloadSeries       `json:"daily"`
	Weekly       PayloadSeries       `json:"weekly"`
	Monthly      PayloadSeries       `json:"monthly"`

	PayloadStatus string      `json:"payload_status,omitempty"`
	BackendGap    *BackendGap `json:"backend_gap,omitempty"`
}

// BackendGap is the difference between client-supplied and backend-computed
// totals.
type BackendGap struct {
	IncomeGap         float64 `json:"income_gap"`
	ExpenseGap        float64 `json:"expense_gap"`
	BalanceGap        float64 `json:"balance_gap"`
	IncomeGapPercent  float64 `json:"income_gap_percent"`
	ExpenseGapPercent float64 `json:"expense_gap_percent"`
}

// PayloadEvaluation is the staleness/emptiness verdict for a client payload.
type PayloadEvaluation struct {
	Usable            *FinancialPayload
	Status            string
	Gap               *BackendGap
	HasSummaryNumbers bool
}

// NormalizeFinancialPayload coerces an untyped client document into the
// typed payload, bounding every list. A non-object input yields nil.
func NormalizeFinancialPayload(raw any) *FinancialPayload {
	document, ok := raw.(map[string]any)
	if !ok || document == nil {
		return nil
	}

	summary := asObject(document["summary"])
	chart := asObject(document["chart"])
	transactions := asObject(document["transactions"])
	insights := asObject(document["insights"])
	period := asObject(document["period"])
	daily := asObject(document["daily"])
	weekly := asObject(document["weekly"])
	monthly := asObject(document["monthly"])

	payload := &FinancialPayload{
		GeneratedAt: asText(document["generated_at"], "-"),
		Source:      asText(document["source"], "-"),
		Period: PayloadPeriod{
			ReferenceMonth: asText(period["reference_month"], ""),
			StartDate:      asText(period["start_date"], ""),
			EndDate:        asText(period["end_date"], ""),
		},
		Summary: PayloadSummary{
			Balance:             asNumber(summary["balance"]),
			Income:              asNumber(summary["income"]),
			Expense:             asNumber(summary["expense"]),
			Saving:              asNumber(summary["saving"]),
			RemainingMoney:      asNumber(summary["remaining_money"]),
			ExpenseRatioPercent: asNumber(summary["expense_ratio_percent"]),
		},
		Chart: PayloadChart{
			TotalPoints:  asNumber(chart["total_points"]),
			TotalIncome:  asNumber(chart["total_income"]),
			TotalExpense: asNumber(chart["total_expense"]),
			NetFlow:      asNumber(chart["net_flow"]),
			PeakIncome:   asNumber(chart["peak_income"]),
			PeakExpense:  asNumber(chart["peak_expense"]),
			Points:       chartPoints(chart["points"], 20),
		},
		Transactions: PayloadTransactions{
			TotalCount:    asNumber(transactions["total_count"]),
			IncomeCount:   asNumber(transactions["income_count"]),
			ExpenseCount:  asNumber(transactions["expense_count"]),
			TotalAmount:   asNumber(transactions["total_amount"]),
			AverageAmount: asNumber(transactions["average_amount"]),
			Items:         transactionItems(transactions["items"], 80),
		},
		Insights: PayloadInsights{
			RecommendedSaving: asNumber(insights["recommended_saving"]),
			SavingGap:         asNumber(insights["saving_gap"]),
			SavingStatus:      savingStatus(insights["saving_status"]),
		},
		Daily:   seriesBlock(daily, 45),
		Weekly:  seriesBlock(weekly, 12),
		Monthly: seriesBlock(monthly, 12),
	}

	return payload
}

// EvaluateFinancialPayload decides whether a normalized client payload can
// participate in insight generation: same-month payloads with real numbers
// are accepted, everything else gets a diagnostic status.
func EvaluateFinancialPayload(stats MonthlyStats, payload *FinancialPayload, now time.Time) PayloadEvaluation {
	if payload == nil {
		return PayloadEvaluation{Status: PayloadNotProvided}
	}

	currentMonth := fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
	referenceMonth := payload.Period.ReferenceMonth
	if referenceMonth != "" && referenceMonth != currentMonth {
		return PayloadEvaluation{Status: "stale_period_" + referenceMonth}
	}

	hasSummaryNumbers := payload.Summary.Income > 0 ||
		payload.Summary.Expense > 0 ||
		payload.Summary.Balance != 0
	hasActivity := payload.Transactions.TotalCount > 0 ||
		payload.Daily.TotalPoints > 0 ||
		payload.Weekly.TotalPoints > 0

	if !hasSummaryNumbers && !hasActivity {
		return PayloadEvaluation{Status: PayloadEmpty}
	}

	return PayloadEvaluation{
		Usable:            payload,
		Status:            PayloadAccepted,
		Gap:               buildBackendGap(stats, payload),
		HasSummaryNumbers: hasSummaryNumbers,
	}
}

func buildBackendGap(stats MonthlyStats, payload *FinancialPayload) *BackendGap {
	gap := &BackendGap{
		IncomeGap:  payload.Summary.Income - stats.TotalIncome,
		ExpenseGap: payload.Summary.Expense - stats.TotalExpense,
		BalanceGap: payload.Summary.Balance - stats.Balance,
	}

	if stats.TotalIncome > 0 {
		gap.IncomeGapPercent = roundTo2(gap.IncomeGap / stats.TotalIncome * 100)
	}
	if stats.TotalExpense > 0 {
		gap.ExpenseGapPercent = roundTo2(gap.ExpenseGap / stats.TotalExpense * 100)
	}

	return gap
}

func chartPoints(value any, limit int) []PayloadChartPoint {
	items := tailObjects(value, limit)
	points := make([]PayloadChartPoint, 0, len(items))
	for _, item := range items {
		points = append(points, PayloadChartPoint{
			Date:    asText(item["date"], "-"),
			Income:  asNumber(item["income"]),
			Expense: asNumber(item["expense"]),
			Net:     asNumber(item["net"]),
		})
	}

	return points
}

func transactionItems(value any, limit int) []PayloadTransaction {
	items := tailObjects(value, limit)
	txs := make([]PayloadTransaction, 0, len(items))
	for _, item := range items {
		txType := "expense"
		if asText(item["type"], "") == "income" {
			txType = "income"
		}

		note := asText(item["note"], "-")
		if runes := []rune(note); len(runes) > 80 {
			note = string(runes[:80])
		}

		txs = append(txs, PayloadTransaction{
			ID:       asNumber(item["id"]),
			Date:     asText(item["date"], "-"),
			Category: asText(item["category"], "Lainnya"),
			Type:     txType,
			Amount:   asNumber(item["amount"]),
			Note:     note,
		})
	}

	return txs
}

func seriesBlock(block map[string]any, limit int) PayloadSeries {
	items := tailObjects(block["points"], limit)
	points := make([]PayloadSeriesPoint, 0, len(items))
	for _, item := range items {
		points = append(points, PayloadSeriesPoint{
			Date:             asText(item["date"], ""),
			WeekLabel:        asText(item["week_label"], ""),
			StartDate:        asText(item["start_date"], ""),
			EndDate:          asText(item["end_date"], ""),
			Month:            asText(item["month"], ""),
			Income:           asNumber(item["income"]),
			Expense:          asNumber(item["expense"]),
			Net:              asNumber(item["net"]),
			TransactionCount: asNumber(item["transaction_count"]),
		})
	}

	return PayloadSeries{
		TotalPoints:  asNumber(block["total_points"]),
		TotalIncome:  asNumber(block["total_income"]),
		TotalExpense: asNumber(block["total_expense"]),
		NetFlow:      asNumber(block["net_flow"]),
		Points:       points,
	}
}

func tailObjects(value any, limit int) []map[string]any {
	list, ok := value.([]any)
	if !ok {
		return nil
	}

	if len(list) > limit {
		list = list[len(list)-limit:]
	}

	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		items = append(items, asObject(entry))
	}

	return items
}

func asObject(value any) map[string]any {
	if object, ok := value.(map[string]any); ok && object != nil {
		return object
	}

	return map[string]any{}
}

func asText(value any, fallback string) string {
	if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}

	return fallback
}

func asNumber(value any) float64 {
	return coerceNumber(value, 0)
}

func savingStatus(value any) string {
	if asText(value, "") == "good" {
		return "good"
	}

	return "warning"
}

func roundTo2(value float64) float64 {
	return math.Round(value*100) / 100
}
