package insight

import (
	"fmt"
	"math"
)

type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ForecastResult is the next-month prediction with confidence bands. It is
// produced either purely statistically or statistically with an AI overlay.
type ForecastResult struct {
	NextMonthLabel   string   `json:"next_month_label"`
	PredictedIncome  int64    `json:"predicted_income"`
	PredictedExpense int64    `json:"predicted_expense"`
	PredictedBalance int64    `json:"predicted_balance"`
	IncomeRange      Range    `json:"income_range"`
	ExpenseRange     Range    `json:"expense_range"`
	BalanceRange     Range    `json:"balance_range"`
	Confidence       int      `json:"confidence"`
	Insight          string   `json:"insight"`
	ActionItems      []string `json:"action_items"`
}

func stdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, value := range values {
		variance += (value - mean) * (value - mean)
	}
	variance /= float64(len(values))

	return math.Sqrt(math.Max(0, variance))
}

// forecastMetric predicts the next value of a series using a weighted average
// of the most recent points plus momentum and slope corrections.
func forecastMetric(values []float64, allowNegative bool) float64 {
	if len(values) == 0 {
		return 0
	}

	if len(values) == 1 {
		return values[0]
	}

	recent := values[len(values)-min(4, len(values)):]
	var totalWeight, weightedSum float64
	for i, value := range recent {
		weight := float64(i + 1)
		totalWeight += weight
		weightedSum += value * weight
	}
	weightedAverage := weightedSum / totalWeight

	momentum := values[len(values)-1] - values[len(values)-2]
	slope := momentum
	if len(values) >= 3 {
		slope = (values[len(values)-1] - values[len(values)-3]) / 2
	}

	prediction := weightedAverage + momentum*0.35 + slope*0.2
	if !allowNegative {
		prediction = math.Max(0, prediction)
	}

	return prediction
}

// forecastRange builds the confidence band around a prediction from the
// recent spread, momentum and a floor proportional to the prediction itself.
func forecastRange(prediction float64, values []float64, allowNegative bool) Range {
	recent := values
	if len(values) > 6 {
		recent = values[len(values)-6:]
	}

	std := stdDev(recent)
	var momentum float64
	if len(recent) >= 2 {
		momentum = recent[len(recent)-1] - recent[len(recent)-2]
	}

	band := math.Max(std*0.85, math.Max(math.Abs(momentum)*0.35, math.Abs(prediction)*0.08))

	low := prediction - band
	high := prediction + band
	if !allowNegative {
		low = math.Max(0, low)
		high = math.Max(0, high)
	}

	return Range{
		Min: int64(math.Round(low)),
		Max: int64(math.Round(high)),
	}
}

// BuildStatisticalForecast derives the baseline forecast from normalized
// history points. It is pure and has no external dependency.
func BuildStatisticalForecast(points []HistoryPoint) ForecastResult {
	incomeSeries := make([]float64, 0, len(points))
	expenseSeries := make([]float64, 0, len(points))
	balanceSeries := make([]float64, 0, len(points))
	for _, point := range points {
		incomeSeries = append(incomeSeries, point.Income)
		expenseSeries = append(expenseSeries, point.Expense)
		balanceSeries = append(balanceSeries, point.Balance)
	}

	predictedIncome := int64(math.Round(forecastMetric(incomeSeries, false)))
	predictedExpense := int64(math.Round(forecastMetric(expenseSeries, false)))
	predictedBalance := int64(math.Round(forecastMetric(balanceSeries, true)))

	recentBalance := balanceSeries
	if len(balanceSeries) > 6 {
		recentBalance = balanceSeries[len(balanceSeries)-6:]
	}

	var absSum float64
	for _, value := range recentBalance {
		absSum += math.Abs(value)
	}

	var volatility float64
	if len(recentBalance) > 0 && absSum > 0 {
		absMean := absSum / float64(len(recentBalance))
		volatility = stdDev(recentBalance) / absMean
	}

	sampleScore := math.Min(1, float64(len(points))/6)
	stabilityScore := math.Max(0, 1-math.Min(volatility, 1))
	confidence := int(math.Round((sampleScore*0.6 + stabilityScore*0.4) * 100))
	confidence = clampInt(confidence, 40, 95)

	last := points[len(points)-1]
	nextMonthLabel := MonthYearLabel(last.MonthIndex+1, last.Year)

	return ForecastResult{
		NextMonthLabel:   nextMonthLabel,
		PredictedIncome:  predictedIncome,
		PredictedExpense: predictedExpense,
		PredictedBalance: predictedBalance,
		IncomeRange:      forecastRange(float64(predictedIncome), incomeSeries, false),
		ExpenseRange:     forecastRange(float64(predictedExpense), expenseSeries, false),
		BalanceRange:     forecastRange(float64(predictedBalance), balanceSeries, true),
		Confidence:       confidence,
		Insight:          buildForecastInsight(nextMonthLabel, predictedIncome, predictedExpense, predictedBalance),
		ActionItems:      buildForecastActionItems(predictedIncome, predictedExpense, predictedBalance),
	}
}

func buildForecastInsight(nextMonthLabel string, income, expense, balance int64) string {
	incomeText := FormatRupiah(float64(income))
	expenseText := FormatRupiah(float64(expense))

	if balance >= 0 {
		return fmt.Sprintf(
			"Forecast %s: pemasukan %s, pengeluaran %s, dan saldo berpotensi surplus %s. Prioritas utama adalah menjaga disiplin pengeluaran agar surplus tetap konsisten.",
			nextMonthLabel, incomeText, expenseText, FormatRupiah(float64(balance)),
		)
	}

	return fmt.Sprintf(
		"Forecast %s: pemasukan %s, pengeluaran %s, dan saldo berpotensi defisit %s. Fokuskan kontrol biaya variabel dan perkuat buffer kas sejak awal bulan.",
		nextMonthLabel, incomeText, expenseText, FormatRupiah(math.Abs(float64(balance))),
	)
}

func buildForecastActionItems(income, expense, balance int64) []string {
	budgetLimit := int64(math.Max(0, math.Round(float64(expense)*0.95)))
	weeklyBudget := int64(math.Round(float64(budgetLimit) / 4))

	if balance >= 0 {
		savingTarget := int64(math.Max(0, math.Round(float64(income)*0.2)))
		return []string{
			fmt.Sprintf("Pasang batas pengeluaran bulanan maksimal %s agar saldo tetap aman.", FormatRupiah(float64(budgetLimit))),
			fmt.Sprintf("Kunci alokasi tabungan otomatis minimal %s pada awal bulan.", FormatRupiah(float64(savingTarget))),
			fmt.Sprintf("Pantau realisasi mingguan dengan batas sekitar %s per minggu.", FormatRupiah(float64(weeklyBudget))),
		}
	}

	return []string{
		fmt.Sprintf("Turunkan pengeluaran ke kisaran %s untuk mengurangi risiko defisit.", FormatRupiah(float64(budgetLimit))),
		fmt.Sprintf("Tetapkan plafon belanja mingguan maksimal %s sampai arus kas kembali positif.", FormatRupiah(math.Max(0, float64(weeklyBudget)))),
		"Tunda pengeluaran non-prioritas selama 30 hari untuk mempercepat pemulihan saldo.",
	}
}

// ConfidenceLabel maps a confidence value to the tinggi/menengah/rendah tiers.
func ConfidenceLabel(confidence int) string {
	switch {
	case confidence >= 80:
		return "tinggi"
	case confidence >= 60:
		return "menengah"
	default:
		return "rendah"
	}
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
