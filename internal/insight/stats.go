package insight

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"example.com/budget-tracker/backend/internal/models"
)

const (
	TrendUp     = "naik"
	TrendDown   = "turun"
	TrendStable = "stabil"

	HealthHealthy  = "sehat"
	HealthCaution  = "waspada"
	HealthCritical = "kritis"
)

const maxDigestTransactions = 60

type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type ExtremeTransaction struct {
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
}

// TransactionDigest is the per-transaction line retained for prompt
// construction, with notes truncated to 60 characters.
type TransactionDigest struct {
	Date         string  `json:"date"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount_number"`
	AmountRupiah string  `json:"amount_rupiah"`
	Category     string  `json:"category"`
	Note         string  `json:"note"`
}

// MonthlyStats is the immutable snapshot of one calendar month's
// transactions.
type MonthlyStats struct {
	Month string
	Year  string

	TotalIncome  float64
	TotalExpense float64
	Balance      float64

	TransactionCount int
	IncomeCount      int
	ExpenseCount     int
	ActiveDaysCount  int

	WeeklyExpense     [5]float64
	FirstHalfExpense  float64
	SecondHalfExpense float64

	ExpenseToIncomeRatio *float64
	SavingRate           *float64

	AverageIncome  float64
	AverageExpense float64

	MaxIncomeTx  *ExtremeTransaction
	MaxExpenseTx *ExtremeTransaction

	TopExpenseCategories    []CategoryAmount
	TopExpenseCategoryShare *float64

	DaysInMonth int
	CurrentDay  int
	ElapsedDays int

	ProjectedExpense float64
	ProjectedBalance float64

	RecentExpenseTrend string

	HealthScore  int
	HealthStatus string

	Transactions []TransactionDigest
}

// AggregateMonth computes the full monthly snapshot in a single pass over
// the month's transactions. A month with zero transactions is valid output.
func AggregateMonth(transactions []models.Transaction, now time.Time) MonthlyStats {
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()

	stats := MonthlyStats{
		Month:              MonthName(int(now.Month()) - 1),
		Year:               strconv.Itoa(now.Year()),
		TransactionCount:   len(transactions),
		DaysInMonth:        daysInMonth,
		CurrentDay:         now.Day(),
		RecentExpenseTrend: TrendStable,
	}

	activeDays := make(map[string]struct{})
	expenseByCategory := make(map[string]float64)
	var categoryOrder []string
	digest := make([]TransactionDigest, 0, len(transactions))

	for _, tx := range transactions {
		amount := tx.Amount.InexactFloat64()

		dateLabel := "-"
		dayOfMonth := 0
		if !tx.Date.IsZero() {
			dateLabel = tx.Date.Format("2006-01-02")
			dayOfMonth = tx.Date.Day()
			activeDays[dateLabel] = struct{}{}
		}

		digest = append(digest, TransactionDigest{
			Date:         dateLabel,
			Type:         string(tx.Type),
			Amount:       amount,
			AmountRupiah: FormatRupiah(amount),
			Category:     digestCategory(tx),
			Note:         digestNote(tx.Note),
		})

		switch tx.Type {
		case models.TransactionTypeIncome:
			stats.TotalIncome += amount
			stats.IncomeCount++

			if stats.MaxIncomeTx == nil || amount > stats.MaxIncomeTx.Amount {
				stats.MaxIncomeTx = &ExtremeTransaction{
					Amount:   amount,
					Date:     dateLabel,
					Category: categoryOrDefault(tx.CategoryName, "Tanpa kategori"),
				}
			}

		case models.TransactionTypeExpense:
			stats.TotalExpense += amount
			stats.ExpenseCount++

			categoryName := categoryOrDefault(tx.CategoryName, "Lainnya")
			if _, seen := expenseByCategory[categoryName]; !seen {
				categoryOrder = append(categoryOrder, categoryName)
			}
			expenseByCategory[categoryName] += amount

			if dayOfMonth > 0 {
				weekIndex := (dayOfMonth - 1) / 7
				if weekIndex > 4 {
					weekIndex = 4
				}
				stats.WeeklyExpense[weekIndex] += amount

				if dayOfMonth <= 15 {
					stats.FirstHalfExpense += amount
				} else {
					stats.SecondHalfExpense += amount
				}
			}

			if stats.MaxExpenseTx == nil || amount > stats.MaxExpenseTx.Amount {
				stats.MaxExpenseTx = &ExtremeTransaction{
					Amount:   amount,
					Date:     dateLabel,
					Category: categoryName,
				}
			}
		}
	}

	stats.Balance = stats.TotalIncome - stats.TotalExpense
	stats.ActiveDaysCount = len(activeDays)

	if stats.TotalIncome > 0 {
		ratio := stats.TotalExpense / stats.TotalIncome * 100
		stats.ExpenseToIncomeRatio = &ratio

		savingRate := stats.Balance / stats.TotalIncome * 100
		stats.SavingRate = &savingRate
	}

	if stats.IncomeCount > 0 {
		stats.AverageIncome = stats.TotalIncome / float64(stats.IncomeCount)
	}
	if stats.ExpenseCount > 0 {
		stats.AverageExpense = stats.TotalExpense / float64(stats.ExpenseCount)
	}

	ranked := make([]CategoryAmount, 0, len(categoryOrder))
	for _, name := range categoryOrder {
		ranked = append(ranked, CategoryAmount{Category: name, Amount: expenseByCategory[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Amount > ranked[j].Amount
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	stats.TopExpenseCategories = ranked

	if stats.TotalExpense > 0 && len(ranked) > 0 {
		share := ranked[0].Amount / stats.TotalExpense * 100
		stats.TopExpenseCategoryShare = &share
	}

	elapsedDays := now.Day()
	if elapsedDays > daysInMonth {
		elapsedDays = daysInMonth
	}
	if elapsedDays < 1 {
		elapsedDays = 1
	}
	stats.ElapsedDays = elapsedDays
	stats.ProjectedExpense = stats.TotalExpense / float64(elapsedDays) * float64(daysInMonth)
	stats.ProjectedBalance = stats.TotalIncome - stats.ProjectedExpense

	stats.RecentExpenseTrend = weeklyTrend(stats.WeeklyExpense)

	stats.HealthScore = healthScore(stats.Balance, stats.ExpenseToIncomeRatio, stats.SavingRate, stats.ProjectedBalance)
	switch {
	case stats.HealthScore >= 75:
		stats.HealthStatus = HealthHealthy
	case stats.HealthScore >= 50:
		stats.HealthStatus = HealthCaution
	default:
		stats.HealthStatus = HealthCritical
	}

	if len(digest) > maxDigestTransactions {
		digest = digest[len(digest)-maxDigestTransactions:]
	}
	stats.Transactions = digest

	return stats
}

// weeklyTrend compares the last two weekly buckets with activity: more than
// 10% up means naik, more than 10% down means turun.
func weeklyTrend(weekly [5]float64) string {
	active := make([]float64, 0, 5)
	for _, amount := range weekly {
		if amount > 0 {
			active = append(active, amount)
		}
	}

	if len(active) < 2 {
		return TrendStable
	}

	previous := active[len(active)-2]
	latest := active[len(active)-1]
	if latest > previous*1.1 {
		return TrendUp
	}
	if latest < previous*0.9 {
		return TrendDown
	}

	return TrendStable
}

func healthScore(balance float64, ratio, savingRate *float64, projectedBalance float64) int {
	score := 70.0

	if balance < 0 {
		score -= 25
	}
	if projectedBalance < 0 {
		score -= 20
	}

	if ratio != nil {
		switch {
		case *ratio > 100:
			score -= 25
		case *ratio > 90:
			score -= 18
		case *ratio > 80:
			score -= 12
		case *ratio < 60:
			score += 8
		}
	}

	if savingRate != nil {
		switch {
		case *savingRate >= 20:
			score += 12
		case *savingRate >= 10:
			score += 6
		case *savingRate < 0:
			score -= 10
		}
	}

	return clampInt(int(math.Round(score)), 0, 100)
}

func categoryOrDefault(name *string, fallback string) string {
	if name == nil || strings.TrimSpace(*name) == "" {
		return fallback
	}

	return strings.TrimSpace(*name)
}

func digestCategory(tx models.Transaction) string {
	if tx.Type == models.TransactionTypeIncome {
		return categoryOrDefault(tx.CategoryName, "Pemasukan Lainnya")
	}

	return categoryOrDefault(tx.CategoryName, "Pengeluaran Lainnya")
}

func digestNote(note *string) string {
	if note == nil {
		return "-"
	}

	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return "-"
	}

	runes := []rune(trimmed)
	if len(runes) > 60 {
		return string(runes[:60])
	}

	return trimmed
}
