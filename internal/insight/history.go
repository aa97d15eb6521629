package insight

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"example.com/budget-tracker/backend/internal/models"
)

// HistoryPoint is one month's aggregated totals derived from a stored
// monthly summary row.
type HistoryPoint struct {
	Year           int
	MonthIndex     int
	Income         float64
	Expense        float64
	Balance        float64
	SortKey        int
	CreatedAtEpoch int64
}

var monthIndexByName = map[string]int{
	"januari": 0, "jan": 0, "january": 0,
	"februari": 1, "feb": 1, "february": 1,
	"maret": 2, "mar": 2, "march": 2,
	"april": 3, "apr": 3,
	"mei": 4, "may": 4,
	"juni": 5, "jun": 5, "june": 5,
	"juli": 6, "jul": 6, "july": 6,
	"agustus": 7, "agu": 7, "august": 7,
	"september": 8, "sep": 8,
	"oktober": 9, "okt": 9, "october": 9,
	"november": 10, "nov": 10,
	"desember": 11, "des": 11, "december": 11,
}

// MonthIndexFromLabel resolves an Indonesian or English month name or
// abbreviation to a 0-based index, or -1 when unresolvable.
func MonthIndexFromLabel(label string) int {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return -1
	}

	index, ok := monthIndexByName[key]
	if !ok {
		return -1
	}

	return index
}

// NormalizeHistory turns stored summary rows into chronologically sorted,
// deduplicated history points. Rows with unresolvable month names or years
// are dropped; duplicates per (year, month) keep the latest created row.
func NormalizeHistory(rows []models.MonthlySummary) []HistoryPoint {
	deduped := make(map[string]HistoryPoint)

	for _, row := range rows {
		monthIndex := MonthIndexFromLabel(row.Month)
		year, err := strconv.Atoi(strings.TrimSpace(row.Year))
		if monthIndex < 0 || err != nil {
			continue
		}

		createdAt := row.CreatedAt
		if createdAt.IsZero() {
			createdAt = row.UpdatedAt
		}

		point := HistoryPoint{
			Year:           year,
			MonthIndex:     monthIndex,
			Income:         parseAmount(row.TotalIncome),
			Expense:        parseAmount(row.TotalExpense),
			Balance:        parseAmount(row.Balance),
			SortKey:        year*12 + monthIndex,
			CreatedAtEpoch: createdAt.UnixMilli(),
		}

		key := fmt.Sprintf("%d-%02d", year, monthIndex+1)
		existing, exists := deduped[key]
		if !exists || point.CreatedAtEpoch >= existing.CreatedAtEpoch {
			deduped[key] = point
		}
	}

	points := make([]HistoryPoint, 0, len(deduped))
	for _, point := range deduped {
		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].SortKey < points[j].SortKey
	})

	return points
}

// parseAmount coerces a stored numeric string to a float, treating malformed
// values as zero.
func parseAmount(value string) float64 {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0
	}

	return parsed.InexactFloat64()
}
