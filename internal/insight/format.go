package insight

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var indonesianMonthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatRupiah renders a rounded amount in id-ID currency style, e.g.
// "Rp1.250.000" or "-Rp50.000".
func FormatRupiah(value float64) string {
	rounded := int64(math.Round(value))

	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}

	digits := strconv.FormatInt(rounded, 10)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	return sign + "Rp" + strings.Join(groups, ".")
}

// FormatPercentage renders a ratio value with one decimal, or "N/A" for
// missing values.
func FormatPercentage(value *float64) string {
	if value == nil {
		return "N/A"
	}

	return fmt.Sprintf("%.1f%%", *value)
}

// MonthYearLabel renders an Indonesian month label, e.g. "Maret 2024".
// Month indexes outside 0..11 roll over into neighbouring years.
func MonthYearLabel(monthIndex, year int) string {
	for monthIndex < 0 {
		monthIndex += 12
		year--
	}
	for monthIndex > 11 {
		monthIndex -= 12
		year++
	}

	return fmt.Sprintf("%s %d", indonesianMonthNames[monthIndex], year)
}

// MonthName returns the Indonesian name for a 0-based month index.
func MonthName(monthIndex int) string {
	if monthIndex < 0 || monthIndex > 11 {
		return "-"
	}

	return indonesianMonthNames[monthIndex]
}
