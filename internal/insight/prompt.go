package insight

import (
	"fmt"
	"math"
	"strings"
)

// SystemPromptInsight and SystemPromptForecast frame the model persona for
// the two request families.
const (
	SystemPromptInsight  = "Kamu adalah penasihat keuangan pribadi yang teliti, konkret, dan fokus pada rencana aksi yang bisa dijalankan."
	SystemPromptForecast = "Kamu adalah analis forecasting keuangan pribadi yang ketat pada angka dan memberikan output JSON valid."
)

// BuildDeepInsightPrompt renders the full-detail insight prompt: every
// aggregate, raw transaction lines, the optional client payload block and
// the rule-driven findings/directives.
func BuildDeepInsightPrompt(stats MonthlyStats, payload *FinancialPayload) string {
	topCategoriesText := "Tidak ada kategori pengeluaran tercatat."
	if len(stats.TopExpenseCategories) > 0 {
		lines := make([]string, 0, len(stats.TopExpenseCategories))
		for i, item := range stats.TopExpenseCategories {
			lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, item.Category, FormatRupiah(item.Amount)))
		}
		topCategoriesText = strings.Join(lines, "\n")
	}

	weeklyLines := make([]string, 0, len(stats.WeeklyExpense))
	for i, amount := range stats.WeeklyExpense {
		weeklyLines = append(weeklyLines, fmt.Sprintf("- Minggu %d: %s", i+1, FormatRupiah(amount)))
	}

	transactionDataText := "Tidak ada transaksi."
	if len(stats.Transactions) > 0 {
		lines := make([]string, 0, len(stats.Transactions))
		for i, tx := range stats.Transactions {
			lines = append(lines, fmt.Sprintf("%d. %s | %s | %s | %s | catatan: %s",
				i+1, tx.Date, tx.Type, tx.AmountRupiah, tx.Category, tx.Note))
		}
		transactionDataText = strings.Join(lines, "\n")
	}

	findings, directives := dynamicPromptContext(stats)

	lines := []string{
		fmt.Sprintf("Data keuangan pengguna untuk %s %s.", stats.Month, stats.Year),
		fmt.Sprintf("- Total pemasukan: %s", FormatRupiah(stats.TotalIncome)),
		fmt.Sprintf("- Total pengeluaran: %s", FormatRupiah(stats.TotalExpense)),
		fmt.Sprintf("- Saldo bersih: %s", FormatRupiah(stats.Balance)),
		fmt.Sprintf("- Jumlah transaksi: %d (income: %d, expense: %d)", stats.TransactionCount, stats.IncomeCount, stats.ExpenseCount),
		fmt.Sprintf("- Hari berjalan bulan ini: %d dari %d hari", stats.CurrentDay, stats.DaysInMonth),
		fmt.Sprintf("- Hari aktif transaksi: %d hari", stats.ActiveDaysCount),
		fmt.Sprintf("- Rata-rata pemasukan per transaksi: %s", FormatRupiah(stats.AverageIncome)),
		fmt.Sprintf("- Rata-rata pengeluaran per transaksi: %s", FormatRupiah(stats.AverageExpense)),
		fmt.Sprintf("- Rasio pengeluaran terhadap pemasukan: %s", FormatPercentage(stats.ExpenseToIncomeRatio)),
		fmt.Sprintf("- Saving rate: %s", FormatPercentage(stats.SavingRate)),
		fmt.Sprintf("- Proyeksi total pengeluaran akhir bulan: %s", FormatRupiah(stats.ProjectedExpense)),
		fmt.Sprintf("- Proyeksi saldo akhir bulan: %s", FormatRupiah(stats.ProjectedBalance)),
		fmt.Sprintf("- Share kategori pengeluaran terbesar: %s", FormatPercentage(stats.TopExpenseCategoryShare)),
		fmt.Sprintf("- Arah tren pengeluaran terbaru: %s", stats.RecentExpenseTrend),
		fmt.Sprintf("- Skor kesehatan finansial internal: %d/100 (%s)", stats.HealthScore, stats.HealthStatus),
		fmt.Sprintf("- Pengeluaran paruh awal bulan: %s", FormatRupiah(stats.FirstHalfExpense)),
		fmt.Sprintf("- Pengeluaran paruh akhir bulan: %s", FormatRupiah(stats.SecondHalfExpense)),
		fmt.Sprintf("- Transaksi pemasukan terbesar: %s", extremeText(stats.MaxIncomeTx)),
		fmt.Sprintf("- Transaksi pengeluaran terbesar: %s", extremeText(stats.MaxExpenseTx)),
		"",
		"Top 3 kategori pengeluaran:",
		topCategoriesText,
		"",
		"Tren pengeluaran mingguan:",
		strings.Join(weeklyLines, "\n"),
		"",
		"Data transaksi mentah (gunakan ini untuk hitung dan validasi angka final):",
		transactionDataText,
		"",
	}

	lines = append(lines, frontendFinancialBlock(payload)...)
	lines = append(lines, "", "Temuan prioritas berbasis data (wajib kamu tanggapi):")
	lines = append(lines, enumerate(findings)...)
	lines = append(lines, "", "Arah kritik dan saran (wajib diikuti):")
	lines = append(lines, enumerate(directives)...)
	lines = append(lines,
		"",
		"Instruksi:",
		"1) Buat analisis mendalam, jelas, dan mudah dipahami untuk pengguna non-teknis.",
		"2) Wajib gunakan format Rupiah (contoh: Rp1.250.000) untuk SEMUA nominal uang.",
		"3) Dilarang menyebut mata uang lain seperti USD, dollar, euro, yen, atau symbol non-rupiah.",
		"4) Berikan saran yang sangat konkret, bisa dieksekusi, dan sertakan target angka/persentase serta rentang waktu.",
		"5) Fokus pada kualitas arus kas, efisiensi pengeluaran, prioritas perbaikan, dan proyeksi bulan depan.",
		"6) Gunakan format HTML sederhana agar mudah ditampilkan di UI.",
		"7) Tag yang diizinkan hanya: <p>, <strong>, <b>, <u>, <em>, <i>, <br>, <ul>, <ol>, <li>.",
		"8) Jangan gunakan tag/atribut lain (tidak boleh script, style, class, id, onclick, href, src).",
		"9) Hitung sendiri angka-angka utama dari data mentah, lalu tulis angka final secara eksplisit.",
		"10) Di setiap rekomendasi WAJIB ada target angka yang jelas (Rp, %, atau jumlah hari/minggu).",
		"11) Berikan kritik rasional: jelaskan masalah inti, akar penyebab, dampak 30 hari, dan tindakan korektif.",
		"12) Prioritaskan perbaikan berdampak tertinggi (prinsip 80/20), maksimal 3 fokus utama.",
		"13) Setiap item recommendations harus berformat: <strong>Aksi</strong> | target | tenggat | dampak.",
		"",
		"Balas HANYA dengan JSON valid tanpa markdown, format persis:",
		"{",
		`  "summary": "HTML string minimal 4-6 kalimat, gunakan <p> dan <strong> untuk highlight utama",`,
		`  "recommendations": ["HTML string saran 1", "HTML string saran 2", "HTML string saran 3", "HTML string saran 4"],`,
		`  "trend_analysis": "HTML string minimal 3-4 kalimat tentang arah tren, risiko utama, dan prioritas tindak lanjut",`,
		`  "key_numbers": [`,
		`    {"label":"string", "value":"string", "insight":"string"},`,
		`    {"label":"string", "value":"string", "insight":"string"},`,
		`    {"label":"string", "value":"string", "insight":"string"}`,
		"  ]",
		"}",
	)

	return strings.Join(lines, "\n")
}

// BuildCompactInsightPrompt is the retry variant: the headline aggregates
// only, for when the deep prompt times out or fails.
func BuildCompactInsightPrompt(stats MonthlyStats, payload *FinancialPayload) string {
	findings, _ := dynamicPromptContext(stats)

	lines := []string{
		fmt.Sprintf("Buat analisis keuangan bulanan untuk %s %s.", stats.Month, stats.Year),
		fmt.Sprintf("Pemasukan: %s.", FormatRupiah(stats.TotalIncome)),
		fmt.Sprintf("Pengeluaran: %s.", FormatRupiah(stats.TotalExpense)),
		fmt.Sprintf("Saldo: %s.", FormatRupiah(stats.Balance)),
		fmt.Sprintf("Rasio pengeluaran/pemasukan: %s.", FormatPercentage(stats.ExpenseToIncomeRatio)),
		fmt.Sprintf("Saving rate: %s.", FormatPercentage(stats.SavingRate)),
		fmt.Sprintf("Proyeksi saldo akhir bulan: %s.", FormatRupiah(stats.ProjectedBalance)),
		fmt.Sprintf("Kategori pengeluaran terbesar: %s dari total expense.", FormatPercentage(stats.TopExpenseCategoryShare)),
		fmt.Sprintf("Status kesehatan finansial: %s (%d/100).", stats.HealthStatus, stats.HealthScore),
		fmt.Sprintf("Total transaksi: %d.", stats.TransactionCount),
		"",
		"Fokus masalah prioritas:",
	}

	lines = append(lines, enumerate(findings)...)
	lines = append(lines, "")
	lines = append(lines, frontendFinancialBlock(payload)...)
	lines = append(lines,
		"",
		"Ketentuan jawaban:",
		"- Gunakan Bahasa Indonesia.",
		"- Semua nominal pakai Rupiah.",
		"- Gunakan HTML sederhana: <p>, <strong>, <u>, <em>, <br>, <ul>, <li>.",
		"- Rekomendasi harus spesifik, ada target angka dan waktu.",
		"- Berikan kritik rasional berdasarkan data, bukan saran umum.",
		"- Setiap rekomendasi format: Aksi | target | tenggat | dampak.",
		"",
		"Balas JSON valid tanpa markdown:",
		"{",
		`  "summary": "HTML string",`,
		`  "recommendations": ["HTML string", "HTML string", "HTML string"],`,
		`  "trend_analysis": "HTML string",`,
		`  "key_numbers": [`,
		`    {"label":"string", "value":"string", "insight":"string"},`,
		`    {"label":"string", "value":"string", "insight":"string"}`,
		"  ]",
		"}",
	)

	return strings.Join(lines, "\n")
}

// BuildForecastPrompt embeds up to the last 12 history points plus the
// statistical baseline the model may correct.
func BuildForecastPrompt(points []HistoryPoint, baseline ForecastResult) string {
	recent := points
	if len(points) > 12 {
		recent = points[len(points)-12:]
	}

	historyText := "-"
	if len(recent) > 0 {
		lines := make([]string, 0, len(recent))
		for i, point := range recent {
			lines = append(lines, fmt.Sprintf("%d. %s | income %s | expense %s | balance %s",
				i+1, MonthYearLabel(point.MonthIndex, point.Year),
				FormatRupiah(point.Income), FormatRupiah(point.Expense), FormatRupiah(point.Balance)))
		}
		historyText = strings.Join(lines, "\n")
	}

	lines := []string{
		"Berikut data histori summary bulanan user (maksimal 12 bulan terakhir):",
		historyText,
		"",
		"Baseline forecast statistik internal (boleh kamu koreksi jika ada alasan kuat):",
		fmt.Sprintf("- Prediksi income: %s", FormatRupiah(float64(baseline.PredictedIncome))),
		fmt.Sprintf("- Prediksi expense: %s", FormatRupiah(float64(baseline.PredictedExpense))),
		fmt.Sprintf("- Prediksi balance: %s", FormatRupiah(float64(baseline.PredictedBalance))),
		fmt.Sprintf("- Range income: %s - %s", FormatRupiah(float64(baseline.IncomeRange.Min)), FormatRupiah(float64(baseline.IncomeRange.Max))),
		fmt.Sprintf("- Range expense: %s - %s", FormatRupiah(float64(baseline.ExpenseRange.Min)), FormatRupiah(float64(baseline.ExpenseRange.Max))),
		fmt.Sprintf("- Range balance: %s - %s", FormatRupiah(float64(baseline.BalanceRange.Min)), FormatRupiah(float64(baseline.BalanceRange.Max))),
		"",
		"Tugas:",
		"1) Buat forecast bulan depan dalam angka (income, expense, balance) yang masuk akal.",
		"2) Semua nilai uang wajib angka murni (tanpa Rp, tanpa titik pemisah).",
		"3) Berikan confidence 0-100.",
		"4) Berikan insight singkat maksimal 2 kalimat.",
		"5) Berikan 3 action_items yang konkret.",
		"",
		"Balas HANYA JSON valid tanpa markdown:",
		"{",
		`  "predicted_income": 0,`,
		`  "predicted_expense": 0,`,
		`  "predicted_balance": 0,`,
		`  "income_range": {"min": 0, "max": 0},`,
		`  "expense_range": {"min": 0, "max": 0},`,
		`  "balance_range": {"min": 0, "max": 0},`,
		`  "confidence": 0,`,
		`  "insight": "string",`,
		`  "action_items": ["string", "string", "string"]`,
		"}",
	}

	return strings.Join(lines, "\n")
}

// dynamicPromptContext derives the findings the model must address and the
// critique directives it must follow from rule thresholds over the stats.
func dynamicPromptContext(stats MonthlyStats) (findings, directives []string) {
	if stats.Balance < 0 {
		findings = append(findings,
			fmt.Sprintf("Defisit arus kas sebesar %s.", FormatRupiah(math.Abs(stats.Balance))))
		directives = append(directives,
			"Kritik utama harus menyorot pola belanja yang membuat defisit dan langkah pemulihan paling realistis dalam 30 hari.")
	} else {
		findings = append(findings,
			fmt.Sprintf("Surplus kas saat ini %s.", FormatRupiah(stats.Balance)))
		directives = append(directives,
			"Evaluasi apakah surplus ini berkelanjutan atau hanya efek sementara dari pola pemasukan musiman.")
	}

	if stats.ExpenseToIncomeRatio != nil && *stats.ExpenseToIncomeRatio >= 90 {
		findings = append(findings,
			fmt.Sprintf("Rasio pengeluaran terhadap pemasukan sangat tinggi (%s).", FormatPercentage(stats.ExpenseToIncomeRatio)))
		directives = append(directives,
			"Wajib berikan strategi pengurangan pengeluaran variabel dengan target minimal 10%-20% dalam 4 minggu.")
	}

	if stats.TopExpenseCategoryShare != nil && *stats.TopExpenseCategoryShare >= 40 && len(stats.TopExpenseCategories) > 0 {
		topCategory := stats.TopExpenseCategories[0].Category
		findings = append(findings,
			fmt.Sprintf("Pengeluaran terkonsentrasi di kategori %s sebesar %s dari total expense.", topCategory, FormatPercentage(stats.TopExpenseCategoryShare)))
		directives = append(directives,
			fmt.Sprintf("Saran harus memprioritaskan efisiensi kategori %s karena dampaknya paling besar.", topCategory))
	}

	if stats.RecentExpenseTrend == TrendUp {
		findings = append(findings, "Tren pengeluaran mingguan terbaru menunjukkan kenaikan.")
		directives = append(directives,
			"Jelaskan pemicu kenaikan terbaru dan pasang kontrol batas mingguan untuk menahan tren naik.")
	}

	if stats.ProjectedBalance < 0 {
		findings = append(findings,
			fmt.Sprintf("Proyeksi saldo akhir bulan berisiko negatif (%s).", FormatRupiah(stats.ProjectedBalance)))
		directives = append(directives,
			"Sertakan rencana mitigasi cepat dengan prioritas mingguan agar proyeksi saldo kembali positif.")
	}

	if len(findings) == 0 {
		findings = append(findings, "Kondisi relatif stabil namun tetap perlu optimasi efisiensi.")
	}
	if len(directives) == 0 {
		directives = append(directives, "Fokus pada peningkatan kualitas tabungan dan disiplin alokasi cashflow.")
	}

	return findings, directives
}

// frontendFinancialBlock summarizes the accepted client payload for the
// prompt, or states that none is available.
func frontendFinancialBlock(payload *FinancialPayload) []string {
	if payload == nil {
		return []string{"Data data_keuangan dari FE: tidak tersedia."}
	}

	payloadStatus := payload.PayloadStatus
	if payloadStatus == "" {
		payloadStatus = "unknown"
	}

	gapLine := "- FE vs Backend Gap: N/A"
	if payload.BackendGap != nil {
		gap := payload.BackendGap
		gapLine = fmt.Sprintf("- FE vs Backend Gap -> income: %s (%.1f%%), expense: %s (%.1f%%), balance: %s",
			FormatRupiah(gap.IncomeGap), gap.IncomeGapPercent,
			FormatRupiah(gap.ExpenseGap), gap.ExpenseGapPercent,
			FormatRupiah(gap.BalanceGap))
	}

	expenseByCategory := make(map[string]float64)
	var categoryOrder []string
	for _, tx := range payload.Transactions.Items {
		if tx.Type != "expense" {
			continue
		}
		if _, seen := expenseByCategory[tx.Category]; !seen {
			categoryOrder = append(categoryOrder, tx.Category)
		}
		expenseByCategory[tx.Category] += tx.Amount
	}

	topCategories := topCategoryLines(categoryOrder, expenseByCategory)

	txSample := sampleLines(len(payload.Transactions.Items), 8, func(i int) string {
		tx := payload.Transactions.Items[i]
		return fmt.Sprintf("%s | %s | %s | %s | %s", tx.Date, tx.Type, FormatRupiah(tx.Amount), tx.Category, tx.Note)
	})

	dailySample := sampleLines(len(payload.Daily.Points), 7, func(i int) string {
		point := payload.Daily.Points[i]
		return fmt.Sprintf("%s | in %s | out %s | net %s | tx %.0f",
			point.Date, FormatRupiah(point.Income), FormatRupiah(point.Expense), FormatRupiah(point.Net), point.TransactionCount)
	})

	weeklySample := sampleLines(len(payload.Weekly.Points), 4, func(i int) string {
		point := payload.Weekly.Points[i]
		return fmt.Sprintf("%s (%s s/d %s) | in %s | out %s | net %s | tx %.0f",
			point.WeekLabel, point.StartDate, point.EndDate,
			FormatRupiah(point.Income), FormatRupiah(point.Expense), FormatRupiah(point.Net), point.TransactionCount)
	})

	monthlySample := sampleLines(len(payload.Monthly.Points), 4, func(i int) string {
		point := payload.Monthly.Points[i]
		return fmt.Sprintf("%s | in %s | out %s | net %s | tx %.0f",
			point.Month, FormatRupiah(point.Income), FormatRupiah(point.Expense), FormatRupiah(point.Net), point.TransactionCount)
	})

	return []string{
		"Data data_keuangan dari FE (prioritaskan ini untuk kesimpulan jika ada selisih dengan data backend):",
		fmt.Sprintf("- Source FE: %s", payload.Source),
		fmt.Sprintf("- Generated at FE: %s", payload.GeneratedAt),
		fmt.Sprintf("- FE Period -> reference month: %s, range: %s s/d %s",
			textOrDash(payload.Period.ReferenceMonth), textOrDash(payload.Period.StartDate), textOrDash(payload.Period.EndDate)),
		fmt.Sprintf("- FE Payload Status: %s", payloadStatus),
		fmt.Sprintf("- FE Summary -> income: %s, expense: %s, balance: %s, saving: %s, expense ratio: %.1f%%",
			FormatRupiah(payload.Summary.Income), FormatRupiah(payload.Summary.Expense),
			FormatRupiah(payload.Summary.Balance), FormatRupiah(payload.Summary.Saving),
			payload.Summary.ExpenseRatioPercent),
		gapLine,
		fmt.Sprintf("- FE Chart -> total income: %s, total expense: %s, net flow: %s, peak income: %s, peak expense: %s",
			FormatRupiah(payload.Chart.TotalIncome), FormatRupiah(payload.Chart.TotalExpense),
			FormatRupiah(payload.Chart.NetFlow), FormatRupiah(payload.Chart.PeakIncome), FormatRupiah(payload.Chart.PeakExpense)),
		fmt.Sprintf("- FE Transactions -> total: %.0f, income count: %.0f, expense count: %.0f, avg amount: %s",
			payload.Transactions.TotalCount, payload.Transactions.IncomeCount,
			payload.Transactions.ExpenseCount, FormatRupiah(payload.Transactions.AverageAmount)),
		fmt.Sprintf("- FE Insights -> recommended saving: %s, saving gap: %s, status: %s",
			FormatRupiah(payload.Insights.RecommendedSaving), FormatRupiah(payload.Insights.SavingGap), payload.Insights.SavingStatus),
		seriesLine("Daily", payload.Daily),
		seriesLine("Weekly", payload.Weekly),
		seriesLine("Monthly", payload.Monthly),
		fmt.Sprintf("- Puncak pengeluaran mingguan FE: %s", peakWeekly(payload.Weekly.Points)),
		fmt.Sprintf("- Puncak pengeluaran bulanan FE: %s", peakMonthly(payload.Monthly.Points)),
		"Top kategori pengeluaran versi FE:",
		topCategories,
		"",
		"Sampel transaksi FE terbaru:",
		txSample,
		"",
		"Ringkasan harian FE (7 data terbaru):",
		dailySample,
		"",
		"Ringkasan mingguan FE:",
		weeklySample,
		"",
		"Ringkasan bulanan FE:",
		monthlySample,
	}
}

func seriesLine(name string, series PayloadSeries) string {
	points := series.TotalPoints
	if points == 0 {
		points = float64(len(series.Points))
	}

	return fmt.Sprintf("- FE %s -> points: %.0f, total income: %s, total expense: %s, net flow: %s",
		name, points, FormatRupiah(series.TotalIncome), FormatRupiah(series.TotalExpense), FormatRupiah(series.NetFlow))
}

func peakWeekly(points []PayloadSeriesPoint) string {
	peak := peakByExpense(points)
	if peak == nil {
		return "-"
	}

	return fmt.Sprintf("%s (%s)", peak.WeekLabel, FormatRupiah(peak.Expense))
}

func peakMonthly(points []PayloadSeriesPoint) string {
	peak := peakByExpense(points)
	if peak == nil {
		return "-"
	}

	return fmt.Sprintf("%s (%s)", peak.Month, FormatRupiah(peak.Expense))
}

func peakByExpense(points []PayloadSeriesPoint) *PayloadSeriesPoint {
	if len(points) == 0 {
		return nil
	}

	peak := points[0]
	for _, point := range points[1:] {
		if point.Expense > peak.Expense {
			peak = point
		}
	}

	return &peak
}

func topCategoryLines(order []string, amounts map[string]float64) string {
	if len(order) == 0 {
		return "Tidak ada."
	}

	ranked := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, CategoryAmount{Category: name, Amount: amounts[name]})
	}
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].Amount > ranked[i].Amount {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	lines := make([]string, 0, len(ranked))
	for i, item := range ranked {
		lines = append(lines, fmt.Sprintf("%d. %s: %s", i+1, item.Category, FormatRupiah(item.Amount)))
	}

	return strings.Join(lines, "\n")
}

// sampleLines renders the numbered tail of a list.
func sampleLines(total, limit int, render func(i int) string) string {
	if total == 0 {
		return "Tidak ada."
	}

	start := 0
	if total > limit {
		start = total - limit
	}

	lines := make([]string, 0, total-start)
	for i := start; i < total; i++ {
		lines = append(lines, fmt.Sprintf("%d. %s", len(lines)+1, render(i)))
	}

	return strings.Join(lines, "\n")
}

func enumerate(items []string) []string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}

	return lines
}

func extremeText(tx *ExtremeTransaction) string {
	if tx == nil {
		return "-"
	}

	return fmt.Sprintf("%s (%s, %s)", FormatRupiah(tx.Amount), tx.Category, tx.Date)
}

func textOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}

	return value
}
