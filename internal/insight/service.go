package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/budget-tracker/backend/internal/ai"
	"example.com/budget-tracker/backend/internal/models"
)

// ErrInsufficientData is returned when neither backend transactions nor a
// usable client payload exist for the requested computation.
var ErrInsufficientData = errors.New("insufficient data")

// SummaryStore is the persistence surface the service needs for monthly
// summary rows.
type SummaryStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MonthlySummary, error)
	Upsert(ctx context.Context, summary *models.MonthlySummary) error
}

// TransactionStore reads the user's transactions for one month window.
type TransactionStore interface {
	ListMonth(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Transaction, error)
}

// Notifier publishes per-user events. The notifications hub implements it;
// a nil Notifier disables events.
type Notifier interface {
	Publish(userID uuid.UUID, event string, payload any)
}

const (
	EventSummaryGenerated = "summary.generated"
	EventForecastReady    = "forecast.ready"
)

const (
	SourceBackend         = "backend"
	SourceFrontend        = "frontend"
	SourceFrontendBackend = "frontend+backend"

	ForecastSourceStatistical = "statistical"
	ForecastSourceAI          = "ai+statistical"
)

// Config carries the LLM knobs. An empty APIKey disables every model call
// and the service runs fully deterministic.
type Config struct {
	APIKey          string
	Model           string
	DeepTimeout     time.Duration
	CompactTimeout  time.Duration
	ForecastTimeout time.Duration
}

// Service orchestrates monthly insight generation and forecasting on top of
// the stores and the LLM client.
type Service struct {
	summaries    SummaryStore
	transactions TransactionStore
	llm          ai.Client
	notifier     Notifier
	cfg          Config
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(summaries SummaryStore, transactions TransactionStore, llm ai.Client, notifier Notifier, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		summaries:    summaries,
		transactions: transactions,
		llm:          llm,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// GenerateResult is the POST /generate response body.
type GenerateResult struct {
	Summary               string            `json:"summary"`
	Recommendations       []string          `json:"recommendations"`
	TrendAnalysis         string            `json:"trend_analysis"`
	KeyNumbers            []KeyNumber       `json:"key_numbers"`
	SumberData            string            `json:"sumber_data"`
	FrontendPayloadStatus string            `json:"frontend_payload_status"`
	FrontendBackendGap    *BackendGap       `json:"frontend_backend_gap"`
	DataKeuanganDipakai   *FinancialPayload `json:"data_keuangan_dipakai"`
}

// Generate builds the current-month insight: aggregate backend transactions,
// evaluate the optional client payload, run the tiered LLM attempts and fall
// back to the deterministic template, then persist the enriched summary.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, rawPayload any) (*GenerateResult, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 1, 0)

	transactions, err := s.transactions.ListMonth(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list month transactions: %w", err)
	}

	stats := AggregateMonth(transactions, now)

	evaluation := EvaluateFinancialPayload(stats, NormalizeFinancialPayload(rawPayload), now)
	payload := evaluation.Usable
	if payload != nil {
		payload.PayloadStatus = evaluation.Status
		payload.BackendGap = evaluation.Gap
	}

	if stats.TransactionCount == 0 && payload == nil {
		return nil, fmt.Errorf("generate summary: %w", ErrInsufficientData)
	}

	result := s.requestInsight(ctx, stats, payload)
	if result == nil {
		result = buildFallbackInsight(stats)
		result.KeyNumbers = buildFallbackKeyNumbers(stats)
	}

	enrichedSummary := AppendKeyNumbersToSummary(result.Summary, result.KeyNumbers)

	recommendationParts := make([]string, 0, len(result.Recommendations)+1)
	for _, item := range append(append([]string{}, result.Recommendations...), result.TrendAnalysis) {
		if strings.TrimSpace(item) != "" {
			recommendationParts = append(recommendationParts, item)
		}
	}

	// When the backend saw nothing this month but the client shipped real
	// summary numbers, the stored totals come from the client.
	useFrontendAsPrimary := stats.TransactionCount == 0 && evaluation.HasSummaryNumbers

	incomeToSave := stats.TotalIncome
	expenseToSave := stats.TotalExpense
	balanceToSave := stats.Balance
	if useFrontendAsPrimary {
		incomeToSave = payload.Summary.Income
		expenseToSave = payload.Summary.Expense
		balanceToSave = payload.Summary.Balance
	}

	row := &models.MonthlySummary{
		UserID:           userID,
		Month:            stats.Month,
		Year:             stats.Year,
		TotalIncome:      formatTotal(incomeToSave),
		TotalExpense:     formatTotal(expenseToSave),
		Balance:          formatTotal(balanceToSave),
		AISummary:        enrichedSummary,
		AIRecommendation: strings.Join(recommendationParts, "\n"),
	}
	if err := s.summaries.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("save monthly summary: %w", err)
	}

	sumberData := SourceBackend
	switch {
	case useFrontendAsPrimary:
		sumberData = SourceFrontend
	case payload != nil:
		sumberData = SourceFrontendBackend
	}

	response := &GenerateResult{
		Summary:               enrichedSummary,
		Recommendations:       result.Recommendations,
		TrendAnalysis:         result.TrendAnalysis,
		KeyNumbers:            result.KeyNumbers,
		SumberData:            sumberData,
		FrontendPayloadStatus: evaluation.Status,
		FrontendBackendGap:    evaluation.Gap,
		DataKeuanganDipakai:   payload,
	}

	s.publish(userID, EventSummaryGenerated, map[string]any{
		"month":       stats.Month,
		"year":        stats.Year,
		"sumber_data": sumberData,
	})

	return response, nil
}

// requestInsight runs the ordered attempt list: deep prompt first, compact
// prompt on failure. Nil means every attempt degraded and the caller falls
// back to the template.
func (s *Service) requestInsight(ctx context.Context, stats MonthlyStats, payload *FinancialPayload) *InsightResult {
	if s.cfg.APIKey == "" || s.llm == nil {
		return nil
	}

	attempts := []struct {
		name    string
		prompt  string
		timeout time.Duration
	}{
		{"deep", BuildDeepInsightPrompt(stats, payload), s.cfg.DeepTimeout},
		{"compact", BuildCompactInsightPrompt(stats, payload), s.cfg.CompactTimeout},
	}

	for _, attempt := range attempts {
		result := s.callInsightOnce(ctx, attempt.prompt, attempt.timeout)
		if result != nil {
			s.logger.Info("insight generated by model", "attempt", attempt.name, "model", s.cfg.Model)
			return result
		}

		s.logger.Warn("insight attempt degraded", "attempt", attempt.name, "model", s.cfg.Model)
	}

	return nil
}

func (s *Service) callInsightOnce(ctx context.Context, prompt string, timeout time.Duration) *InsightResult {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := []ai.Message{
		{Role: "system", Content: SystemPromptInsight},
		{Role: "user", Content: prompt},
	}

	content, _, err := s.llm.Chat(attemptCtx, messages, ai.ChatOptions{Temperature: 0.15, MaxTokens: 1400})
	if err != nil {
		s.logger.Warn("openrouter insight request failed", "error", err)
		return nil
	}

	return NormalizeInsightResponse(ParseLLMContent(content))
}

// ForecastHistoryPoint is one history row echoed back in the forecast
// response, with a formatted month label.
type ForecastHistoryPoint struct {
	Month        string  `json:"month"`
	Year         int     `json:"year"`
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	Balance      float64 `json:"balance"`
}

// ForecastResponse is the GET /forecast response body.
type ForecastResponse struct {
	ForecastResult

	ConfidenceLabel string                 `json:"confidence_label"`
	SampleSize      int                    `json:"sample_size"`
	Source          string                 `json:"source"`
	Model           *string                `json:"model"`
	HistoryPoints   []ForecastHistoryPoint `json:"history_points"`
}

// Forecast predicts next month from the stored summary history. The
// statistical baseline always runs; a single AI overlay refines it when an
// API key is configured.
func (s *Service) Forecast(ctx context.Context, userID uuid.UUID) (*ForecastResponse, error) {
	rows, err := s.summaries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list summary history: %w", err)
	}

	points := NormalizeHistory(rows)
	if len(points) == 0 {
		return nil, fmt.Errorf("build forecast: %w", ErrInsufficientData)
	}

	baseline := BuildStatisticalForecast(points)

	final := baseline
	source := ForecastSourceStatistical
	var model *string
	if overlay := s.requestForecast(ctx, points, baseline); overlay != nil {
		final = *overlay
		source = ForecastSourceAI
		model = &s.cfg.Model
	}

	recent := points
	if len(recent) > 12 {
		recent = recent[len(recent)-12:]
	}
	history := make([]ForecastHistoryPoint, 0, len(recent))
	for _, point := range recent {
		history = append(history, ForecastHistoryPoint{
			Month:        MonthYearLabel(point.MonthIndex, point.Year),
			Year:         point.Year,
			TotalIncome:  point.Income,
			TotalExpense: point.Expense,
			Balance:      point.Balance,
		})
	}

	response := &ForecastResponse{
		ForecastResult:  final,
		ConfidenceLabel: ConfidenceLabel(final.Confidence),
		SampleSize:      len(points),
		Source:          source,
		Model:           model,
		HistoryPoints:   history,
	}

	s.publish(userID, EventForecastReady, map[string]any{
		"next_month_label": final.NextMonthLabel,
		"source":           source,
		"confidence":       final.Confidence,
	})

	return response, nil
}

func (s *Service) requestForecast(ctx context.Context, points []HistoryPoint, baseline ForecastResult) *ForecastResult {
	if s.cfg.APIKey == "" || s.llm == nil {
		return nil
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ForecastTimeout)
	defer cancel()

	messages := []ai.Message{
		{Role: "system", Content: SystemPromptForecast},
		{Role: "user", Content: BuildForecastPrompt(points, baseline)},
	}

	content, _, err := s.llm.Chat(attemptCtx, messages, ai.ChatOptions{Temperature: 0.2, MaxTokens: 900})
	if err != nil {
		s.logger.Warn("openrouter forecast request failed", "error", err)
		return nil
	}

	return NormalizeForecastResponse(ParseLLMContent(content), baseline)
}

func (s *Service) publish(userID uuid.UUID, event string, payload any) {
	if s.notifier == nil {
		return
	}

	s.notifier.Publish(userID, event, payload)
}

// buildFallbackInsight is the deterministic insight used when every model
// attempt degraded. Same allow-listed HTML shape as a model answer.
func buildFallbackInsight(stats MonthlyStats) *InsightResult {
	incomeText := FormatRupiah(stats.TotalIncome)
	expenseText := FormatRupiah(stats.TotalExpense)
	balanceText := FormatRupiah(stats.Balance)
	deficitText := FormatRupiah(math.Abs(stats.Balance))
	firstHalfText := FormatRupiah(stats.FirstHalfExpense)
	secondHalfText := FormatRupiah(stats.SecondHalfExpense)
	ratioText := FormatPercentage(stats.ExpenseToIncomeRatio)
	savingRateText := FormatPercentage(stats.SavingRate)

	var recommendations []string
	if stats.TotalIncome > 0 && stats.TotalExpense > stats.TotalIncome*0.8 {
		recommendations = append(recommendations, fmt.Sprintf(
			"<strong>Kurangi pengeluaran variabel</strong> minimal <u>15%%</u> selama <u>30 hari</u> agar rasio pengeluaran turun dari <strong>%s</strong>.",
			ratioText))
	} else {
		recommendations = append(recommendations, fmt.Sprintf(
			"<strong>Pertahankan tabungan otomatis</strong> minimal <u>20%%</u> dari pemasukan bulanan untuk menjaga saving rate di atas <strong>%s</strong>.",
			savingRateText))
	}

	recommendations = append(recommendations,
		"<strong>Terapkan batas belanja mingguan</strong> dan lakukan evaluasi realisasi setiap akhir pekan agar risiko <em>overbudget</em> menurun.")

	if len(stats.TopExpenseCategories) > 0 {
		top := stats.TopExpenseCategories[0]
		recommendations = append(recommendations, fmt.Sprintf(
			"<strong>Prioritaskan efisiensi kategori %s</strong> karena porsinya paling besar (%s). Targetkan penghematan bertahap <u>10%%-15%%</u> di kategori ini.",
			top.Category, FormatRupiah(top.Amount)))
	}

	if stats.Balance >= 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"<strong>Alokasikan minimal 40%%</strong> dari surplus (%s) ke dana darurat atau instrumen berisiko rendah.", balanceText))
	} else {
		recommendations = append(recommendations, fmt.Sprintf(
			"<strong>Lakukan recovery arus kas</strong> dengan target menutup defisit %s dalam <u>1 bulan</u> berikutnya.", deficitText))
	}

	var summary, trendAnalysis string
	if stats.Balance >= 0 {
		summary = fmt.Sprintf(
			"<p>Pada <strong>%s</strong>, kondisi keuangan kamu <strong>positif</strong>.</p><p>Total pemasukan <strong>%s</strong>, total pengeluaran <strong>%s</strong>, sehingga saldo akhir <strong>%s</strong>.</p><p>Rasio pengeluaran terhadap pemasukan berada di <strong>%s</strong> dengan saving rate <strong>%s</strong>.</p>",
			stats.Month, incomeText, expenseText, balanceText, ratioText, savingRateText)
		trendAnalysis = fmt.Sprintf(
			"<p>Pengeluaran paruh awal tercatat <strong>%s</strong> dan paruh akhir <strong>%s</strong>.</p><p>Tren masih sehat, namun disiplin eksekusi anggaran tetap diperlukan agar surplus konsisten di bulan berikutnya.</p>",
			firstHalfText, secondHalfText)
	} else {
		summary = fmt.Sprintf(
			"<p>Pada <strong>%s</strong>, kondisi keuangan kamu sedang <strong>tertekan</strong>.</p><p>Total pemasukan <strong>%s</strong>, total pengeluaran <strong>%s</strong>, dan terjadi defisit <strong>%s</strong>.</p><p>Rasio pengeluaran mencapai <strong>%s</strong>, menandakan kebutuhan kontrol biaya yang lebih ketat.</p>",
			stats.Month, incomeText, expenseText, deficitText, ratioText)
		trendAnalysis = fmt.Sprintf(
			"<p>Pengeluaran paruh awal tercatat <strong>%s</strong> dan paruh akhir <strong>%s</strong>.</p><p>Tren menunjukkan tekanan arus kas, sehingga prioritas utama adalah memangkas pengeluaran variabel dan meningkatkan porsi tabungan.</p>",
			firstHalfText, secondHalfText)
	}

	return &InsightResult{
		Summary:         summary,
		Recommendations: recommendations,
		TrendAnalysis:   trendAnalysis,
	}
}

func buildFallbackKeyNumbers(stats MonthlyStats) []KeyNumber {
	balanceInsight := "saving rate " + FormatPercentage(stats.SavingRate)
	if stats.Balance < 0 {
		balanceInsight = "arus kas negatif, perlu koreksi pengeluaran"
	}

	return []KeyNumber{
		{
			Label:   "Total Pemasukan",
			Value:   FormatRupiah(stats.TotalIncome),
			Insight: "menjadi basis kapasitas belanja dan tabungan",
		},
		{
			Label:   "Total Pengeluaran",
			Value:   FormatRupiah(stats.TotalExpense),
			Insight: "rasio terhadap pemasukan saat ini " + FormatPercentage(stats.ExpenseToIncomeRatio),
		},
		{
			Label:   "Saldo Bersih",
			Value:   FormatRupiah(stats.Balance),
			Insight: balanceInsight,
		},
	}
}

// AppendKeyNumbersToSummary re-sanitizes the summary and appends the key
// numbers as an HTML list. Entries missing a label or value are skipped.
func AppendKeyNumbersToSummary(summaryHTML string, keyNumbers []KeyNumber) string {
	safeSummary := SanitizeHTML(summaryHTML)
	if len(keyNumbers) == 0 {
		return safeSummary
	}

	var items strings.Builder
	for _, item := range keyNumbers {
		label := SanitizeHTML(item.Label)
		value := SanitizeHTML(item.Value)
		insight := SanitizeHTML(item.Insight)

		if label == "" || value == "" {
			continue
		}

		items.WriteString("<li><strong>" + label + ":</strong> " + value)
		if insight != "" {
			items.WriteString(" <em>(" + insight + ")</em>")
		}
		items.WriteString("</li>")
	}

	if items.Len() == 0 {
		return safeSummary
	}

	return safeSummary + "<p><strong>Angka Kunci Dari AI</strong></p><ul>" + items.String() + "</ul>"
}

// formatTotal stores whole-rupiah totals as strings, matching the numeric
// text columns.
func formatTotal(value float64) string {
	return strconv.FormatInt(int64(math.Round(value)), 10)
}
