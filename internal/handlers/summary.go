package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/budget-tracker/backend/internal/auth"
	"example.com/budget-tracker/backend/internal/insight"
	"example.com/budget-tracker/backend/internal/repository"
)

const summaryNotFoundMessage = "Summary Bulanan Tidak ditemukan!"

type SummaryHandler struct {
	Summaries *repository.SummaryRepository
	Insights  *insight.Service
}

func NewSummaryHandler(summaries *repository.SummaryRepository, insights *insight.Service) *SummaryHandler {
	return &SummaryHandler{Summaries: summaries, Insights: insights}
}

type GenerateRequest struct {
	DataKeuangan map[string]any `json:"data_keuangan"`
}

type UpdateSummaryRequest struct {
	Month            *string `json:"month" validate:"omitempty,max=20"`
	Year             *string `json:"year" validate:"omitempty,max=8"`
	TotalIncome      *string `json:"total_income" validate:"omitempty,max=32"`
	TotalExpense     *string `json:"total_expense" validate:"omitempty,max=32"`
	Balance          *string `json:"balance" validate:"omitempty,max=32"`
	AISummary        *string `json:"ai_summary"`
	AIRecommendation *string `json:"ai_recomendation"`
}

// List returns the user's monthly summaries.
func (h *SummaryHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	summaries, err := h.Summaries.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]any{"summaries": summaries})
}

// GetByID returns one summary owned by the user.
func (h *SummaryHandler) GetByID(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	summaryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid summary id")
	}

	summary, err := h.Summaries.GetByID(c.Request().Context(), userID, summaryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, summaryNotFoundMessage)
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, summary)
}

// Generate builds and stores the current-month AI insight. An optional
// data_keuangan block from the client enriches or replaces backend data.
func (h *SummaryHandler) Generate(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	// The body is optional and its shape intentionally loose.
	var req GenerateRequest
	_ = c.Bind(&req)

	var rawPayload any
	if req.DataKeuangan != nil {
		rawPayload = req.DataKeuangan
	}

	result, err := h.Insights.Generate(c.Request().Context(), userID, rawPayload)
	if err != nil {
		if errors.Is(err, insight.ErrInsufficientData) {
			return badRequest(c, "Belum ada transaksi bulan ini untuk dibuatkan ringkasan.")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, result)
}

// Forecast predicts next month's income, expense and balance from the
// stored summary history.
func (h *SummaryHandler) Forecast(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	result, err := h.Insights.Forecast(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, insight.ErrInsufficientData) {
			return badRequest(c, "Belum ada data summary bulanan untuk membuat forecast.")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, result)
}

// Update patches an owned summary row.
func (h *SummaryHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	summaryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid summary id")
	}

	var req UpdateSummaryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}

	summary, err := h.Summaries.Update(c.Request().Context(), userID, summaryID,
		req.Month, req.Year, req.TotalIncome, req.TotalExpense, req.Balance, req.AISummary, req.AIRecommendation)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, summaryNotFoundMessage)
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, summary)
}

// Delete removes an owned summary row.
func (h *SummaryHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	summaryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid summary id")
	}

	if err := h.Summaries.Delete(c.Request().Context(), userID, summaryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, summaryNotFoundMessage)
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string]bool{"deleted": true})
}
