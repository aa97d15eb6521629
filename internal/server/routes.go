package server

import (
	"github.com/labstack/echo/v4"

	"example.com/budget-tracker/backend/internal/handlers"
)

func registerRoutes(
	e *echo.Echo,
	summaryHandler *handlers.SummaryHandler,
	notificationHandler *handlers.NotificationHandler,
	authMiddleware echo.MiddlewareFunc,
	aiRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", handlers.Health)

	api := e.Group("/api/v1")

	summaries := api.Group("/monthly-summary", authMiddleware)
	summaries.GET("", summaryHandler.List)
	summaries.GET("/forecast", summaryHandler.Forecast, aiRateLimiter)
	summaries.POST("/generate", summaryHandler.Generate, aiRateLimiter)
	summaries.GET("/events", notificationHandler.Stream)
	summaries.GET("/:id", summaryHandler.GetByID)
	summaries.PUT("/:id", summaryHandler.Update)
	summaries.DELETE("/:id", summaryHandler.Delete)
}
