package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/budget-tracker/backend/internal/models"
)

const summaryColumns = `id, user_id, month, year, total_income, total_expense, balance, ai_summary, ai_recomendation, created_at, updated_at`

type SummaryRepository struct {
	db *pgxpool.Pool
}

func NewSummaryRepository(db *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// ListByUser returns the user's monthly summaries ordered by year, then by
// creation time. Forecasting relies on this order being stable.
func (r *SummaryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.MonthlySummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+summaryColumns+`
		 FROM monthly_summaries
		 WHERE user_id = $1
		 ORDER BY year, created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.MonthlySummary, 0)
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// GetByID returns one summary scoped to its owner.
func (r *SummaryRepository) GetByID(ctx context.Context, userID, summaryID uuid.UUID) (models.MonthlySummary, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+summaryColumns+`
		 FROM monthly_summaries
		 WHERE id = $1 AND user_id = $2`,
		summaryID, userID,
	)

	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary, ErrNotFound
		}
		return summary, err
	}

	return summary, nil
}

// Upsert writes the summary keyed by (user, month, year): the latest row for
// that month is updated in place, otherwise a new row is inserted. The
// generated ID and timestamps are written back into the argument.
func (r *SummaryRepository) Upsert(ctx context.Context, summary *models.MonthlySummary) error {
	var existingID uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT id
		 FROM monthly_summaries
		 WHERE user_id = $1 AND month = $2 AND year = $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		summary.UserID, summary.Month, summary.Year,
	).Scan(&existingID)

	switch {
	case err == nil:
		return r.db.QueryRow(ctx,
			`UPDATE monthly_summaries
			 SET total_income = $2,
			     total_expense = $3,
			     balance = $4,
			     ai_summary = $5,
			     ai_recomendation = $6,
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING id, created_at, updated_at`,
			existingID, summary.TotalIncome, summary.TotalExpense, summary.Balance, summary.AISummary, summary.AIRecommendation,
		).Scan(&summary.ID, &summary.CreatedAt, &summary.UpdatedAt)
	case errors.Is(err, pgx.ErrNoRows):
		return r.db.QueryRow(ctx,
			`INSERT INTO monthly_summaries (user_id, month, year, total_income, total_expense, balance, ai_summary, ai_recomendation)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at, updated_at`,
			summary.UserID, summary.Month, summary.Year, summary.TotalIncome, summary.TotalExpense, summary.Balance, summary.AISummary, summary.AIRecommendation,
		).Scan(&summary.ID, &summary.CreatedAt, &summary.UpdatedAt)
	default:
		return err
	}
}

// Update patches an owned summary row. Nil fields keep their stored value.
func (r *SummaryRepository) Update(ctx context.Context, userID, summaryID uuid.UUID, month, year, totalIncome, totalExpense, balance, aiSummary, aiRecommendation *string) (models.MonthlySummary, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE monthly_summaries
		 SET month = COALESCE($3, month),
		     year = COALESCE($4, year),
		     total_income = COALESCE($5, total_income),
		     total_expense = COALESCE($6, total_expense),
		     balance = COALESCE($7, balance),
		     ai_summary = COALESCE($8, ai_summary),
		     ai_recomendation = COALESCE($9, ai_recomendation),
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+summaryColumns,
		summaryID, userID, month, year, totalIncome, totalExpense, balance, aiSummary, aiRecommendation,
	)

	summary, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return summary, ErrNotFound
		}
		return summary, err
	}

	return summary, nil
}

// Delete removes an owned summary row.
func (r *SummaryRepository) Delete(ctx context.Context, userID, summaryID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM monthly_summaries
		 WHERE id = $1 AND user_id = $2`,
		summaryID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanSummary(row pgx.Row) (models.MonthlySummary, error) {
	var summary models.MonthlySummary

	err := row.Scan(
		&summary.ID, &summary.UserID, &summary.Month, &summary.Year,
		&summary.TotalIncome, &summary.TotalExpense, &summary.Balance,
		&summary.AISummary, &summary.AIRecommendation,
		&summary.CreatedAt, &summary.UpdatedAt,
	)

	return summary, err
}
