package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stock-researcher/models"
	"stock-researcher/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateRun inserts the audit record for a finished research run.
func (r *Repository) CreateRun(ctx context.Context, run *models.ResearchRun) error {
	metrics := observability.GetMetrics()
	start := time.Now()

	errorsJSON, _ := json.Marshal(run.Errors)

	_, err := r.db.Exec(ctx, `
		INSERT INTO research_runs (id, query, ticker, company_name, recommendation, sentiment_score, report, errors, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.Query, run.Ticker, run.CompanyName, run.Recommendation, run.SentimentScore, run.Report, errorsJSON, run.DurationMs, run.CreatedAt)

	metrics.RecordDBQuery("insert", "research_runs", time.Since(start))
	if err != nil {
		metrics.RecordDBError("insert", "research_runs")
		return fmt.Errorf("failed to create research run: %w", err)
	}

	return nil
}

// GetRun returns a single research run by ID, or nil when not found.
func (r *Repository) GetRun(ctx context.Context, id uuid.UUID) (*models.ResearchRun, error) {
	metrics := observability.GetMetrics()
	start := time.Now()

	var run models.ResearchRun
	var errorsJSON []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, query, ticker, company_name, recommendation, sentiment_score, report, errors, duration_ms, created_at
		FROM research_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.Query, &run.Ticker, &run.CompanyName, &run.Recommendation, &run.SentimentScore, &run.Report, &errorsJSON, &run.DurationMs, &run.CreatedAt)

	metrics.RecordDBQuery("select", "research_runs", time.Since(start))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.RecordDBError("select", "research_runs")
		return nil, fmt.Errorf("failed to query research run: %w", err)
	}

	if errorsJSON != nil {
		json.Unmarshal(errorsJSON, &run.Errors)
	}

	return &run, nil
}

// GetRuns returns the most recent research runs, newest first.
func (r *Repository) GetRuns(ctx context.Context, limit int) ([]models.ResearchRun, error) {
	if limit <= 0 {
		limit = 50
	}

	metrics := observability.GetMetrics()
	start := time.Now()

	rows, err := r.db.Query(ctx, `
		SELECT id, query, ticker, company_name, recommendation, sentiment_score, report, errors, duration_ms, created_at
		FROM research_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)

	metrics.RecordDBQuery("select", "research_runs", time.Since(start))
	if err != nil {
		metrics.RecordDBError("select", "research_runs")
		return nil, fmt.Errorf("failed to query research runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// GetRunsByTicker returns recent research runs for a specific ticker.
func (r *Repository) GetRunsByTicker(ctx context.Context, ticker string, limit int) ([]models.ResearchRun, error) {
	if limit <= 0 {
		limit = 10
	}

	metrics := observability.GetMetrics()
	start := time.Now()

	rows, err := r.db.Query(ctx, `
		SELECT id, query, ticker, company_name, recommendation, sentiment_score, report, errors, duration_ms, created_at
		FROM research_runs
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, ticker, limit)

	metrics.RecordDBQuery("select", "research_runs", time.Since(start))
	if err != nil {
		metrics.RecordDBError("select", "research_runs")
		return nil, fmt.Errorf("failed to query research runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// LatestRunForTicker returns the newest run for a ticker, or nil when the
// ticker has never been researched.
func (r *Repository) LatestRunForTicker(ctx context.Context, ticker string) (*models.ResearchRun, error) {
	runs, err := r.GetRunsByTicker(ctx, ticker, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func scanRuns(rows pgx.Rows) ([]models.ResearchRun, error) {
	var runs []models.ResearchRun
	for rows.Next() {
		var run models.ResearchRun
		var errorsJSON []byte

		err := rows.Scan(&run.ID, &run.Query, &run.Ticker, &run.CompanyName, &run.Recommendation, &run.SentimentScore, &run.Report, &errorsJSON, &run.DurationMs, &run.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan research run: %w", err)
		}

		if errorsJSON != nil {
			json.Unmarshal(errorsJSON, &run.Errors)
		}

		runs = append(runs, run)
	}

	return runs, nil
}
