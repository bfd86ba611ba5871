package repository

import (
	"context"

	"stock-researcher/models"

	"github.com/google/uuid"
)

// RepositoryInterface defines all repository operations
type RepositoryInterface interface {
	// Health and lifecycle
	Close()
	Health(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// Research runs
	CreateRun(ctx context.Context, run *models.ResearchRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.ResearchRun, error)
	GetRuns(ctx context.Context, limit int) ([]models.ResearchRun, error)
	GetRunsByTicker(ctx context.Context, ticker string, limit int) ([]models.ResearchRun, error)
	LatestRunForTicker(ctx context.Context, ticker string) (*models.ResearchRun, error)
}

// Compile-time interface verification
var _ RepositoryInterface = (*Repository)(nil)
