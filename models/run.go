package models

import (
	"time"

	"github.com/google/uuid"
)

// ResearchRun is the audit record persisted (optionally) for each pipeline
// run. The pipeline itself never reads these back; they exist for
// diagnostics only.
type ResearchRun struct {
	ID             uuid.UUID `json:"id"`
	Query          string    `json:"query"`
	Ticker         string    `json:"ticker"`
	CompanyName    string    `json:"company_name"`
	Recommendation Verdict   `json:"recommendation"`
	SentimentScore float64   `json:"sentiment_score"`
	Report         string    `json:"report,omitempty"`
	Errors         []string  `json:"errors,omitempty"`
	DurationMs     int       `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewResearchRun builds the audit record for a finished run.
func NewResearchRun(state *ResearchState, duration time.Duration) *ResearchRun {
	return &ResearchRun{
		ID:             uuid.New(),
		Query:          state.UserQuery,
		Ticker:         state.Ticker,
		CompanyName:    state.CompanyName,
		Recommendation: state.Recommendation,
		SentimentScore: state.SentimentScore(),
		Report:         state.FinalReport,
		Errors:         state.Errors,
		DurationMs:     int(duration.Milliseconds()),
		CreatedAt:      time.Now(),
	}
}
