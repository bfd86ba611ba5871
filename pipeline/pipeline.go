package pipeline

import (
	"context"
	"sync"
	"time"

	"stock-researcher/agents"
	"stock-researcher/models"
	"stock-researcher/observability"
)

// Stage names used for logging and metrics.
const (
	StageResolve = "resolve"
	StageCollect = "collect"
	StageReport  = "report"
)

// RunRecorder persists finished runs for auditing. Implemented by the
// repository package; a nil recorder disables auditing.
type RunRecorder interface {
	CreateRun(ctx context.Context, run *models.ResearchRun) error
}

// Pipeline wires the resolver, collectors, and synthesizer into the
// research state machine: Start -> Parsed -> (Unknown -> End | Known) ->
// Collected -> Reported -> End.
type Pipeline struct {
	resolver  *TickerResolver
	financial *agents.FinancialCollector
	sentiment *agents.SentimentCollector
	technical *agents.TechnicalCollector
	report    *agents.ReportSynthesizer

	recorder     RunRecorder
	stageTimeout time.Duration
}

// New creates a Pipeline. recorder may be nil.
func New(
	resolver *TickerResolver,
	financial *agents.FinancialCollector,
	sentiment *agents.SentimentCollector,
	technical *agents.TechnicalCollector,
	report *agents.ReportSynthesizer,
	recorder RunRecorder,
	stageTimeout time.Duration,
) *Pipeline {
	return &Pipeline{
		resolver:     resolver,
		financial:    financial,
		sentiment:    sentiment,
		technical:    technical,
		report:       report,
		recorder:     recorder,
		stageTimeout: stageTimeout,
	}
}

// Run executes one research query end to end. It never returns an error:
// every failure mode resolves to a well-formed result with an explanatory
// recommendation and populated errors.
func (p *Pipeline) Run(ctx context.Context, query string) *models.ResearchResult {
	metrics := observability.GetMetrics()
	start := time.Now()

	state := models.NewResearchState(query)

	// Start -> Parsed
	resolveStart := time.Now()
	ticker := p.resolveStage(ctx, query)
	state.SetTicker(ticker)
	metrics.RecordStageDuration(StageResolve, time.Since(resolveStart))
	metrics.RecordResearchRequest(ticker)

	logger := observability.WithTicker(ticker)

	if ticker == models.TickerUnknown {
		// Early exit: no collectors, no synthesizer, no report.
		state.AddError("Could not identify a stock ticker in your query. Try naming the company or its symbol.")
		state.Recommendation = models.VerdictUnavailable
		logger.Info("research run ended early", "reason", "unknown ticker")
		p.finish(ctx, metrics, state, start)
		return state.Result()
	}

	// Parsed -> Collected. The collectors are mutually independent and
	// share no state until the join, so they run concurrently.
	collectStart := time.Now()
	p.collectStage(ctx, state)
	metrics.RecordStageDuration(StageCollect, time.Since(collectStart))

	// Collected -> Reported
	reportStart := time.Now()
	reportCtx, cancel := p.stageContext(ctx)
	report, verdict, err := p.report.Synthesize(reportCtx, state)
	cancel()
	if err != nil {
		state.AddError(err.Error())
		metrics.RecordStageError(StageReport, "synthesis")
	}
	state.FinalReport = report
	state.Recommendation = verdict
	metrics.RecordStageDuration(StageReport, time.Since(reportStart))

	logger.Info("research run finished",
		"recommendation", state.Recommendation,
		"sentiment_score", state.SentimentScore(),
		"errors", len(state.Errors),
		"duration", time.Since(start))

	p.finish(ctx, metrics, state, start)
	return state.Result()
}

func (p *Pipeline) resolveStage(ctx context.Context, query string) string {
	resolveCtx, cancel := p.stageContext(ctx)
	defer cancel()
	return p.resolver.Resolve(resolveCtx, query)
}

// collectStage fans the three collectors out and merges their results
// into the state after the join. Only the goroutines' own result slots
// are written concurrently; the state is touched solely from this
// goroutine once the WaitGroup clears.
func (p *Pipeline) collectStage(ctx context.Context, state *models.ResearchState) {
	var (
		wg sync.WaitGroup

		financial    *models.FinancialData
		financialErr error
		sentiment    *models.SentimentData
		sentimentErr error
		technical    *models.TechnicalData
		technicalErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		collectCtx, cancel := p.stageContext(ctx)
		defer cancel()
		financial, financialErr = p.financial.Collect(collectCtx, state.Ticker)
	}()
	go func() {
		defer wg.Done()
		collectCtx, cancel := p.stageContext(ctx)
		defer cancel()
		sentiment, sentimentErr = p.sentiment.Collect(collectCtx, state.Ticker)
	}()
	go func() {
		defer wg.Done()
		collectCtx, cancel := p.stageContext(ctx)
		defer cancel()
		technical, technicalErr = p.technical.Collect(collectCtx, state.Ticker)
	}()
	wg.Wait()

	metrics := observability.GetMetrics()

	state.Financial = financial
	if financial != nil && financial.CompanyName != "" {
		state.CompanyName = financial.CompanyName
	}
	if financialErr != nil {
		state.AddError(financialErr.Error())
		metrics.RecordStageError(StageCollect, "financial")
	}

	state.Sentiment = sentiment
	if sentimentErr != nil {
		state.AddError(sentimentErr.Error())
		metrics.RecordStageError(StageCollect, "sentiment")
	}

	state.Technical = technical
	if technicalErr != nil {
		state.AddError(technicalErr.Error())
		metrics.RecordStageError(StageCollect, "technical")
	}
}

// finish records terminal metrics and the optional audit row.
func (p *Pipeline) finish(ctx context.Context, metrics *observability.Metrics, state *models.ResearchState, start time.Time) {
	duration := time.Since(start)
	metrics.RecordVerdict(string(state.Recommendation), state.SentimentScore())
	metrics.RecordResearchDuration(state.Ticker, string(state.Recommendation), duration)

	if p.recorder == nil {
		return
	}
	run := models.NewResearchRun(state, duration)
	if err := p.recorder.CreateRun(ctx, run); err != nil {
		// Auditing is best-effort; a failed insert never fails the run.
		observability.WithTicker(state.Ticker).Warn("failed to record research run", "error", err)
	}
}

// stageContext bounds a single stage when a timeout is configured.
func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.stageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.stageTimeout)
}
