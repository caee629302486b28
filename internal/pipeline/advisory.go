package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/ai"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

// Advisor turns a user's financial snapshot into a persisted recommendation.
type Advisor struct {
	inferrer        ai.Inferrer
	users           UserResolver
	aggregates      FinancialAggregates
	taxonomy        TaxonomyReader
	recommendations RecommendationCreator
	metrics         *metrics.Metrics
	logger          *log.Logger
	now             func() time.Time
}

func NewAdvisor(
	inferrer ai.Inferrer,
	users UserResolver,
	aggregates FinancialAggregates,
	taxonomy TaxonomyReader,
	recommendations RecommendationCreator,
	m *metrics.Metrics,
	logger *log.Logger,
) *Advisor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Advisor{
		inferrer:        inferrer,
		users:           users,
		aggregates:      aggregates,
		taxonomy:        taxonomy,
		recommendations: recommendations,
		metrics:         m,
		logger:          logger.WithComponent(log.ComponentPipeline),
		now:             time.Now,
	}
}

// GenerateRecommendation resolves the user behind token, builds a snapshot
// for period and persists exactly four validated suggestions.
func (a *Advisor) GenerateRecommendation(ctx context.Context, token string, period core.Period) (*core.Recommendation, error) {
	rec, err := a.generate(ctx, token, period)
	a.metrics.PipelineRun(metrics.PipelineAdvisory, outcome(err))
	if err != nil {
		a.logger.WarnContext(ctx, "Recommendation failed",
			log.FieldPipeline, metrics.PipelineAdvisory,
			log.FieldPeriod, period.String(),
			log.FieldErrorKind, string(core.KindOf(err)),
			log.FieldError, err)
	}
	return rec, err
}

func (a *Advisor) generate(ctx context.Context, token string, period core.Period) (*core.Recommendation, error) {
	if token == "" {
		return nil, core.Fail(core.KindInputMissing, "user token is required", nil)
	}
	user, err := a.users.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}

	snap, err := a.snapshot(ctx, user.ID, period)
	if err != nil {
		return nil, err
	}
	if !(snap.Income > 0) || math.IsInf(snap.Income, 0) {
		return nil, core.Fail(core.KindInsufficientData,
			fmt.Sprintf("no usable income recorded for %s", period), nil)
	}
	if math.IsNaN(snap.Expenses) || math.IsInf(snap.Expenses, 0) {
		return nil, core.Fail(core.KindInsufficientData,
			fmt.Sprintf("expense total for %s is not a finite number", period), nil)
	}

	a.logger.DebugContext(ctx, "Advisory snapshot",
		log.FieldUserID, user.ID,
		log.FieldPeriod, period.String(),
		log.FieldRatio, snap.Ratio(),
		"branch", snap.Branch())

	raw, err := a.inferrer.Infer(ctx, ai.Text(advisoryPrompt(snap)))
	if err != nil {
		return nil, asInferenceFailure(err)
	}

	elems, err := ParseArray(Sanitize(raw))
	if err != nil {
		return nil, err
	}
	suggestions, err := ValidateSuggestions(elems)
	if err != nil {
		return nil, err
	}

	rec := &core.Recommendation{
		UserID:      user.ID,
		Suggestions: suggestions,
		Date:        a.now().UTC(),
	}
	if err := a.recommendations.CreateRecommendation(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist recommendation: %w", err)
	}

	a.logger.InfoContext(ctx, "Recommendation generated",
		log.FieldUserID, user.ID,
		log.FieldPeriod, period.String(),
		"recommendation_id", rec.ID)
	return rec, nil
}

// snapshot reads the aggregates and category names concurrently.
func (a *Advisor) snapshot(ctx context.Context, userID string, period core.Period) (Snapshot, error) {
	snap := Snapshot{Period: period}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := a.aggregates.TotalIncome(gctx, userID, period)
		if err != nil {
			return fmt.Errorf("total income: %w", err)
		}
		snap.Income = v
		return nil
	})
	g.Go(func() error {
		v, err := a.aggregates.TotalExpenses(gctx, userID, period)
		if err != nil {
			return fmt.Errorf("total expenses: %w", err)
		}
		snap.Expenses = v
		return nil
	})
	g.Go(func() error {
		cats, err := a.taxonomy.ListByType(gctx, core.CategoryExpense)
		if err != nil {
			return fmt.Errorf("expense categories: %w", err)
		}
		names := make([]string, len(cats))
		for i, c := range cats {
			names[i] = c.Name
		}
		snap.Categories = names
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
