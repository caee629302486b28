package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/ai"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

// ScanInput is one receipt upload.
type ScanInput struct {
	Image    []byte
	MIMEType string
	UserID   string
}

// ScanResult is the persisted expense plus the line items validation
// rejected.
type ScanResult struct {
	Expense *core.Expense `json:"expense"`
	Dropped []DroppedItem `json:"dropped_items"`
}

// Extractor turns a receipt image into a persisted expense.
type Extractor struct {
	inferrer ai.Inferrer
	taxonomy TaxonomyReader
	expenses ExpenseCreator
	metrics  *metrics.Metrics
	logger   *log.Logger
	now      func() time.Time
}

func NewExtractor(inferrer ai.Inferrer, taxonomy TaxonomyReader, expenses ExpenseCreator, m *metrics.Metrics, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Extractor{
		inferrer: inferrer,
		taxonomy: taxonomy,
		expenses: expenses,
		metrics:  m,
		logger:   logger.WithComponent(log.ComponentPipeline),
		now:      time.Now,
	}
}

// ScanBill runs the extraction pipeline. Every error aborts before anything
// is persisted, except for the summary call which falls back to a default
// description.
func (e *Extractor) ScanBill(ctx context.Context, in ScanInput) (*ScanResult, error) {
	res, err := e.scan(ctx, in)
	e.metrics.PipelineRun(metrics.PipelineExtraction, outcome(err))
	if err != nil {
		e.logger.WarnContext(ctx, "Bill scan failed",
			log.FieldPipeline, metrics.PipelineExtraction,
			log.FieldUserID, in.UserID,
			log.FieldErrorKind, string(core.KindOf(err)),
			log.FieldError, err)
	}
	return res, err
}

func (e *Extractor) scan(ctx context.Context, in ScanInput) (*ScanResult, error) {
	if len(in.Image) == 0 {
		return nil, core.Fail(core.KindInputMissing, "no image supplied", nil)
	}
	if in.MIMEType == "" {
		return nil, core.Fail(core.KindInputMissing, "image MIME type is required", nil)
	}
	if in.UserID == "" {
		return nil, core.Fail(core.KindInputMissing, "user is required", nil)
	}

	cats, err := e.taxonomy.ListByType(ctx, core.CategoryExpense)
	if err != nil {
		return nil, fmt.Errorf("load expense categories: %w", err)
	}
	tax, err := NewTaxonomy(cats)
	if err != nil {
		return nil, err
	}

	raw, err := e.inferrer.Infer(ctx, ai.Text(extractionPrompt(tax.Names())), ai.Image(in.Image, in.MIMEType))
	if err != nil {
		return nil, asInferenceFailure(err)
	}

	elems, err := ParseArray(Sanitize(raw))
	if err != nil {
		return nil, err
	}

	items, dropped := ValidateLineItems(elems)
	for _, d := range dropped {
		e.logger.WarnContext(ctx, "Dropped line item",
			log.FieldUserID, in.UserID,
			"index", d.Index,
			"reason", d.Reason)
	}
	e.metrics.DroppedItems(len(dropped))

	expense := &core.Expense{
		UserID:      in.UserID,
		Date:        e.now().UTC(),
		Source:      core.SourceScan,
		Description: core.DefaultScanDescription,
		BillDetails: []core.BillDetail{},
	}

	if len(items) == 0 {
		// nothing usable: persist an empty expense against the fallback
		expense.CategoryID = tax.Fallback().ID
	} else {
		agg := AggregateItems(items, tax)
		expense.Amount = agg.Total
		expense.BillDetails = agg.Details
		expense.CategoryID = agg.Category.ID
		expense.Description = e.summarize(ctx, items)
	}

	if err := e.expenses.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("persist scanned expense: %w", err)
	}

	e.logger.InfoContext(ctx, "Bill scanned",
		log.NewFields().
			WithUser(in.UserID).
			WithExpense(expense.ID, expense.Amount, expense.CategoryID, len(expense.BillDetails)).
			ToSlice()...)

	return &ScanResult{Expense: expense, Dropped: nonNil(dropped)}, nil
}

// summarize asks for a short description. Any failure yields the default.
func (e *Extractor) summarize(ctx context.Context, items []core.LineItem) string {
	text, err := e.inferrer.Infer(ctx, ai.Text(summaryPrompt(items)))
	if err == nil {
		if s := cleanSummary(text); s != "" {
			return s
		}
	}
	e.metrics.SummaryFallback()
	e.logger.DebugContext(ctx, "Using default scan description", log.FieldError, err)
	return core.DefaultScanDescription
}

func asInferenceFailure(err error) error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return err
	}
	return core.Fail(core.KindInferenceFailure, "inference call failed", err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(core.KindOf(err))
}

func nonNil(d []DroppedItem) []DroppedItem {
	if d == nil {
		return []DroppedItem{}
	}
	return d
}
