package pipeline

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Aggregate is the folded result of a list of validated line items.
type Aggregate struct {
	Total    float64
	Details  []core.BillDetail
	Category core.Category
}

// AggregateItems sums the items and builds bill details in input order. The
// expense category is the resolved category of the last item. Total is the
// decimal sum of the prices, so 0.1 + 0.2 totals exactly 0.3.
func AggregateItems(items []core.LineItem, tax *Taxonomy) Aggregate {
	agg := Aggregate{
		Details:  make([]core.BillDetail, 0, len(items)),
		Category: tax.Fallback(),
	}

	total := decimal.Zero
	for _, it := range items {
		price := decimal.NewFromFloat(it.Amount)
		total = total.Add(price)

		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		agg.Details = append(agg.Details, core.BillDetail{
			Description: it.Description,
			Quantity:    qty,
			Price:       it.Amount,
		})
		agg.Category = tax.Resolve(it.Category)
	}

	agg.Total = total.InexactFloat64()
	return agg
}
