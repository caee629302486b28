package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// AdvisorySize is the exact number of suggestions a recommendation holds.
const AdvisorySize = 4

// DroppedItem records a line item rejected by validation.
type DroppedItem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ValidateLineItems keeps the elements that carry a usable amount,
// description and category. Rejected elements are reported, not fatal.
func ValidateLineItems(elems []json.RawMessage) ([]core.LineItem, []DroppedItem) {
	items := make([]core.LineItem, 0, len(elems))
	var dropped []DroppedItem

	for i, raw := range elems {
		item, reason := lineItem(raw)
		if reason != "" {
			dropped = append(dropped, DroppedItem{Index: i, Reason: reason})
			continue
		}
		items = append(items, item)
	}
	return items, dropped
}

func lineItem(raw json.RawMessage) (core.LineItem, string) {
	obj, ok := decodeObject(raw)
	if !ok {
		return core.LineItem{}, "not an object"
	}

	amount, err := amountField(obj["amount"])
	if err != nil {
		return core.LineItem{}, err.Error()
	}
	description := stringField(obj["description"])
	if description == "" {
		return core.LineItem{}, "missing description"
	}
	category := stringField(obj["category"])
	if category == "" {
		return core.LineItem{}, "missing category"
	}

	return core.LineItem{
		Amount:      amount,
		Description: description,
		Category:    category,
		Quantity:    quantityField(obj["quantity"]),
	}, ""
}

// amountField accepts a JSON number or a numeric string.
func amountField(v any) (float64, error) {
	var s string
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing amount")
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
		if s == "" {
			return 0, fmt.Errorf("missing amount")
		}
	default:
		return 0, fmt.Errorf("amount is not a number")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("amount is not a number")
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("amount out of range")
	}
	return f, nil
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// quantityField defaults to 1 for missing, fractional or non-positive values.
func quantityField(v any) int {
	n, ok := v.(json.Number)
	if !ok {
		return 1
	}
	q, err := n.Int64()
	if err != nil || q < 1 || q > math.MaxInt32 {
		return 1
	}
	return int(q)
}

// ValidateSuggestions requires exactly AdvisorySize elements, each with a
// non-empty category and advice. Any deviation rejects the whole response.
func ValidateSuggestions(elems []json.RawMessage) ([]core.Suggestion, error) {
	if len(elems) != AdvisorySize {
		return nil, core.Fail(core.KindInvalidAdvisoryShape,
			fmt.Sprintf("expected %d suggestions, got %d", AdvisorySize, len(elems)), nil)
	}

	out := make([]core.Suggestion, 0, AdvisorySize)
	for i, raw := range elems {
		obj, ok := decodeObject(raw)
		if !ok {
			return nil, core.Fail(core.KindInvalidAdvisoryShape,
				fmt.Sprintf("suggestion %d is not an object", i), nil)
		}
		s := core.Suggestion{
			Category: stringField(obj["category"]),
			Advice:   stringField(obj["advice"]),
		}
		if s.Category == "" || s.Advice == "" {
			return nil, core.Fail(core.KindInvalidAdvisoryShape,
				fmt.Sprintf("suggestion %d needs category and advice", i), nil)
		}
		out = append(out, s)
	}
	return out, nil
}
