package pipeline

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

// RatioThreshold splits advisory prompts between reinforcement and
// improvement.
const RatioThreshold = 0.70

// Advisory prompt branches.
const (
	BranchPositive    = "positive reinforcement"
	BranchImprovement = "improvement-focused"
)

const maxSummaryLength = 200

func extractionPrompt(categories []string) string {
	return fmt.Sprintf(`You are reading a photo of a shopping receipt.
Extract every purchased line item and answer with a JSON array only, no prose and no Markdown.
Each element must be an object with these fields:
  "amount": total paid for the line as a number,
  "description": short product name,
  "category": one of [%s], or "%s" when none fits,
  "quantity": integer number of units, 1 when not printed.
Do not include subtotals, taxes, discounts or the receipt total as items.`,
		strings.Join(quote(categories), ", "), core.FallbackCategoryName)
}

func summaryPrompt(items []core.LineItem) string {
	var b strings.Builder
	b.WriteString("Write a short title (at most 8 words) describing this purchase. ")
	b.WriteString("Answer with the title only.\nItems:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s x%d (%s)\n", it.Description, it.Quantity, it.Category)
	}
	return b.String()
}

// Snapshot is the financial state an advisory prompt is built from.
type Snapshot struct {
	Period     core.Period
	Income     float64
	Expenses   float64
	Categories []string
}

func (s Snapshot) Remaining() float64 { return s.Income - s.Expenses }

// Ratio is Expenses/Income. Callers must reject non-positive income first.
func (s Snapshot) Ratio() float64 { return s.Expenses / s.Income }

// Branch selects the prompt tone for the snapshot.
func (s Snapshot) Branch() string {
	if s.Ratio() < RatioThreshold {
		return BranchPositive
	}
	return BranchImprovement
}

func advisoryPrompt(s Snapshot) string {
	var tone string
	if s.Branch() == BranchPositive {
		tone = `The user is spending less than 70% of their income. Open with positive reinforcement ` +
			`for their current habits and build on what already works.`
	} else {
		tone = `The user is spending 70% or more of their income. Give improvement-focused suggestions ` +
			`that reduce spending in non-essential categories. Housing, groceries and health care are ` +
			`mandatory and should not be reduced.`
	}

	return fmt.Sprintf(`You are a personal finance advisor. Tone: %s.
%s

Period: %s
Income: %.2f
Total expenses: %.2f
Remaining budget: %.2f
Expense ratio: %.2f
Spending categories: %s

Answer with a JSON array of exactly %d objects and nothing else.
Each object has a "category" (one of the spending categories) and an "advice" field holding one or two simple, actionable sentences.`,
		s.Branch(), tone,
		s.Period, s.Income, s.Expenses, s.Remaining(), s.Ratio(),
		strings.Join(s.Categories, ", "), AdvisorySize)
}

func quote(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// cleanSummary trims model chatter from a generated title.
func cleanSummary(s string) string {
	s = strings.TrimSpace(stripFences(s))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, `"'* `)
	if r := []rune(s); len(r) > maxSummaryLength {
		s = strings.TrimSpace(string(r[:maxSummaryLength]))
	}
	return s
}
