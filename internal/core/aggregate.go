package core

import "sort"

type (
	// KindTotal is one row of a group-by-kind aggregation.
	KindTotal struct {
		Kind       Kind
		TotalCents int64
		Count      int64
	}

	// CategoryTotal is one row of a group-by-(category, kind) aggregation.
	CategoryTotal struct {
		Kind       Kind
		Category   Category
		TotalCents int64
		Count      int64
	}

	// Summary is the reduced income/expense overview for a filtered set.
	Summary struct {
		IncomeCents  int64
		ExpenseCents int64
		IncomeCount  int64
		ExpenseCount int64
	}

	CategoryEntry struct {
		Category   Category
		TotalCents int64
		Count      int64
		Percentage float64
	}

	// KindBreakdown groups per-category totals under a single kind.
	KindBreakdown struct {
		Kind       Kind
		TotalCents int64
		Count      int64
		Categories []CategoryEntry
	}
)

// BalanceCents is income minus expenses; exact, no rounding involved.
func (s Summary) BalanceCents() int64 {
	return s.IncomeCents - s.ExpenseCents
}

// ReduceSummary folds group-by-kind rows into a single summary. An empty
// input yields the all-zero summary.
func ReduceSummary(groups []KindTotal) Summary {
	var s Summary
	for _, g := range groups {
		switch g.Kind {
		case Income:
			s.IncomeCents += g.TotalCents
			s.IncomeCount += g.Count
		case Expense:
			s.ExpenseCents += g.TotalCents
			s.ExpenseCount += g.Count
		}
	}
	return s
}

// Percentage returns part/total as a percentage rounded to two decimals.
// A zero total yields 0 rather than a division error.
func Percentage(partCents, totalCents int64) float64 {
	if totalCents == 0 {
		return 0
	}
	return Round2(float64(partCents) / float64(totalCents) * 100)
}

// BuildBreakdown regroups (category, kind) rows by kind and attaches each
// category's percentage share of its kind total. Kinds are ordered
// ascending; categories keep the input order.
func BuildBreakdown(groups []CategoryTotal) []KindBreakdown {
	byKind := make(map[Kind]*KindBreakdown)
	var order []Kind
	for _, g := range groups {
		b, ok := byKind[g.Kind]
		if !ok {
			b = &KindBreakdown{Kind: g.Kind}
			byKind[g.Kind] = b
			order = append(order, g.Kind)
		}
		b.TotalCents += g.TotalCents
		b.Count += g.Count
		b.Categories = append(b.Categories, CategoryEntry{
			Category:   g.Category,
			TotalCents: g.TotalCents,
			Count:      g.Count,
		})
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	out := make([]KindBreakdown, 0, len(order))
	for _, k := range order {
		b := byKind[k]
		for i := range b.Categories {
			b.Categories[i].Percentage = Percentage(b.Categories[i].TotalCents, b.TotalCents)
		}
		out = append(out, *b)
	}
	return out
}
