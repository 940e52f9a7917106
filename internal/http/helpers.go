package http

import (
	"time"

	"fintrack/internal/core"
)

// TransactionResponse is the wire shape of a single transaction record.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SummaryResponse is the wire shape of the income/expense overview.
type SummaryResponse struct {
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
	Balance       float64 `json:"balance"`
	IncomeCount   int64   `json:"incomeCount"`
	ExpenseCount  int64   `json:"expenseCount"`
}

// CategoryEntryResponse is one category row in a breakdown group.
type CategoryEntryResponse struct {
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// BreakdownResponse groups per-category totals under a single type.
type BreakdownResponse struct {
	Type       string                  `json:"type"`
	Total      float64                 `json:"total"`
	Count      int64                   `json:"count"`
	Categories []CategoryEntryResponse `json:"categories"`
}

// PaginationResponse reports the page window of a list result.
type PaginationResponse struct {
	Current int64 `json:"current"`
	Pages   int64 `json:"pages"`
	Limit   int64 `json:"limit"`
}

func formatTransaction(t core.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Type:        string(t.Kind),
		Amount:      core.Amount(t.AmountCents),
		Description: t.Description,
		Category:    string(t.Category),
		Date:        t.Date.UTC().Format(dateLayout),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func formatTransactions(ts []core.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, formatTransaction(t))
	}
	return out
}

func formatSummary(s core.Summary) SummaryResponse {
	return SummaryResponse{
		TotalIncome:   core.Amount(s.IncomeCents),
		TotalExpenses: core.Amount(s.ExpenseCents),
		Balance:       core.Amount(s.BalanceCents()),
		IncomeCount:   s.IncomeCount,
		ExpenseCount:  s.ExpenseCount,
	}
}

func formatBreakdown(groups []core.KindBreakdown) []BreakdownResponse {
	out := make([]BreakdownResponse, 0, len(groups))
	for _, g := range groups {
		entries := make([]CategoryEntryResponse, 0, len(g.Categories))
		for _, c := range g.Categories {
			entries = append(entries, CategoryEntryResponse{
				Category:   string(c.Category),
				Total:      core.Amount(c.TotalCents),
				Count:      c.Count,
				Percentage: c.Percentage,
			})
		}
		out = append(out, BreakdownResponse{
			Type:       string(g.Kind),
			Total:      core.Amount(g.TotalCents),
			Count:      g.Count,
			Categories: entries,
		})
	}
	return out
}

func totalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
