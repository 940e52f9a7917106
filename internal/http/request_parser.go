package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// TransactionRequest is the JSON body accepted on create and update.
type TransactionRequest struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
}

const (
	dateLayout = "2006-01-02"

	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

func parseDate(raw string) (time.Time, bool) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ParseTransactionBody decodes and validates a transaction payload. On
// failure it returns every violated rule in rule order.
func ParseTransactionBody(r *http.Request, maxAmountCents int64) (core.Transaction, []string) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Transaction{}, []string{"Request body must be valid JSON"}
	}

	tx := core.Transaction{
		Kind:        core.Kind(req.Type),
		Description: strings.TrimSpace(req.Description),
		Category:    core.Category(req.Category),
	}
	if req.Amount > 0 {
		tx.AmountCents = core.CentsFromAmount(req.Amount)
	}
	switch {
	case req.Date == "":
		tx.Date = time.Now().UTC()
	default:
		// a malformed date stays zero and fails the date rule
		tx.Date, _ = parseDate(req.Date)
	}

	if verrs := tx.ValidateAll(maxAmountCents); len(verrs) > 0 {
		errs := make([]string, len(verrs))
		for i, e := range verrs {
			errs[i] = e.Error()
		}
		return core.Transaction{}, errs
	}
	return tx, nil
}

// Pagination carries validated page and limit query parameters.
type Pagination struct {
	Page  int64
	Limit int64
}

// ParseListQuery validates page and limit query parameters, applying the
// defaults when absent.
func ParseListQuery(r *http.Request) (Pagination, []string) {
	p := Pagination{Page: defaultPage, Limit: defaultLimit}
	var errs []string

	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 {
			errs = append(errs, "Page must be a positive integer")
		} else {
			p.Page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 || v > maxLimit {
			errs = append(errs, "Limit must be between 1-100")
		} else {
			p.Limit = v
		}
	}
	return p, errs
}

// ParseFilters validates the type, category, startDate and endDate query
// parameters shared by the list and analytics endpoints. The breakdown
// endpoint groups by category so it rejects none and ignores the category
// parameter; callers pass allowCategory accordingly.
func ParseFilters(r *http.Request, allowCategory bool) (core.Filter, []string) {
	q := r.URL.Query()
	var f core.Filter
	var errs []string

	if raw := q.Get("type"); raw != "" {
		k := core.Kind(raw)
		if !k.Valid() {
			errs = append(errs, "Type must be income or expense")
		} else {
			f.Kind = k
		}
	}
	if allowCategory {
		if raw := q.Get("category"); raw != "" {
			c := core.Category(raw)
			if !c.Valid() {
				errs = append(errs, "Invalid category filter")
			} else {
				f.Category = c
			}
		}
	}
	if raw := q.Get("startDate"); raw != "" {
		t, ok := parseDate(raw)
		if !ok {
			errs = append(errs, "Start date must be valid ISO format")
		} else {
			f.Start = t
		}
	}
	if raw := q.Get("endDate"); raw != "" {
		t, ok := parseDate(raw)
		if !ok {
			errs = append(errs, "End date must be valid ISO format")
		} else {
			f.End = t
		}
	}
	return f, errs
}

// echoQuery returns the filter parameters the caller actually supplied,
// suitable for echoing in the response envelope.
func echoQuery(r *http.Request, keys ...string) map[string]string {
	out := map[string]string{}
	q := r.URL.Query()
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			out[k] = v
		}
	}
	return out
}
