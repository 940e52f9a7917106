package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// fakeStore is an in-memory TransactionStore for handler tests.
type fakeStore struct {
	seq  int
	byID map[string]core.Transaction
	err  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]core.Transaction{}}
}

func (f *fakeStore) nextID() string {
	f.seq++
	return fmt.Sprintf("%024x", f.seq)
}

func (f *fakeStore) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	now := time.Now().UTC()
	t.ID = f.nextID()
	t.CreatedAt = now
	t.UpdatedAt = now
	f.byID[t.ID] = t
	return t, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	t, ok := f.byID[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) Replace(_ context.Context, id string, t core.Transaction) (core.Transaction, error) {
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	old, ok := f.byID[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	t.ID = id
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	f.byID[id] = t
	return t, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return storage.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeStore) matching(filter core.Filter) []core.Transaction {
	var out []core.Transaction
	for _, t := range f.byID {
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if !filter.Start.IsZero() && t.Date.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && t.Date.After(filter.End) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (f *fakeStore) List(_ context.Context, filter core.Filter, page, limit int) ([]core.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	all := f.matching(filter)
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeStore) Count(_ context.Context, filter core.Filter) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.matching(filter))), nil
}

func (f *fakeStore) Summary(_ context.Context, filter core.Filter) (core.Summary, error) {
	if f.err != nil {
		return core.Summary{}, f.err
	}
	var s core.Summary
	for _, t := range f.matching(filter) {
		switch t.Kind {
		case core.Income:
			s.IncomeCents += t.AmountCents
			s.IncomeCount++
		case core.Expense:
			s.ExpenseCents += t.AmountCents
			s.ExpenseCount++
		}
	}
	return s, nil
}

func (f *fakeStore) Breakdown(_ context.Context, filter core.Filter) ([]core.KindBreakdown, error) {
	if f.err != nil {
		return nil, f.err
	}
	totals := map[core.Kind]map[core.Category]*core.CategoryTotal{}
	for _, t := range f.matching(filter) {
		if totals[t.Kind] == nil {
			totals[t.Kind] = map[core.Category]*core.CategoryTotal{}
		}
		ct := totals[t.Kind][t.Category]
		if ct == nil {
			ct = &core.CategoryTotal{Kind: t.Kind, Category: t.Category}
			totals[t.Kind][t.Category] = ct
		}
		ct.TotalCents += t.AmountCents
		ct.Count++
	}
	var rows []core.CategoryTotal
	for _, byCat := range totals {
		for _, ct := range byCat {
			rows = append(rows, *ct)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Kind != rows[j].Kind {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Category < rows[j].Category
	})
	return core.BuildBreakdown(rows), nil
}

type publishedEvent struct {
	action string
	id     string
}

type fakePublisher struct {
	events []publishedEvent
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, action, id string) error {
	p.events = append(p.events, publishedEvent{action: action, id: id})
	return nil
}

func newTestServer(store TransactionStore, events EventPublisher) *Server {
	return NewServer(store, Options{Events: events})
}

func doRequest(t *testing.T, srv *Server, method, target, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reqBody)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

func createTransaction(t *testing.T, srv *Server, body string) string {
	t.Helper()
	rec, env := doRequest(t, srv, http.MethodPost, "/api/v1/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	data := env.Data.(map[string]any)
	return data["id"].(string)
}

func TestCreateTransaction(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	srv := newTestServer(store, pub)

	body := `{"type":"expense","amount":49.999,"description":"Weekly groceries","category":"Groceries","date":"2026-08-15"}`
	rec, env := doRequest(t, srv, http.MethodPost, "/api/v1/transactions", body)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if !env.Success || env.Message != "Transaction created successfully" {
		t.Fatalf("envelope = %+v", env)
	}
	data := env.Data.(map[string]any)
	if got := data["amount"].(float64); got != 50.00 {
		t.Errorf("amount = %v, want 50 after rounding", got)
	}
	if got := data["date"].(string); got != "2026-08-15" {
		t.Errorf("date = %q", got)
	}
	if !core.ValidID(data["id"].(string)) {
		t.Errorf("id %q is not a 24-hex identifier", data["id"])
	}
	if len(pub.events) != 1 || pub.events[0].action != "created" {
		t.Errorf("published events = %+v", pub.events)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil)

	cases := []struct {
		name      string
		body      string
		wantFirst string
		wantCount int
	}{
		{
			name:      "bad type",
			body:      `{"type":"transfer","amount":10,"description":"x","category":"Groceries"}`,
			wantFirst: "Type must be either income or expense",
			wantCount: 1,
		},
		{
			name:      "zero amount",
			body:      `{"type":"expense","amount":0,"description":"x","category":"Groceries"}`,
			wantFirst: "Amount must be a positive number greater than 0",
			wantCount: 1,
		},
		{
			name:      "amount over ceiling",
			body:      `{"type":"expense","amount":1000000.01,"description":"x","category":"Groceries"}`,
			wantFirst: "Amount exceeds maximum limit of $1,000,000",
			wantCount: 1,
		},
		{
			name:      "blank description",
			body:      `{"type":"expense","amount":10,"description":"   ","category":"Groceries"}`,
			wantFirst: "Description is required and must be between 1-150 characters",
			wantCount: 1,
		},
		{
			name:      "unknown category",
			body:      `{"type":"expense","amount":10,"description":"x","category":"Yachts"}`,
			wantFirst: "Invalid category selected",
			wantCount: 1,
		},
		{
			name:      "bad date",
			body:      `{"type":"expense","amount":10,"description":"x","category":"Groceries","date":"yesterday"}`,
			wantFirst: "Date must be in valid ISO format",
			wantCount: 1,
		},
		{
			name:      "multiple failures ordered",
			body:      `{"type":"transfer","amount":-5,"description":"","category":"Yachts","date":"nope"}`,
			wantFirst: "Type must be either income or expense",
			wantCount: 5,
		},
		{
			name:      "malformed json",
			body:      `{"type":`,
			wantFirst: "Request body must be valid JSON",
			wantCount: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := doRequest(t, srv, http.MethodPost, "/api/v1/transactions", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env.Success {
				t.Error("success = true on validation failure")
			}
			if env.Message != tc.wantFirst {
				t.Errorf("message = %q, want %q", env.Message, tc.wantFirst)
			}
			if len(env.Errors) != tc.wantCount {
				t.Errorf("errors = %v, want %d entries", env.Errors, tc.wantCount)
			}
		})
	}
}

func TestCreateAcceptsAmountAtCeiling(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil)
	body := `{"type":"income","amount":1000000,"description":"Company sale","category":"Business"}`
	rec, _ := doRequest(t, srv, http.MethodPost, "/api/v1/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
}

func TestGetTransaction(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store, nil)
	id := createTransaction(t, srv, `{"type":"income","amount":100,"description":"Pay","category":"Salary","date":"2026-08-01"}`)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := env.Data.(map[string]any)
	if data["id"] != id || data["type"] != "income" {
		t.Errorf("data = %+v", data)
	}
}

func TestGetTransactionErrors(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions/not-a-valid-id", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed id status = %d, want 400", rec.Code)
	}
	if env.Message != "Invalid transaction ID format" {
		t.Errorf("message = %q", env.Message)
	}

	rec, env = doRequest(t, srv, http.MethodGet, "/api/v1/transactions/0123456789abcdef01234567", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing id status = %d, want 404", rec.Code)
	}
	if env.Message != "Transaction not found" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestUpdateTransaction(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	srv := newTestServer(store, pub)
	id := createTransaction(t, srv, `{"type":"expense","amount":20,"description":"Lunch","category":"Dining","date":"2026-08-01"}`)

	body := `{"type":"expense","amount":25.50,"description":"Dinner","category":"Dining","date":"2026-08-01"}`
	rec, env := doRequest(t, srv, http.MethodPut, "/api/v1/transactions/"+id, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := env.Data.(map[string]any)
	if data["amount"].(float64) != 25.50 || data["description"] != "Dinner" {
		t.Errorf("data = %+v", data)
	}
	if len(pub.events) != 2 || pub.events[1].action != "updated" {
		t.Errorf("published events = %+v", pub.events)
	}

	rec, _ = doRequest(t, srv, http.MethodPut, "/api/v1/transactions/0123456789abcdef01234567", body)
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing status = %d, want 404", rec.Code)
	}
}

func TestDeleteTransaction(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	srv := newTestServer(store, pub)
	id := createTransaction(t, srv, `{"type":"expense","amount":5,"description":"Coffee","category":"Dining","date":"2026-08-01"}`)

	rec, env := doRequest(t, srv, http.MethodDelete, "/api/v1/transactions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Message != "Transaction deleted successfully" {
		t.Errorf("message = %q", env.Message)
	}
	if data := env.Data.(map[string]any); data["id"] != id {
		t.Errorf("data = %+v", data)
	}

	rec, _ = doRequest(t, srv, http.MethodDelete, "/api/v1/transactions/"+id, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	if len(pub.events) != 2 || pub.events[1].action != "deleted" {
		t.Errorf("published events = %+v", pub.events)
	}
}

func seedTransactions(t *testing.T, srv *Server) {
	t.Helper()
	bodies := []string{
		`{"type":"income","amount":100,"description":"Pay","category":"Salary","date":"2026-08-01"}`,
		`{"type":"expense","amount":30,"description":"Food","category":"Groceries","date":"2026-08-02"}`,
		`{"type":"expense","amount":10,"description":"Bus","category":"Transport","date":"2026-08-03"}`,
	}
	for _, b := range bodies {
		createTransaction(t, srv, b)
	}
}

func TestListTransactions(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store, nil)
	seedTransactions(t, srv)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := env.Data.(map[string]any)

	txs := data["transactions"].([]any)
	if len(txs) != 2 {
		t.Fatalf("page size = %d, want 2", len(txs))
	}
	first := txs[0].(map[string]any)
	if first["date"] != "2026-08-03" {
		t.Errorf("first date = %v, want newest first", first["date"])
	}
	if data["total"].(float64) != 3 {
		t.Errorf("total = %v, want 3", data["total"])
	}

	pag := data["pagination"].(map[string]any)
	if pag["current"].(float64) != 1 || pag["pages"].(float64) != 2 || pag["limit"].(float64) != 2 {
		t.Errorf("pagination = %+v", pag)
	}

	sum := data["summary"].(map[string]any)
	if sum["totalIncome"].(float64) != 100 || sum["totalExpenses"].(float64) != 40 || sum["balance"].(float64) != 60 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestListTransactionsFiltered(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store, nil)
	seedTransactions(t, srv)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions?type=expense&startDate=2026-08-03", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := env.Data.(map[string]any)
	if data["total"].(float64) != 1 {
		t.Errorf("total = %v, want 1", data["total"])
	}
	filters := env.Filters.(map[string]any)
	if filters["type"] != "expense" || filters["startDate"] != "2026-08-03" {
		t.Errorf("filters echo = %+v", filters)
	}
	if _, ok := filters["category"]; ok {
		t.Error("filters echo includes unset category")
	}
}

func TestListTransactionsBadQuery(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil)

	cases := []struct {
		query string
		want  string
	}{
		{"?page=0", "Page must be a positive integer"},
		{"?page=abc", "Page must be a positive integer"},
		{"?limit=101", "Limit must be between 1-100"},
		{"?limit=0", "Limit must be between 1-100"},
		{"?type=transfer", "Type must be income or expense"},
		{"?category=Yachts", "Invalid category filter"},
		{"?startDate=bad", "Start date must be valid ISO format"},
		{"?endDate=bad", "End date must be valid ISO format"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions"+tc.query, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env.Message != tc.want {
				t.Errorf("message = %q, want %q", env.Message, tc.want)
			}
		})
	}
}

func TestSummaryEndpoint(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store, nil)
	seedTransactions(t, srv)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (summary must not be treated as an id)", rec.Code)
	}
	data := env.Data.(map[string]any)
	if data["balance"].(float64) != 60 || data["incomeCount"].(float64) != 1 || data["expenseCount"].(float64) != 2 {
		t.Errorf("summary = %+v", data)
	}
}

func TestSummaryEmpty(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil)
	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data := env.Data.(map[string]any)
	for _, k := range []string{"totalIncome", "totalExpenses", "balance", "incomeCount", "expenseCount"} {
		if data[k].(float64) != 0 {
			t.Errorf("%s = %v, want 0", k, data[k])
		}
	}
}

func TestCategoryBreakdownEndpoint(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store, nil)
	seedTransactions(t, srv)

	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/transactions/categories?type=expense", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	groups := env.Data.([]any)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	g := groups[0].(map[string]any)
	if g["type"] != "expense" || g["total"].(float64) != 40 || g["count"].(float64) != 2 {
		t.Errorf("group = %+v", g)
	}
	cats := g["categories"].([]any)
	if len(cats) != 2 {
		t.Fatalf("categories = %d, want 2", len(cats))
	}
	groceries := cats[0].(map[string]any)
	if groceries["category"] != "Groceries" || groceries["percentage"].(float64) != 75 {
		t.Errorf("groceries entry = %+v", groceries)
	}
	transport := cats[1].(map[string]any)
	if transport["percentage"].(float64) != 25 {
		t.Errorf("transport entry = %+v", transport)
	}
}

func TestStoreFailureMapsTo500(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("connection reset")
	srv := newTestServer(store, nil)

	paths := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/api/v1/transactions", `{"type":"expense","amount":10,"description":"x","category":"Groceries"}`},
		{http.MethodGet, "/api/v1/transactions", ""},
		{http.MethodGet, "/api/v1/transactions/0123456789abcdef01234567", ""},
		{http.MethodGet, "/api/v1/transactions/summary", ""},
		{http.MethodGet, "/api/v1/transactions/categories", ""},
	}
	for _, p := range paths {
		rec, env := doRequest(t, srv, p.method, p.target, p.body)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s %s status = %d, want 500", p.method, p.target, rec.Code)
		}
		if env.Success {
			t.Errorf("%s %s success = true", p.method, p.target)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil)
	rec, env := doRequest(t, srv, http.MethodGet, "/api/v1/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Message != "Route not found" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := NewServer(newFakeStore(), Options{
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin for unknown origin = %q", got)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(newFakeStore(), nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}
