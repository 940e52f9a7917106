// Package client is the Go client for the transaction API. Read results
// are cached; every mutation purges the derived caches so the next read
// observes the change.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/cache"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
)

const (
	defaultTimeout  = 15 * time.Second
	cacheTTL        = 5 * time.Minute
	listCacheSize   = 100
	resultCacheSize = 50
)

// APIError is a non-2xx response decoded from the envelope.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// TransactionInput is the payload for create and update calls.
type TransactionInput struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Date        string  `json:"date,omitempty"`
}

// ListParams selects a page of transactions.
type ListParams struct {
	Page     int
	Limit    int
	Type     string
	Category string
	// Dates in 2006-01-02 form.
	StartDate string
	EndDate   string
}

// FilterParams narrows the analytics endpoints.
type FilterParams struct {
	Type      string
	Category  string
	StartDate string
	EndDate   string
}

// ListResult is the decoded list payload.
type ListResult struct {
	Transactions []apphttp.TransactionResponse `json:"transactions"`
	Total        int64                         `json:"total"`
	Summary      apphttp.SummaryResponse       `json:"summary"`
	Pagination   apphttp.PaginationResponse    `json:"pagination"`
}

// Client talks to one API base URL.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *applog.Logger

	listCache      *cache.LRUCache[ListResult]
	summaryCache   *cache.LRUCache[apphttp.SummaryResponse]
	breakdownCache *cache.LRUCache[[]apphttp.BreakdownResponse]
}

func New(baseURL string, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.NewNop()
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpc:          &http.Client{Timeout: defaultTimeout},
		logger:         logger.WithComponent(applog.ComponentClient),
		listCache:      cache.NewLRUCache[ListResult](listCacheSize, cacheTTL),
		summaryCache:   cache.NewLRUCache[apphttp.SummaryResponse](resultCacheSize, cacheTTL),
		breakdownCache: cache.NewLRUCache[[]apphttp.BreakdownResponse](resultCacheSize, cacheTTL),
	}
}

// invalidate drops every cached read result after a mutation.
func (c *Client) invalidate() {
	c.listCache.Purge()
	c.summaryCache.Purge()
	c.breakdownCache.Purge()
}

func (p ListParams) query() string {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	return q.Encode()
}

func (p FilterParams) query() string {
	q := url.Values{}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	return q.Encode()
}

// do sends a request and decodes the envelope, unmarshalling Data into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, query string, body any, out any) error {
	target := c.baseURL + path
	if query != "" {
		target += "?" + query
	}

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
		Errors  []string        `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Errors:     env.Errors,
		}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Create adds a transaction and invalidates cached reads.
func (c *Client) Create(ctx context.Context, in TransactionInput) (apphttp.TransactionResponse, error) {
	var out apphttp.TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/transactions", "", in, &out); err != nil {
		return apphttp.TransactionResponse{}, err
	}
	c.invalidate()
	return out, nil
}

// Get fetches one transaction by identifier.
func (c *Client) Get(ctx context.Context, id string) (apphttp.TransactionResponse, error) {
	var out apphttp.TransactionResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions/"+id, "", nil, &out); err != nil {
		return apphttp.TransactionResponse{}, err
	}
	return out, nil
}

// Update replaces a transaction and invalidates cached reads.
func (c *Client) Update(ctx context.Context, id string, in TransactionInput) (apphttp.TransactionResponse, error) {
	var out apphttp.TransactionResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/transactions/"+id, "", in, &out); err != nil {
		return apphttp.TransactionResponse{}, err
	}
	c.invalidate()
	return out, nil
}

// Delete removes a transaction and invalidates cached reads.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/transactions/"+id, "", nil, nil); err != nil {
		return err
	}
	c.invalidate()
	return nil
}

// List returns one page of transactions, served from cache when possible.
func (c *Client) List(ctx context.Context, p ListParams) (ListResult, error) {
	key := p.query()
	if cached, ok := c.listCache.Get(key); ok {
		c.logger.DebugContext(ctx, "List cache hit", "key", key)
		return cached, nil
	}

	var out ListResult
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions", key, nil, &out); err != nil {
		return ListResult{}, err
	}
	c.listCache.Set(key, out)
	return out, nil
}

// Summary returns the filtered income/expense overview, cached per filter.
func (c *Client) Summary(ctx context.Context, p FilterParams) (apphttp.SummaryResponse, error) {
	key := p.query()
	if cached, ok := c.summaryCache.Get(key); ok {
		c.logger.DebugContext(ctx, "Summary cache hit", "key", key)
		return cached, nil
	}

	var out apphttp.SummaryResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions/summary", key, nil, &out); err != nil {
		return apphttp.SummaryResponse{}, err
	}
	c.summaryCache.Set(key, out)
	return out, nil
}

// CategoryBreakdown returns per-category totals, cached per filter.
func (c *Client) CategoryBreakdown(ctx context.Context, p FilterParams) ([]apphttp.BreakdownResponse, error) {
	key := p.query()
	if cached, ok := c.breakdownCache.Get(key); ok {
		c.logger.DebugContext(ctx, "Breakdown cache hit", "key", key)
		return cached, nil
	}

	var out []apphttp.BreakdownResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions/categories", key, nil, &out); err != nil {
		return nil, err
	}
	c.breakdownCache.Set(key, out)
	return out, nil
}
