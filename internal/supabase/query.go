package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Query builds a PostgREST request against one table.
type Query struct {
	client  *Client
	table   string
	columns string
	filters []filter
	orders  []string
	limit   int
	single  bool
}

type filter struct {
	column string
	value  string
}

// Select specifies the columns (or embedded resources) to return.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, filter{column, fmt.Sprintf("eq.%v", value)})
	return q
}

// Neq adds a not-equal filter.
func (q *Query) Neq(column string, value any) *Query {
	q.filters = append(q.filters, filter{column, fmt.Sprintf("neq.%v", value)})
	return q
}

// ILike adds a case-insensitive pattern filter. The pattern uses * as the
// wildcard, per PostgREST convention.
func (q *Query) ILike(column, pattern string) *Query {
	q.filters = append(q.filters, filter{column, "ilike." + pattern})
	return q
}

// Order adds an ordering term. Terms accumulate in call order.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Single requests exactly one object instead of an array. Zero matching
// rows then surface as ErrNotFound.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

func (q *Query) url(includeReadParams bool) string {
	reqURL := q.client.baseURL + "/rest/v1/" + q.table

	params := url.Values{}
	if includeReadParams && q.columns != "" {
		params.Set("select", q.columns)
	}
	for _, f := range q.filters {
		params.Add(f.column, f.value)
	}
	if includeReadParams {
		if len(q.orders) > 0 {
			params.Set("order", strings.Join(q.orders, ","))
		}
		if q.limit > 0 {
			params.Set("limit", fmt.Sprintf("%d", q.limit))
		}
	}

	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return reqURL
}

// Get executes a SELECT.
func (q *Query) Get(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url(true), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q.client.setHeaders(req)
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}

	return q.client.do(req)
}

// Insert executes an INSERT and asks the backend to return the stored row.
func (q *Query) Insert(ctx context.Context, data any) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.url(false), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q.client.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	return q.client.do(req)
}

// Update executes a PATCH over the rows matched by the filters.
func (q *Query) Update(ctx context.Context, data any) (*Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, q.url(false), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q.client.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	return q.client.do(req)
}

// Delete executes a DELETE over the rows matched by the filters.
func (q *Query) Delete(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, q.url(false), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q.client.setHeaders(req)

	return q.client.do(req)
}
