package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/jehnsen/admin-suite/internal/workflow"
)

// ListParams narrows a paginated list call.
type ListParams struct {
	Page    int
	PerPage int
	Status  workflow.Status
	Search  string
	Filters map[string]string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if s := strings.TrimSpace(p.Search); s != "" {
		q.Set("search", s)
	}
	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := p.Filters[k]; v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// Page is one page of a paginated list.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// HasMore reports whether a later page exists.
func (p Page[T]) HasMore() bool {
	return p.CurrentPage < p.LastPage
}

type pageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// pageWire accepts a bare array, a flat paginator or {data, meta}.
type pageWire[W any] struct {
	Data []W
	pageMeta
}

func (p *pageWire[W]) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &p.Data); err != nil {
			return err
		}
		n := len(p.Data)
		p.pageMeta = pageMeta{CurrentPage: 1, PerPage: n, Total: n, LastPage: 1}
		if n > 0 {
			p.From, p.To = 1, n
		}
		return nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
		Meta *pageMeta       `json:"meta"`
		pageMeta
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	p.pageMeta = env.pageMeta
	if env.Meta != nil {
		p.pageMeta = *env.Meta
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		p.Data = nil
		return nil
	}
	// {"data": {"data": [...], ...}} is a paginator wrapped in an envelope.
	if env.Data[0] == '{' {
		return p.UnmarshalJSON(env.Data)
	}
	return json.Unmarshal(env.Data, &p.Data)
}

// wrapped decodes either the bare object or {"data": object}.
type wrapped[T any] struct {
	target *T
}

func (w *wrapped[T]) UnmarshalJSON(raw []byte) error {
	return json.Unmarshal(unwrapData(raw), w.target)
}

func list[W, T any](ctx context.Context, c *Client, path string, params ListParams, conv func(W) T) (Page[T], error) {
	var wire pageWire[W]
	if err := c.getJSON(ctx, path, params.values(), &wire); err != nil {
		return Page[T]{}, err
	}
	out := Page[T]{
		Data:        make([]T, 0, len(wire.Data)),
		CurrentPage: wire.CurrentPage,
		PerPage:     wire.PerPage,
		Total:       wire.Total,
		LastPage:    wire.LastPage,
		From:        wire.From,
		To:          wire.To,
	}
	for _, w := range wire.Data {
		out.Data = append(out.Data, conv(w))
	}
	if out.Total == 0 {
		out.Total = len(out.Data)
	}
	return out, nil
}

func get[W, T any](ctx context.Context, c *Client, path string, id int64, conv func(W) T) (T, error) {
	var w W
	if err := c.getJSON(ctx, fmt.Sprintf("%s/%d", path, id), nil, &wrapped[W]{target: &w}); err != nil {
		var zero T
		return zero, err
	}
	return conv(w), nil
}

func create[W, T any](ctx context.Context, c *Client, method, path string, body any, conv func(W) T) (T, error) {
	var w W
	if err := c.sendJSON(ctx, method, path, body, &wrapped[W]{target: &w}); err != nil {
		var zero T
		return zero, err
	}
	return conv(w), nil
}

// All walks every page of a list call. Pages are fetched sequentially.
func All[T any](ctx context.Context, params ListParams, fetch func(context.Context, ListParams) (Page[T], error)) ([]T, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	var out []T
	for {
		page, err := fetch(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if !page.HasMore() || len(page.Data) == 0 {
			return out, nil
		}
		params.Page = page.CurrentPage + 1
	}
}
