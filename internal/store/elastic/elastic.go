// Package elastic is a document store backed by the Elasticsearch REST API.
package elastic

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/jgraeger/contentfeeds/internal/content"
	"github.com/jgraeger/contentfeeds/internal/search"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxErrorBody limits how much of an error response ends up in messages.
const maxErrorBody = 512

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the cluster at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
	}
}

type hit struct {
	ID     string              `json:"_id"`
	Found  *bool               `json:"found,omitempty"`
	Source jsoniter.RawMessage `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []hit `json:"hits"`
	} `json:"hits"`
}

func (c *Client) Search(ctx context.Context, req search.Request) ([]content.Document, error) {
	body, err := json.Marshal(SearchBody(req))
	if err != nil {
		return nil, fmt.Errorf("encoding search body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/_search", c.baseURL, url.PathEscape(req.Index))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp searchResponse
	if _, err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}

	docs := make([]content.Document, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		doc, err := content.ParseSource(h.ID, h.Source)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (c *Client) Get(ctx context.Context, index, id string) (content.Document, error) {
	endpoint := fmt.Sprintf("%s/%s/_doc/%s", c.baseURL, url.PathEscape(index), url.PathEscape(id))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return content.Document{}, err
	}

	var h hit
	status, err := c.do(httpReq, &h)
	if status == http.StatusNotFound || (err == nil && h.Found != nil && !*h.Found) {
		return content.Document{}, fmt.Errorf("%w: document %s in index %s", search.ErrNotFound, id, index)
	}
	if err != nil {
		return content.Document{}, err
	}

	return content.ParseSource(h.ID, h.Source)
}

// do executes req and decodes a 2xx body into out. The status code is
// returned even when decoding fails.
func (c *Client) do(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}

	return resp.StatusCode, nil
}

// SearchBody renders req as an Elasticsearch search request body.
func SearchBody(req search.Request) map[string]any {
	return map[string]any{
		"query": Clause(req.Query),
		"sort": []any{
			map[string]any{req.SortField: map[string]any{"order": string(req.Order)}},
		},
		"size": req.Size,
	}
}

// Clause renders one query clause in the Elasticsearch query DSL.
func Clause(c search.Clause) map[string]any {
	switch c := c.(type) {
	case search.MatchAllClause:
		return map[string]any{"match_all": map[string]any{}}
	case search.Term:
		return map[string]any{"term": map[string]any{c.Field: c.Value}}
	case search.Range:
		return map[string]any{"range": map[string]any{c.Field: map[string]any{"gte": c.GTE}}}
	case search.Wrapper:
		return map[string]any{"wrapper": map[string]any{
			"query": base64.StdEncoding.EncodeToString([]byte(c.Query)),
		}}
	case search.Bool:
		b := map[string]any{}
		if len(c.Must) > 0 {
			b["must"] = clauses(c.Must)
		}
		if len(c.Filter) > 0 {
			b["filter"] = clauses(c.Filter)
		}
		return map[string]any{"bool": b}
	}

	return map[string]any{"match_none": map[string]any{}}
}

func clauses(cs []search.Clause) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		out = append(out, Clause(c))
	}
	return out
}
