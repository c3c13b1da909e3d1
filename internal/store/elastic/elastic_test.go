package elastic_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jgraeger/contentfeeds/internal/content"
	"github.com/jgraeger/contentfeeds/internal/search"
	"github.com/jgraeger/contentfeeds/internal/store/elastic"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchResponse = `{
	"took": 3,
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"hits": [
			{"_index": "news", "_id": "n2", "_source": {"title": {"en": "Second"}, "createdAt": "2024-02-01T00:00:00Z"}},
			{"_index": "news", "_id": "n1", "_source": {"title": {"en": "First"}, "createdAt": 1704067200000,
				"gbifRegion": ["EUROPE", "AFRICA"], "images": [{"file": "a.png"}]}}
		]
	}
}`

func TestSearch(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, searchResponse)
	}))
	defer srv.Close()

	client := elastic.New(srv.URL+"/", srv.Client())
	docs, err := client.Search(context.Background(), search.Compose(search.Query{
		Index:     "news",
		Filter:    search.Term{Field: search.RegionField, Value: "AFRICA"},
		SortField: search.CreatedAtField,
	}))
	require.NoError(t, err)

	assert.Equal(t, "/news/_search", gotPath)
	require.Len(t, docs, 2)
	assert.Equal(t, "n2", docs[0].ID)
	assert.Equal(t, "n1", docs[1].ID)
	title, ok := docs[0].Field("title").Localized("en")
	assert.True(t, ok)
	assert.Equal(t, "Second", title)

	assert.Equal(t, content.KindList, docs[1].Field("gbifRegion").Kind(), "array fields do not fail the search")
	assert.Len(t, docs[1].Field("images").Items(), 1)
	created, ok, err := content.DateField(docs[1], search.CreatedAtField)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(created))

	assert.EqualValues(t, 10, gotBody["size"])
	assert.Equal(t, []any{map[string]any{"createdAt": map[string]any{"order": "desc"}}}, gotBody["sort"])
	boolQuery := gotBody["query"].(map[string]any)["bool"].(map[string]any)
	assert.Equal(t, []any{map[string]any{"match_all": map[string]any{}}}, boolQuery["must"])
	assert.Equal(t, []any{
		map[string]any{"term": map[string]any{"searchable": true}},
		map[string]any{"term": map[string]any{"gbifRegion": "AFRICA"}},
	}, boolQuery["filter"])
}

func TestSearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"cluster_block_exception"}`)
	}))
	defer srv.Close()

	executor := search.NewExecutor(elastic.New(srv.URL, srv.Client()))
	_, err := executor.Execute(context.Background(), search.Query{Index: "news", SortField: search.CreatedAtField})
	assert.ErrorIs(t, err, search.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "cluster_block_exception")
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/event/_doc/e1":
			_, _ = io.WriteString(w, `{"_index":"event","_id":"e1","found":true,"_source":{"title":{"en":"Congress"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"_index":"event","_id":"missing","found":false}`)
		}
	}))
	defer srv.Close()

	client := elastic.New(srv.URL, srv.Client())
	doc, err := client.Get(context.Background(), "event", "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", doc.ID)

	_, err = client.Get(context.Background(), "event", "missing")
	assert.ErrorIs(t, err, search.ErrNotFound)
}

func TestClause(t *testing.T) {
	testCases := []struct {
		name     string
		clause   search.Clause
		expected map[string]any
	}{
		{
			name:     "Upcoming events range",
			clause:   search.UpcomingEvents,
			expected: map[string]any{"range": map[string]any{"start": map[string]any{"gte": "now/d"}}},
		},
		{
			name:   "Wrapper is base64 encoded",
			clause: search.Wrapper{Query: `{"match_all":{}}`},
			expected: map[string]any{"wrapper": map[string]any{
				"query": base64.StdEncoding.EncodeToString([]byte(`{"match_all":{}}`)),
			}},
		},
		{
			name:   "Bool without must",
			clause: search.Bool{Filter: []search.Clause{search.Searchable}},
			expected: map[string]any{"bool": map[string]any{
				"filter": []any{map[string]any{"term": map[string]any{"searchable": true}}},
			}},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, elastic.Clause(tc.clause))
		})
	}
}
