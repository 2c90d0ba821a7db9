package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-sniper/internal/domain"
)

func TestHTTPSource_Search(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"rows":[{"id":"x1","title":"Raf Simons tee","price":"¥8,000"}]}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL)
	rows, err := src.Search(context.Background(), Query{
		Keyword:     "raf simons",
		Page:        2,
		Sort:        domain.SortNewest,
		MaxPriceYen: 100000,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x1", rows[0].ID)

	assert.Contains(t, gotQuery, "q=raf+simons")
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "sort=new")
	assert.Contains(t, gotQuery, "max_price=100000")
}

func TestHTTPSource_RetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithSourceRetries(1))
	src.retryDelay = 0

	_, err := src.Search(context.Background(), Query{Keyword: "kw", Page: 1, Sort: domain.SortNewest})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "initial attempt plus one retry")
}

func TestHTTPSource_RecoversOnRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"rows":[]}`))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, WithSourceRetries(2))
	src.retryDelay = 0

	rows, err := src.Search(context.Background(), Query{Keyword: "kw", Page: 1, Sort: domain.SortNewest})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
