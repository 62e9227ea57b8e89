// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pdiddy/gpc-harvester/internal/fetch"
	"github.com/pdiddy/gpc-harvester/pkg/types"
)

func testFetcher() *fetch.Fetcher {
	return fetch.New(types.FetchConfig{
		Timeout:     5 * time.Second,
		UserAgent:   "harvester-test/0.1",
		MaxAttempts: 2,
		BackoffBase: 1 * time.Millisecond,
		BackoffCap:  2 * time.Millisecond,
	}, zap.NewNop())
}

const pageZero = `<html><body>
<div class="views-row">
  <a href="/sites/guiasclinicas/050GER.pdf">Guía de Evidencias IMSS-050-18</a>
  <a href="/sites/guiasclinicas/050GRR.pdf">Guía de Referencia Rápida</a>
  <a href="/guias_practicaclinica/detalle">Ver detalle</a>
</div>
<ul class="pager">
  <li class="pager-current">1</li>
  <li class="pager-next"><a href="?field_categoria_gs_value=All&amp;page=1">siguiente</a></li>
</ul>
</body></html>`

const pageOne = `<html><body>
<div class="views-row">
  <a href="/sites/guiasclinicas/050GER.pdf">Guía de Evidencias IMSS-050-18</a>
  <a href="/sites/guiasclinicas/123GER.pdf">Otra guía IMSS-123-20</a>
</div>
<ul class="pager">
  <li><a href="?field_categoria_gs_value=All&amp;page=0">anterior</a></li>
</ul>
</body></html>`

func listingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "0":
			fmt.Fprint(w, pageZero)
		case "1":
			fmt.Fprint(w, pageOne)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRunCollectsAndDeduplicates(t *testing.T) {
	ts := listingServer(t)
	defer ts.Close()

	c := New(testFetcher(), types.CrawlConfig{BaseURL: ts.URL, MaxPages: 10}, zap.NewNop())

	var stats types.RunStats
	found, err := c.Run(context.Background(), &stats)
	require.NoError(t, err)

	require.Len(t, found, 2, "one GER per distinct URL; GRR and html excluded, duplicate collapsed")
	assert.Equal(t, 2, stats.PagesVisited)

	// Discovery order: page 0 first, then page 1.
	assert.Equal(t, ts.URL+"/sites/guiasclinicas/050GER.pdf", found[0].SourceURL)
	assert.Equal(t, "IMSS-050-18", found[0].GuideID)
	assert.Equal(t, ts.URL+"/sites/guiasclinicas/123GER.pdf", found[1].SourceURL)
	assert.Equal(t, "IMSS-123-20", found[1].GuideID)
}

func TestRunFirstPageUnreachableIsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := New(testFetcher(), types.CrawlConfig{BaseURL: ts.URL, MaxPages: 10}, zap.NewNop())

	var stats types.RunStats
	_, err := c.Run(context.Background(), &stats)
	require.Error(t, err)
	assert.Equal(t, 0, stats.PagesVisited)
}

func TestRunSkipsFailedMiddlePage(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "0":
			// Pager points beyond the failing page.
			fmt.Fprint(w, `<html><body>
<a href="/g/001GER.pdf">IMSS-001-18</a>
<ul class="pager"><li><a href="?page=2">3</a></li></ul>
</body></html>`)
		case "1":
			w.WriteHeader(http.StatusInternalServerError)
		case "2":
			fmt.Fprint(w, `<html><body>
<a href="/g/002GER.pdf">IMSS-002-18</a>
<ul class="pager"></ul>
</body></html>`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
	ts := httptest.NewServer(http.HandlerFunc(handler))
	defer ts.Close()

	c := New(testFetcher(), types.CrawlConfig{BaseURL: ts.URL, MaxPages: 10}, zap.NewNop())

	var stats types.RunStats
	found, err := c.Run(context.Background(), &stats)
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, 2, stats.PagesVisited, "failed page is not counted as visited")
}

func TestRunStopsAtSafetyBound(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		// Every page claims there is another one.
		fmt.Fprintf(w, `<html><body>
<a href="/g/%03dGER.pdf">guía</a>
<ul class="pager"><li class="pager-next"><a href="?page=%d">siguiente</a></li></ul>
</body></html>`, n, n)
	}))
	defer ts.Close()

	c := New(testFetcher(), types.CrawlConfig{BaseURL: ts.URL, MaxPages: 3}, zap.NewNop())

	var stats types.RunStats
	found, err := c.Run(context.Background(), &stats)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.PagesVisited)
	assert.Len(t, found, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHasNextPage(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		current int
		want    bool
	}{
		{"next link", `<ul class="pager"><li class="pager-next"><a href="?page=5">n</a></li></ul>`, 4, true},
		{"higher page number", `<ul class="pager"><li><a href="?page=7">8</a></li></ul>`, 4, true},
		{"only previous", `<ul class="pager"><li><a href="?page=3">4</a></li></ul>`, 4, false},
		{"no pager", `<div>sin paginación</div>`, 0, false},
		{"empty pager", `<ul class="pager"></ul>`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseHTML(t, tt.html)
			assert.Equal(t, tt.want, hasNextPage(doc, tt.current))
		})
	}
}

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}
