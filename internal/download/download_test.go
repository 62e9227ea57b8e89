// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

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

func testGuideline(sourceURL string) *types.Guideline {
	return &types.Guideline{
		SourceURL: sourceURL,
		FileName:  "050GER.pdf",
		Title:     "Guía de prueba",
		GuideID:   "IMSS-050-18",
		Family:    types.FamilyGER,
		LocalName: "IMSS-050-18_050GER.pdf",
	}
}

func TestDownloadWritesPDF(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 contenido"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	m := New(testFetcher(), types.DownloadConfig{OutputDir: dir}, zap.NewNop())

	outcome, err := m.Download(context.Background(), testGuideline(ts.URL+"/050GER.pdf"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDownloaded, outcome)

	data, err := os.ReadFile(filepath.Join(dir, "IMSS-050-18_050GER.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 contenido"), data)
}

func TestDownloadSkipsExistingWithoutNetwork(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("%PDF-1.4"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	g := testGuideline(ts.URL + "/050GER.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(dir, g.LocalName), []byte("%PDF-1.4 viejo"), 0o644))

	m := New(testFetcher(), types.DownloadConfig{OutputDir: dir}, zap.NewNop())
	outcome, err := m.Download(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "existing file must not trigger a request")

	// The existing file is left untouched.
	data, err := os.ReadFile(filepath.Join(dir, g.LocalName))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 viejo"), data)
}

func TestDownloadRejectsNonPDFPayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>página de error con estado 200</html>"))
	}))
	defer ts.Close()

	dir := t.TempDir()
	m := New(testFetcher(), types.DownloadConfig{OutputDir: dir}, zap.NewNop())

	outcome, err := m.Download(context.Background(), testGuideline(ts.URL+"/050GER.pdf"))
	assert.Equal(t, OutcomeFailed, outcome)
	require.ErrorIs(t, err, ErrInvalidContent)

	assertDirEmpty(t, dir)
}

func TestDownloadFetchFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	dir := t.TempDir()
	m := New(testFetcher(), types.DownloadConfig{OutputDir: dir}, zap.NewNop())

	outcome, err := m.Download(context.Background(), testGuideline(ts.URL+"/050GER.pdf"))
	assert.Equal(t, OutcomeFailed, outcome)

	var reqErr *fetch.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.Status)

	assertDirEmpty(t, dir)
}

// assertDirEmpty verifies no document or leftover temp file exists.
func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "downloaded", OutcomeDownloaded.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
