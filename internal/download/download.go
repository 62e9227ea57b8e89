// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download persists discovered guidelines to the output
// directory, skipping documents that already exist on disk.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/gpc-harvester/internal/fetch"
	"github.com/pdiddy/gpc-harvester/pkg/types"
)

// pdfMagic is the signature every PDF payload must start with. Responses
// without it (error pages served with HTTP 200, typically) are rejected
// before anything touches the disk.
var pdfMagic = []byte("%PDF-")

// ErrInvalidContent marks a payload that is not a PDF.
var ErrInvalidContent = errors.New("payload is not a PDF")

// Outcome is the result of processing one guideline.
type Outcome int

const (
	// OutcomeDownloaded means the file was fetched and written.
	OutcomeDownloaded Outcome = iota

	// OutcomeSkipped means the file already existed; no request was made.
	OutcomeSkipped

	// OutcomeFailed means the document could not be persisted.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Manager downloads individual guidelines through the shared fetcher.
type Manager struct {
	fetcher   *fetch.Fetcher
	outputDir string
	log       *zap.Logger
}

// New builds a Manager writing into cfg.OutputDir.
func New(fetcher *fetch.Fetcher, cfg types.DownloadConfig, log *zap.Logger) *Manager {
	return &Manager{fetcher: fetcher, outputDir: cfg.OutputDir, log: log}
}

// Path returns the destination path for a guideline.
func (m *Manager) Path(g *types.Guideline) string {
	return filepath.Join(m.outputDir, g.LocalName)
}

// Download processes one guideline. When the destination file already
// exists it returns OutcomeSkipped without any network call. Failures are
// returned alongside OutcomeFailed so the caller can record and continue;
// they never leave a partial file behind.
func (m *Manager) Download(ctx context.Context, g *types.Guideline) (Outcome, error) {
	dest := m.Path(g)

	if _, err := os.Stat(dest); err == nil {
		m.log.Info("skipping, already downloaded",
			zap.String("file", g.LocalName))
		return OutcomeSkipped, nil
	}

	res, err := m.fetcher.Get(ctx, g.SourceURL)
	if err != nil {
		m.log.Error("download failed",
			zap.String("file", g.LocalName),
			zap.String("url", g.SourceURL),
			zap.Error(err))
		return OutcomeFailed, err
	}

	if !bytes.HasPrefix(res.Body, pdfMagic) {
		err := fmt.Errorf("%w: %s served %q", ErrInvalidContent, g.SourceURL, res.ContentType)
		m.log.Error("download rejected",
			zap.String("file", g.LocalName),
			zap.String("content_type", res.ContentType),
			zap.Error(err))
		return OutcomeFailed, err
	}

	if err := writeFile(dest, res.Body); err != nil {
		m.log.Error("write failed",
			zap.String("file", g.LocalName),
			zap.Error(err))
		return OutcomeFailed, err
	}

	m.log.Info("downloaded",
		zap.String("file", g.LocalName),
		zap.String("guide_id", g.GuideID),
		zap.Int("bytes", len(res.Body)),
		zap.Int("attempts", res.Attempts))
	return OutcomeDownloaded, nil
}

// writeFile writes data to dest via a temp file in the same directory,
// renamed into place only once fully written and closed. Any failure
// removes the temp file so no truncated document is left behind.
func writeFile(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".harvest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
