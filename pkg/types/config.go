// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FetchConfig holds HTTP settings shared by listing and download requests.
type FetchConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request. The
	// source site serves different markup to non-browser agents, so the
	// default mimics a desktop browser.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxAttempts is the number of tries per request, first attempt
	// included (default 3). Only transport errors and 5xx responses
	// consume extra attempts.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BackoffBase is the wait before the second attempt; it doubles on
	// each further attempt (default 1s).
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base"`

	// BackoffCap bounds the backoff wait (default 30s).
	BackoffCap time.Duration `json:"backoff_cap" yaml:"backoff_cap"`

	// RequestGap is the minimum wait between any two outbound requests,
	// whatever their outcome (default 500ms).
	RequestGap time.Duration `json:"request_gap" yaml:"request_gap"`
}

// CrawlConfig holds settings for the listing crawl.
type CrawlConfig struct {
	// BaseURL is the guideline listing page.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxPages bounds the pagination walk so a malformed pager cannot
	// loop forever (default 200).
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	// OutputDir is the directory PDFs are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DownloadDelay is the extra wait between consecutive documents,
	// on top of the fetcher's request gap (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`
}

// CatalogConfig holds settings for the download catalog.
type CatalogConfig struct {
	// Dir is the directory holding catalog.db and export files.
	// Usually the same as DownloadConfig.OutputDir.
	Dir string `json:"dir" yaml:"dir"`
}

// LogConfig holds settings for the run log.
type LogConfig struct {
	// Level is the minimum severity: debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`

	// File is the log file path; every line also goes to the console.
	// Empty disables the file sink.
	File string `json:"file" yaml:"file"`
}

// HarvestConfig groups all stage configurations for one run.
type HarvestConfig struct {
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Crawl    CrawlConfig    `json:"crawl" yaml:"crawl"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog"`
	Log      LogConfig      `json:"log" yaml:"log"`
}
