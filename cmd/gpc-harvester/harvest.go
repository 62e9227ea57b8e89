// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/gpc-harvester/internal/catalog"
	"github.com/pdiddy/gpc-harvester/internal/crawl"
	"github.com/pdiddy/gpc-harvester/internal/download"
	"github.com/pdiddy/gpc-harvester/internal/fetch"
	"github.com/pdiddy/gpc-harvester/internal/harvest"
	"github.com/pdiddy/gpc-harvester/internal/logging"
	"github.com/pdiddy/gpc-harvester/pkg/types"
)

// Defaults match the constants the original operators ran with.
const (
	defaultBaseURL       = "https://www.imss.gob.mx/guias_practicaclinica"
	defaultOutputDir     = "imss_pdfs"
	defaultLogFile       = "harvest.log"
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultTimeout       = 60 * time.Second
	defaultRequestGap    = 500 * time.Millisecond
	defaultDownloadDelay = 1 * time.Second
	defaultMaxAttempts   = 3
	defaultBackoffBase   = 1 * time.Second
	defaultBackoffCap    = 30 * time.Second
	defaultMaxPages      = 200
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Crawl the guideline listing and download all GER PDFs",
	Long: `Harvest walks every page of the guideline listing, collects links to
comprehensive (GER) guideline PDFs, and downloads each one into the output
directory. Documents already on disk are skipped without a network request.
Individual download failures are counted and reported but do not fail the
run; only an unreachable listing or an uncreatable output directory does.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("base-url", "", "guideline listing URL")
	harvestCmd.Flags().String("output-dir", "", "directory for downloaded PDFs")
	harvestCmd.Flags().String("log-file", "", "log file path")
	harvestCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	harvestCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	harvestCmd.Flags().Duration("request-gap", 0, "minimum gap between any two requests (default 500ms)")
	harvestCmd.Flags().Int("max-pages", 0, "listing page safety bound (default 200)")
	harvestCmd.Flags().Int("max-attempts", 0, "attempts per request (default 3)")
	harvestCmd.Flags().Bool("no-catalog", false, "skip recording downloads in the catalog")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg := harvestConfig(cmd)

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	// An uncreatable output directory is fatal before any crawling.
	if err := os.MkdirAll(cfg.Download.OutputDir, 0o755); err != nil {
		logger.Error("cannot create output directory",
			zap.String("dir", cfg.Download.OutputDir), zap.Error(err))
		return fmt.Errorf("creating output directory: %w", err)
	}

	var store *catalog.Store
	if noCatalog, _ := cmd.Flags().GetBool("no-catalog"); !noCatalog {
		store, err = catalog.NewStore(cfg.Catalog)
		if err != nil {
			logger.Warn("catalog unavailable, continuing without it", zap.Error(err))
		} else {
			defer store.Close()
		}
	}

	fetcher := fetch.New(cfg.Fetch, logger)
	crawler := crawl.New(fetcher, cfg.Crawl, logger)
	manager := download.New(fetcher, cfg.Download, logger)
	runner := harvest.New(crawler, manager, store, cfg.Download.DownloadDelay, logger)

	stats, err := runner.Run(cmd.Context())
	if err != nil {
		logger.Error("harvest aborted", zap.Error(err))
		return err
	}

	// Per-item failures are recorded in stats, never in the exit code.
	fmt.Fprintf(os.Stdout, "Harvest summary: %d pages, %d found, %d downloaded, %d skipped, %d failed\n",
		stats.PagesVisited, stats.DocumentsFound, stats.Downloaded, stats.Skipped, stats.Failed)
	return nil
}

// harvestConfig resolves each setting from flag, then config file or
// environment, then the built-in default.
func harvestConfig(cmd *cobra.Command) types.HarvestConfig {
	outputDir := stringSetting(cmd, "output-dir", "download.output_dir", defaultOutputDir)

	return types.HarvestConfig{
		Fetch: types.FetchConfig{
			Timeout:     durationSetting(cmd, "timeout", "fetch.timeout", defaultTimeout),
			UserAgent:   viperString("fetch.user_agent", defaultUserAgent),
			MaxAttempts: intSetting(cmd, "max-attempts", "fetch.max_attempts", defaultMaxAttempts),
			BackoffBase: viperDuration("fetch.backoff_base", defaultBackoffBase),
			BackoffCap:  viperDuration("fetch.backoff_cap", defaultBackoffCap),
			RequestGap:  durationSetting(cmd, "request-gap", "fetch.request_gap", defaultRequestGap),
		},
		Crawl: types.CrawlConfig{
			BaseURL:  stringSetting(cmd, "base-url", "crawl.base_url", defaultBaseURL),
			MaxPages: intSetting(cmd, "max-pages", "crawl.max_pages", defaultMaxPages),
		},
		Download: types.DownloadConfig{
			OutputDir:     outputDir,
			DownloadDelay: durationSetting(cmd, "delay", "download.delay", defaultDownloadDelay),
		},
		Catalog: types.CatalogConfig{Dir: outputDir},
		Log: types.LogConfig{
			Level: viperString("log.level", "info"),
			File:  stringSetting(cmd, "log-file", "log.file", defaultLogFile),
		},
	}
}

func stringSetting(cmd *cobra.Command, flag, key, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return viperString(key, fallback)
}

func durationSetting(cmd *cobra.Command, flag, key string, fallback time.Duration) time.Duration {
	if v, _ := cmd.Flags().GetDuration(flag); v != 0 {
		return v
	}
	return viperDuration(key, fallback)
}

func intSetting(cmd *cobra.Command, flag, key string, fallback int) int {
	if v, _ := cmd.Flags().GetInt(flag); v != 0 {
		return v
	}
	if v := viper.GetInt(key); v != 0 {
		return v
	}
	return fallback
}

func viperString(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func viperDuration(key string, fallback time.Duration) time.Duration {
	if v := viper.GetDuration(key); v != 0 {
		return v
	}
	return fallback
}
