// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl walks the paginated guideline listing and collects the
// set of GER documents to download.
package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pdiddy/gpc-harvester/internal/classify"
	"github.com/pdiddy/gpc-harvester/internal/fetch"
	"github.com/pdiddy/gpc-harvester/pkg/types"
)

// categoryParam pins the listing to the all-categories view; page numbers
// are zero-indexed on the source site.
const (
	categoryParam   = "field_categoria_gs_value"
	categoryAll     = "All"
	pageParam       = "page"
	defaultMaxPages = 200
)

// pageNumPattern pulls the page query value out of a pager href.
var pageNumPattern = regexp.MustCompile(`[?&]page=(\d+)`)

// Crawler walks listing pages in order, classifying every anchor.
type Crawler struct {
	fetcher *fetch.Fetcher
	cfg     types.CrawlConfig
	log     *zap.Logger
}

// New builds a Crawler over the given fetcher.
func New(fetcher *fetch.Fetcher, cfg types.CrawlConfig, log *zap.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	return &Crawler{fetcher: fetcher, cfg: cfg, log: log}
}

// Run fetches listing pages starting at page 0 until the pager shows no
// further pages or the page bound is reached. It returns discovered
// guidelines in discovery order, deduplicated by source URL. Only a
// failure on the first page is an error; later page failures are logged
// and skipped. Pages visited are counted into stats.
func (c *Crawler) Run(ctx context.Context, stats *types.RunStats) ([]*types.Guideline, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", c.cfg.BaseURL, err)
	}

	seen := make(map[string]bool)
	var found []*types.Guideline

	for page := 0; ; page++ {
		if page >= c.cfg.MaxPages {
			// The site cannot tell us "last page" apart from a broken
			// pager, so the bound is the only guard against looping.
			c.log.Warn("page safety bound reached, stopping crawl",
				zap.Int("max_pages", c.cfg.MaxPages))
			break
		}

		pageURL := listingURL(base, page)
		res, err := c.fetcher.Get(ctx, pageURL)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("fetching first listing page: %w", err)
			}
			if ctx.Err() != nil {
				return found, ctx.Err()
			}
			// The next page URL is computable from the numbering
			// scheme, so a single bad page does not end the crawl.
			c.log.Error("listing page failed, skipping",
				zap.Int("page", page), zap.Error(err))
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
		if err != nil {
			c.log.Error("listing page unparsable, skipping",
				zap.Int("page", page), zap.Error(err))
			continue
		}

		stats.PagesVisited++
		added := c.collect(doc, base, seen, &found)
		c.log.Info("listing page scanned",
			zap.Int("page", page),
			zap.Int("new_documents", added),
			zap.Int("total_documents", len(found)))

		if !hasNextPage(doc, page) {
			c.log.Info("pagination exhausted",
				zap.Int("pages_visited", stats.PagesVisited))
			break
		}
	}

	return found, nil
}

// collect classifies every anchor on the page, appending newly seen GER
// documents to found. It returns the number added.
func (c *Crawler) collect(doc *goquery.Document, base *url.URL, seen map[string]bool, found *[]*types.Guideline) int {
	added := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		abs := absoluteURL(base, href)
		if abs == "" {
			return
		}
		g, ok := classify.Classify(abs, sel.Text())
		if !ok || seen[g.SourceURL] {
			return
		}
		seen[g.SourceURL] = true
		*found = append(*found, g)
		added++
	})
	return added
}

// absoluteURL resolves href against the listing base. Fragments, mailto
// links, and unparsable hrefs resolve to "".
func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
		return ""
	}
	rel, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(rel).String()
}

// hasNextPage inspects the pager for evidence of a page beyond the
// current one: an explicit next link, or any pager href whose page
// number is larger. A missing or unreadable pager means end of crawl.
func hasNextPage(doc *goquery.Document, current int) bool {
	if doc.Find("ul.pager li.pager-next a[href]").Length() > 0 {
		return true
	}

	next := false
	doc.Find("ul.pager a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if m := pageNumPattern.FindStringSubmatch(href); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > current {
				next = true
				return false
			}
		}
		return true
	})
	return next
}

// listingURL builds the URL for one zero-indexed listing page.
func listingURL(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	q.Set(categoryParam, categoryAll)
	q.Set(pageParam, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
