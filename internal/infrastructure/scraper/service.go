package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/domain"
	"tiktok_ingest/internal/infrastructure/browser"
	"tiktok_ingest/internal/logger"
)

// maxSearchResults caps a single search regardless of the requested limit.
const maxSearchResults = 50

// resultSelectors is the fallback chain for result cards. The listing
// markup changes frequently; selectors are tried in order and the first
// one matching at least one element wins.
var resultSelectors = []string{
	`[data-e2e="search-card-video"]`,
	`[data-e2e="search_top-item"]`,
	`div[data-e2e="search-card"]`,
	`div[class*="DivItemContainer"]`,
	`a[href*="/video/"]`,
}

// Service is the extraction engine. It drives tabs on the shared browser
// handle; it never synthesizes data on failure.
type Service struct {
	browser *browser.Handle

	navigationTimeout time.Duration
	selectorTimeout   time.Duration
	extractTimeout    time.Duration
	scrollPasses      int
	scrollWait        time.Duration
}

// NewService creates the extraction engine on top of a browser handle.
func NewService(cfg *config.Config, handle *browser.Handle) *Service {
	return &Service{
		browser:           handle,
		navigationTimeout: cfg.NavigationTimeout,
		selectorTimeout:   cfg.SelectorTimeout,
		extractTimeout:    cfg.ExtractTimeout,
		scrollPasses:      cfg.ScraperScrollPasses,
		scrollWait:        cfg.ScrollWait,
	}
}

// resultCard is the raw per-card payload collected in the page. Parsing
// into typed values happens on the Go side so it stays unit-testable.
type resultCard struct {
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Handle    string `json:"handle"`
	Caption   string `json:"caption"`
	Views     string `json:"views"`
}

// Search enumerates up to limit videos from a keyword or hashtag listing.
// Fails with ErrExtraction when no result elements are found with any
// selector or when no element survives per-element extraction.
func (s *Service) Search(ctx context.Context, mode domain.SearchMode, query string, limit int) ([]domain.VideoRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrExtraction)
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > maxSearchResults {
		limit = maxSearchResults
	}

	var listURL string
	switch mode {
	case domain.SearchModeHashtag:
		listURL = "https://www.tiktok.com/tag/" + url.PathEscape(query)
	default:
		listURL = "https://www.tiktok.com/search?q=" + url.QueryEscape(query)
	}

	page, release, err := s.browser.Page(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tctx, cancel := context.WithTimeout(page, s.extractTimeout)
	defer cancel()

	logger.Info().Printf("Scraping %s results for %q from %s", mode, query, listURL)

	if err := chromedp.Run(tctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(realisticHeaders()),
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(listURL),
		chromedp.Sleep(3*time.Second),
	); err != nil {
		return nil, fmt.Errorf("%w: navigate to %s: %v", domain.ErrExtraction, listURL, err)
	}

	selector, count, err := s.waitForResults(tctx)
	if err != nil {
		return nil, err
	}
	logger.Info().Printf("Found %d result elements with selector %q", count, selector)

	// Scroll-and-wait cycles trigger lazy-loaded pagination. Fixed sleeps
	// on purpose: load completion on this page is not reliably detectable.
	for i := 0; i < s.scrollPasses; i++ {
		if err := chromedp.Run(tctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(s.scrollWait),
		); err != nil {
			return nil, fmt.Errorf("%w: scroll pass %d: %v", domain.ErrExtraction, i+1, err)
		}
	}

	var cards []resultCard
	if err := chromedp.Run(tctx, chromedp.Evaluate(collectCardsJS(selector, limit), &cards)); err != nil {
		return nil, fmt.Errorf("%w: collect result cards: %v", domain.ErrExtraction, err)
	}

	records := buildRecords(cards, limit)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no videos survived element extraction for %q", domain.ErrExtraction, query)
	}

	logger.Info().Printf("Scraped %d videos for %q", len(records), query)
	return records, nil
}

// ExtractByURL loads a single video page and maps its embedded state JSON
// into a VideoRecord.
func (s *Service) ExtractByURL(ctx context.Context, videoURL string) (*domain.VideoRecord, error) {
	externalID := ExtractVideoID(videoURL)
	if externalID == "" && !IsShortLink(videoURL) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, videoURL)
	}

	page, release, err := s.browser.Page(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	tctx, cancel := context.WithTimeout(page, s.navigationTimeout)
	defer cancel()

	var location string
	if err := chromedp.Run(tctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(realisticHeaders()),
		chromedp.EmulateViewport(1920, 1080),
		chromedp.Navigate(videoURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Location(&location),
	); err != nil {
		return nil, fmt.Errorf("%w: navigate to %s: %v", domain.ErrPageData, videoURL, err)
	}

	if externalID == "" {
		// Short link: the id lives in the canonical URL after the redirect.
		externalID = ExtractVideoID(location)
		if externalID == "" {
			return nil, fmt.Errorf("%w: short link did not resolve to a video page (%s)", domain.ErrInvalidURL, location)
		}
	}

	item, err := s.readStateBlob(tctx, externalID)
	if err != nil {
		return nil, err
	}

	record := mapItem(item, externalID, videoURL)
	// The id parsed from the URL is authoritative.
	record.ExternalID = externalID
	return &record, nil
}

// buildRecords converts collected cards into records, skipping cards
// without a recognizable video permalink and stopping at limit.
func buildRecords(cards []resultCard, limit int) []domain.VideoRecord {
	now := time.Now()
	records := make([]domain.VideoRecord, 0, len(cards))
	for _, card := range cards {
		if !strings.Contains(card.Link, "/video/") {
			continue
		}
		id := ExtractVideoID(card.Link)
		if id == "" {
			continue
		}
		handle := strings.TrimPrefix(strings.TrimSpace(card.Handle), "@")
		records = append(records, domain.VideoRecord{
			ExternalID:   id,
			SourceURL:    card.Link,
			ThumbnailURL: card.Thumbnail,
			Caption:      strings.TrimSpace(card.Caption),
			Creator: domain.Creator{
				Handle:      handle,
				DisplayName: handle,
			},
			Audio: domain.AudioTrack{
				Title:  "Original Sound",
				Artist: handle,
			},
			Engagement: domain.Engagement{
				Views: ParseViewCount(card.Views),
			},
			CapturedAt: now,
		})
		if len(records) >= limit {
			break
		}
	}
	return records
}

// waitForResults walks the selector fallback chain until one yields
// elements.
func (s *Service) waitForResults(ctx context.Context) (string, int, error) {
	for _, sel := range resultSelectors {
		count, err := s.pollSelector(ctx, sel)
		if err != nil {
			return "", 0, fmt.Errorf("%w: wait for result elements: %v", domain.ErrExtraction, err)
		}
		if count > 0 {
			return sel, count, nil
		}
		logger.Warn().Printf("Selector %q matched no elements", sel)
	}
	return "", 0, fmt.Errorf("%w: no result elements found with any selector", domain.ErrExtraction)
}

// pollSelector counts matches for sel, retrying until the per-selector
// timeout elapses. A zero count after the timeout is not an error; the
// caller moves on to the next selector.
func (s *Service) pollSelector(ctx context.Context, sel string) (int, error) {
	expr := fmt.Sprintf(`document.querySelectorAll(%q).length`, sel)
	deadline := time.Now().Add(s.selectorTimeout)
	for {
		var count int
		if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &count)); err != nil {
			return 0, err
		}
		if count > 0 || time.Now().After(deadline) {
			return count, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// readStateBlob returns the decoded video item from whichever embedded
// state blob the page carries, preferring the rehydration blob.
func (s *Service) readStateBlob(ctx context.Context, videoID string) (*videoItem, error) {
	readScript := func(scriptID string) (string, error) {
		var content string
		expr := fmt.Sprintf(`(() => { const el = document.getElementById(%q); return el ? el.textContent : ''; })()`, scriptID)
		if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &content)); err != nil {
			return "", err
		}
		return content, nil
	}

	universal, err := readScript(universalDataScriptID)
	if err != nil {
		return nil, fmt.Errorf("%w: read page state: %v", domain.ErrPageData, err)
	}
	if strings.TrimSpace(universal) != "" {
		item, decodeErr := decodeUniversalData([]byte(universal))
		if decodeErr == nil {
			return item, nil
		}
		logger.Warn().Printf("Rehydration blob unusable, trying fallback: %v", decodeErr)
	}

	sigi, err := readScript(sigiStateScriptID)
	if err != nil {
		return nil, fmt.Errorf("%w: read page state: %v", domain.ErrPageData, err)
	}
	if strings.TrimSpace(sigi) != "" {
		item, decodeErr := decodeSigiState([]byte(sigi), videoID)
		if decodeErr == nil {
			return item, nil
		}
		logger.Warn().Printf("Sigi blob unusable: %v", decodeErr)
	}

	return nil, fmt.Errorf("%w: no embedded state blob found on page", domain.ErrPageData)
}

// realisticHeaders mirrors a desktop browser to reduce anti-bot friction.
func realisticHeaders() network.Headers {
	return network.Headers{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"DNT":                       "1",
		"Upgrade-Insecure-Requests": "1",
	}
}

// collectCardsJS builds the in-page collection script. Per-field selector
// fallbacks live inside the script; any field it cannot resolve comes back
// empty and defaults on the Go side.
func collectCardsJS(selector string, limit int) string {
	return fmt.Sprintf(`(() => {
	const pick = (el, selectors) => {
		for (const s of selectors) {
			const n = el.querySelector(s);
			if (n && n.textContent) return n.textContent.trim();
		}
		return '';
	};
	const cards = Array.from(document.querySelectorAll(%q)).slice(0, %d);
	return cards.map(el => {
		let link = '';
		const a = el.querySelector('a[href*="/video/"]') || el.closest('a') || (el.tagName === 'A' ? el : null);
		if (a && a.href) link = a.href;
		let thumbnail = '';
		for (const img of el.querySelectorAll('img')) {
			if (img.src && (img.src.includes('tiktok') || img.src.includes('p16-sign'))) { thumbnail = img.src; break; }
		}
		const handle = pick(el, ['[data-e2e="search-card-user-unique-id"]', 'p[data-e2e="search-card-user-unique-id"]', 'a[href*="/@"]', 'span[class*="username"]']);
		const caption = pick(el, ['[data-e2e="search-card-desc"]', 'div[class*="caption"]', 'div[class*="description"]']);
		const views = pick(el, ['[data-e2e="video-views"]', 'strong[data-e2e="video-views"]', 'div[class*="views"]']);
		return {link, thumbnail, handle, caption, views};
	});
})()`, selector, limit)
}
