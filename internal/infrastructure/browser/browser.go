package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"

	"tiktok_ingest/config"
	"tiktok_ingest/internal/domain"
	"tiktok_ingest/internal/logger"
)

// Handle owns a single shared headless browser process. The process is
// launched lazily on the first Page call and reused for every operation
// afterwards; each operation gets its own tab. Concurrent tab count is
// bounded by a semaphore to avoid resource exhaustion.
type Handle struct {
	mu sync.Mutex

	headless  bool
	execPath  string
	userAgent string

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	started       bool

	tabSem chan struct{}
}

// New creates an unstarted browser handle.
func New(cfg *config.Config) *Handle {
	maxPages := cfg.ScraperMaxPages
	if maxPages <= 0 {
		maxPages = 4
	}
	return &Handle{
		headless:  cfg.ScraperHeadless,
		execPath:  cfg.ScraperExecPath,
		userAgent: cfg.ScraperUserAgent,
		tabSem:    make(chan struct{}, maxPages),
	}
}

// Page returns a context bound to a fresh browser tab plus a release
// function that closes the tab and frees its semaphore slot. The supplied
// ctx only governs the wait for a free tab slot; callers apply their own
// deadline to the returned context.
func (h *Handle) Page(ctx context.Context) (context.Context, context.CancelFunc, error) {
	select {
	case h.tabSem <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	if err := h.ensureStarted(); err != nil {
		<-h.tabSem
		return nil, nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(h.browserCtx)

	var once sync.Once
	release := func() {
		once.Do(func() {
			tabCancel()
			<-h.tabSem
		})
	}
	return tabCtx, release, nil
}

// ensureStarted launches the browser process exactly once.
func (h *Handle) ensureStarted() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", h.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
		chromedp.UserAgent(h.userAgent),
	)
	if h.execPath != "" {
		opts = append(opts, chromedp.ExecPath(h.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Force the process to launch now so failures surface here, classified,
	// instead of inside the first scrape.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return classifyLaunchError(err)
	}

	h.allocCtx = allocCtx
	h.allocCancel = allocCancel
	h.browserCtx = browserCtx
	h.browserCancel = browserCancel
	h.started = true
	logger.Info().Println("Headless browser started")
	return nil
}

// Shutdown closes the browser process if it was started.
func (h *Handle) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}
	h.browserCancel()
	h.allocCancel()
	h.started = false
	logger.Info().Println("Headless browser stopped")
}

// classifyLaunchError maps known launch failure modes to actionable
// messages. All variants wrap domain.ErrBrowserLaunch.
func classifyLaunchError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "executable file not found"):
		return fmt.Errorf("%w: no chrome/chromium binary found; install one or set scraper.exec_path in config.yaml (%v)", domain.ErrBrowserLaunch, err)
	case strings.Contains(msg, "permission denied") || strings.Contains(msg, "operation not permitted"):
		return fmt.Errorf("%w: browser binary is not executable or sandboxing is blocked by the host (%v)", domain.ErrBrowserLaunch, err)
	case strings.Contains(msg, "error while loading shared libraries"):
		return fmt.Errorf("%w: chrome is missing system libraries; install its runtime dependencies (%v)", domain.ErrBrowserLaunch, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrBrowserLaunch, err)
	}
}
