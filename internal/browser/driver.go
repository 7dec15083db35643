package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
)

// Config holds browser driver settings.
type Config struct {
	BaseURL     string
	Language    string
	WaitTimeout time.Duration
	ProfileDir  string
	Headless    bool
}

// Driver retrieves search result pages through a real browser session. The
// session is long-lived: one browser serves every term of every cycle until
// Close.
type Driver struct {
	cfg         Config
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger
}

// NewDriver starts the browser. A persistent profile directory keeps cookies
// and any manually solved challenge across runs.
func NewDriver(cfg Config, logger *slog.Logger) (*Driver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.ProfileDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Start the browser now so a broken installation fails at startup, not
	// mid-cycle.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Driver{
		cfg:         cfg,
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		logger:      logger.With("component", "browser"),
	}, nil
}

// Search navigates to the instance search page for the term, waits for post
// containers to appear within the configured timeout, and returns the page
// HTML. The wait selector must match at least one container.
func (d *Driver) Search(ctx context.Context, term, containerSelector string) (string, error) {
	searchURL := fmt.Sprintf("%s/search?f=tweets&q=%s&lang=%s",
		d.cfg.BaseURL, url.QueryEscape(term), d.cfg.Language)

	runCtx, cancel := context.WithTimeout(d.browserCtx, d.cfg.WaitTimeout)
	defer cancel()
	go func() {
		// Propagate caller cancellation into the chromedp context.
		select {
		case <-ctx.Done():
			cancel()
		case <-runCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitVisible(containerSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", term, err)
	}

	d.logger.Debug("search page loaded", "term", term, "bytes", len(html))
	return html, nil
}

// Close shuts the browser down.
func (d *Driver) Close() error {
	d.cancelCtx()
	d.cancelAlloc()
	return nil
}
