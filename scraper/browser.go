package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"rental-scanner/config"
	"rental-scanner/utils"
)

// BrowserFetcher renders JavaScript-driven pages in headless Chrome and
// returns the resulting DOM. It is selected per source through
// SourceConfig.UseBrowser; the dispatcher remains agnostic to it.
type BrowserFetcher struct {
	logger    *utils.Logger
	userAgent string
	wait      time.Duration
	timeout   time.Duration
	execPath  string
}

// NewBrowserFetcher creates a BrowserFetcher from per-source configuration.
func NewBrowserFetcher(cfg config.SourceConfig, logger *utils.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		logger:    logger,
		userAgent: cfg.Agent(),
		wait:      cfg.Wait(),
		timeout:   cfg.Timeout(),
		execPath:  cfg.ChromeBin,
	}
}

// Fetch navigates to the target URL, waits for the page to render, scrolls
// to trigger lazy content, and returns the full document HTML.
func (f *BrowserFetcher) Fetch(ctx context.Context, target QueryTarget) (RawPayload, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.userAgent),
	)
	if bin := findChromeBinary(f.execPath); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout+f.wait)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(target.URL),
		chromedp.Sleep(f.wait),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: headless fetch: %s", ErrFetch, err)
	}

	f.logger.Debug("[browser] Rendered %s (%d bytes)", target.URL, len(html))
	return RawPayload(html), nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring an explicit
// configuration over PATH lookup and well-known install locations.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
