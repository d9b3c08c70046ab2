package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"fipe-garimpo/utils"
)

// BrowserFetcher renders pages in headless Chrome before returning their
// markup. It is used when the index page only fills its listing grid from
// client-side scripts.
type BrowserFetcher struct {
	chromeBin string
	userAgent string
	settle    time.Duration
	logger    *utils.Logger
}

// NewBrowserFetcher creates a BrowserFetcher. An empty chromeBin triggers
// discovery through PATH and common install locations.
func NewBrowserFetcher(chromeBin, userAgent string, settle time.Duration, logger *utils.Logger) *BrowserFetcher {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &BrowserFetcher{
		chromeBin: chromeBin,
		userAgent: userAgent,
		settle:    settle,
		logger:    logger,
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if f.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.userAgent))
	}
	if f.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(f.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(f.logger.Debug))
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.settle),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(f.settle/2),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp fetch %s: %w", url, err)
	}
	return []byte(html), nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
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
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
