package scraper

import (
	"context"
	"time"
)

// Browser is the minimal automation surface the extractor drives. The
// chromedp implementation is used in production; tests substitute a fake.
type Browser interface {
	// Navigate loads a URL and waits for the document, bounded by timeout.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	// SendKeys types a value into the element matching the selector.
	SendKeys(ctx context.Context, selector, value string) error

	// Click clicks the first element matching the selector.
	Click(ctx context.Context, selector string) error

	// WaitVisible blocks until the selector matches a visible element or
	// the timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// HTML returns the current page's full HTML.
	HTML(ctx context.Context) (string, error)

	// Close tears down the browser session. A session is single-use: a
	// fresh ingestion attempt always launches a new one.
	Close() error
}

// BrowserFactory launches a fresh, isolated browser session.
type BrowserFactory func(ctx context.Context) (Browser, error)
