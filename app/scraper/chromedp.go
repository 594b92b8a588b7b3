package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeBrowser drives a headless Chrome session via chromedp.
type ChromeBrowser struct {
	allocCancel context.CancelFunc
	taskCancel  context.CancelFunc
	ctx         context.Context
}

var _ Browser = (*ChromeBrowser)(nil)

// NewChromeBrowser launches an isolated headless Chrome session. The session
// is tied to the parent context and torn down by Close.
func NewChromeBrowser(parent context.Context, userAgent string) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	// Start the browser process eagerly so launch failures surface here
	// instead of inside the first navigation.
	if err := chromedp.Run(taskCtx); err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &ChromeBrowser{
		allocCancel: allocCancel,
		taskCancel:  taskCancel,
		ctx:         taskCtx,
	}, nil
}

func (b *ChromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := b.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}

	return chromedp.Run(runCtx, actions...)
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := b.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (b *ChromeBrowser) SendKeys(ctx context.Context, selector, value string) error {
	if err := b.run(ctx, 30*time.Second, chromedp.SendKeys(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}
	return nil
}

func (b *ChromeBrowser) Click(ctx context.Context, selector string) error {
	if err := b.run(ctx, 30*time.Second, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

func (b *ChromeBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := b.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("timed out waiting for %s: %w", selector, err)
	}
	return nil
}

func (b *ChromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, 30*time.Second, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

func (b *ChromeBrowser) Close() error {
	b.taskCancel()
	b.allocCancel()
	return nil
}
