package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lwestby/hilltally/app/portal"
)

// RawVisit is one badge-in row as extracted from the portal's history table.
// Date is normalized to YYYY-MM-DD; Time and PassType are passed through
// as-is and may be empty.
type RawVisit struct {
	Date     string
	Time     string
	PassType string
}

var dateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)

// Extractor authenticates against a badge-in portal and extracts the visit
// history table. One Extractor owns one browser session; a retry launches a
// fresh session through the factory instead of reusing this one.
type Extractor struct {
	browser Browser
	portal  *portal.Portal
}

func NewExtractor(browser Browser, p *portal.Portal) *Extractor {
	return &Extractor{browser: browser, portal: p}
}

// Extract logs in, verifies the session, and returns the visit rows found on
// the history page. The returned slice is bounded by one page load; it is
// not a resumable stream.
func (e *Extractor) Extract(ctx context.Context, username, password string) ([]RawVisit, error) {
	if err := e.login(ctx, username, password); err != nil {
		return nil, err
	}

	visits, err := e.extractHistory(ctx)
	if err != nil {
		return nil, err
	}

	e.logout(ctx)

	return visits, nil
}

func (e *Extractor) login(ctx context.Context, username, password string) error {
	s := e.portal.Settings

	err := e.browser.Navigate(ctx, e.portal.Info.LoginURL, time.Duration(s.LoginTimeout)*time.Second)
	if err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}

	if err := e.browser.SendKeys(ctx, e.portal.Selectors.Username, username); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := e.browser.SendKeys(ctx, e.portal.Selectors.Password, password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}

	if err := e.browser.Click(ctx, e.portal.Selectors.Submit); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	// The portal redirects and sets cookies at its own pace; this settle
	// wait is best-effort, not a correctness guarantee.
	e.settle(ctx, time.Duration(s.SettleDelay)*time.Second)

	return e.verifyLogin(ctx)
}

// verifyLogin inspects the post-submit page. An explicit error element fails
// fast with the portal's own message; a lingering sign-in prompt is treated
// as an undetected login failure. Extraction never proceeds on an ambiguous
// login state.
func (e *Extractor) verifyLogin(ctx context.Context) error {
	html, err := e.browser.HTML(ctx)
	if err != nil {
		return fmt.Errorf("failed to read page after login: %w", err)
	}

	if sel := e.portal.Selectors.LoginError; sel != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return fmt.Errorf("failed to parse page after login: %w", err)
		}
		if errorEl := doc.Find(sel); errorEl.Length() > 0 {
			return fmt.Errorf("login failed: %s", strings.TrimSpace(errorEl.First().Text()))
		}
	}

	if marker := e.portal.Markers.SignedOut; marker != "" && strings.Contains(html, marker) {
		return fmt.Errorf("login verification failed: %q still present", marker)
	}

	return nil
}

func (e *Extractor) extractHistory(ctx context.Context) ([]RawVisit, error) {
	s := e.portal.Settings

	err := e.browser.Navigate(ctx, e.portal.Info.HistoryURL, time.Duration(s.NavigationTimeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to open history page: %w", err)
	}

	err = e.browser.WaitVisible(ctx, e.portal.Selectors.HistoryRows, time.Duration(s.TableTimeout)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("history table did not render: %w", err)
	}

	html, err := e.browser.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history page: %w", err)
	}

	return ParseHistoryTable(html, e.portal.Selectors.HistoryRows)
}

// ParseHistoryTable maps table rows positionally to (date, time, pass type).
// Rows whose date cell does not contain an MM/DD/YYYY date are dropped
// without failing the extraction.
func ParseHistoryTable(html, rowSelector string) ([]RawVisit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse history page: %w", err)
	}

	var visits []RawVisit
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		match := dateRe.FindStringSubmatch(strings.TrimSpace(cells.Eq(0).Text()))
		if match == nil {
			return
		}
		month, day, year := match[1], match[2], match[3]
		if len(month) == 1 {
			month = "0" + month
		}
		if len(day) == 1 {
			day = "0" + day
		}

		visits = append(visits, RawVisit{
			Date:     year + "-" + month + "-" + day,
			Time:     strings.TrimSpace(cells.Eq(1).Text()),
			PassType: strings.TrimSpace(cells.Eq(2).Text()),
		})
	})

	return visits, nil
}

// logout is best-effort cleanup: try the logout control, fall back to the
// logout URL, and only log failures. A failed logout never fails the run.
func (e *Extractor) logout(ctx context.Context) {
	if sel := e.portal.Selectors.Logout; sel != "" {
		if err := e.browser.Click(ctx, sel); err == nil {
			return
		}
	}

	if url := e.portal.Info.LogoutURL; url != "" {
		err := e.browser.Navigate(ctx, url, time.Duration(e.portal.Settings.NavigationTimeout)*time.Second)
		if err != nil {
			slog.Warn("Portal logout failed", "portal", e.portal.Info.ID, "error", err)
		}
		return
	}

	slog.Warn("Portal logout failed, no logout selector or url configured", "portal", e.portal.Info.ID)
}

func (e *Extractor) settle(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}
