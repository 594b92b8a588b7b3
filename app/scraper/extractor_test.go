package scraper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lwestby/hilltally/app/portal"
)

// fakeBrowser replays canned HTML per URL and records the driven actions.
type fakeBrowser struct {
	pages      map[string]string
	currentURL string
	actions    []string
	waitErr    error
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	f.currentURL = url
	f.actions = append(f.actions, "navigate:"+url)
	return nil
}

func (f *fakeBrowser) SendKeys(ctx context.Context, selector, value string) error {
	f.actions = append(f.actions, "type:"+selector)
	return nil
}

func (f *fakeBrowser) Click(ctx context.Context, selector string) error {
	f.actions = append(f.actions, "click:"+selector)
	return nil
}

func (f *fakeBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return f.waitErr
}

func (f *fakeBrowser) HTML(ctx context.Context) (string, error) {
	return f.pages[f.currentURL], nil
}

func (f *fakeBrowser) Close() error { return nil }

func testPortal() *portal.Portal {
	return &portal.Portal{
		Info: portal.Info{
			ID:         "three_rivers",
			LoginURL:   "https://portal.test/login.html",
			HistoryURL: "https://portal.test/history.html",
			LogoutURL:  "https://portal.test/logout.html",
		},
		Selectors: portal.Selectors{
			Username:    `input[name="weblogin_username"]`,
			Password:    `input[name="weblogin_password"]`,
			Submit:      `button[type="submit"]`,
			LoginError:  ".page-message.message.error",
			HistoryRows: "table tbody tr",
			Logout:      `a[href*="logout"]`,
		},
		Markers: portal.Markers{SignedOut: "Sign In / Register"},
		// Zero settle delay keeps tests fast.
		Settings: portal.Settings{NavigationTimeout: 1, LoginTimeout: 1, TableTimeout: 1, SettleDelay: 0},
	}
}

const loggedInPage = `<html><body><nav>My Account</nav></body></html>`

const historyPage = `<html><body><table><tbody>
<tr><td>01/05/2026</td><td>09:15</td><td>Season Pass</td></tr>
<tr><td>not a date</td><td>10:00</td><td>Season Pass</td></tr>
<tr><td>1/6/2026</td><td></td><td></td></tr>
<tr><td colspan="3">No more records</td></tr>
<tr><td>12/28/2025</td><td>14:40</td><td>Day Pass</td></tr>
</tbody></table></body></html>`

func TestExtractor_Extract(t *testing.T) {
	browser := &fakeBrowser{pages: map[string]string{
		"https://portal.test/login.html":   loggedInPage,
		"https://portal.test/history.html": historyPage,
	}}

	visits, err := NewExtractor(browser, testPortal()).Extract(context.Background(), "user", "pass")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if len(visits) != 3 {
		t.Fatalf("Expected 3 visits, got %d", len(visits))
	}

	if visits[0].Date != "2026-01-05" || visits[0].Time != "09:15" || visits[0].PassType != "Season Pass" {
		t.Errorf("Unexpected first visit: %+v", visits[0])
	}
	// Single-digit month/day is zero-padded.
	if visits[1].Date != "2026-01-06" {
		t.Errorf("Expected 2026-01-06 for short-form date, got %q", visits[1].Date)
	}
	if visits[2].Date != "2025-12-28" {
		t.Errorf("Expected 2025-12-28, got %q", visits[2].Date)
	}
}

func TestExtractor_FillsCredentialsBeforeSubmit(t *testing.T) {
	browser := &fakeBrowser{pages: map[string]string{
		"https://portal.test/login.html":   loggedInPage,
		"https://portal.test/history.html": historyPage,
	}}

	if _, err := NewExtractor(browser, testPortal()).Extract(context.Background(), "user", "pass"); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	var submitIdx, typeCount int
	for i, action := range browser.actions {
		if strings.HasPrefix(action, "type:") {
			typeCount++
		}
		if action == `click:button[type="submit"]` {
			submitIdx = i
		}
	}
	if typeCount != 2 {
		t.Errorf("Expected both form fields to be filled, got %d type actions", typeCount)
	}
	if submitIdx < 2 {
		t.Errorf("Expected submit to come after filling fields, actions: %v", browser.actions)
	}
}

func TestExtractor_ExplicitLoginError(t *testing.T) {
	browser := &fakeBrowser{pages: map[string]string{
		"https://portal.test/login.html": `<html><body>
			<div class="page-message message error"> Invalid username or password. </div>
		</body></html>`,
	}}

	_, err := NewExtractor(browser, testPortal()).Extract(context.Background(), "user", "wrong")
	if err == nil {
		t.Fatal("Expected login error")
	}
	if !strings.Contains(err.Error(), "Invalid username or password") {
		t.Errorf("Expected scraped error text in message, got %q", err.Error())
	}

	// The history page must not be touched on a failed login.
	for _, action := range browser.actions {
		if action == "navigate:https://portal.test/history.html" {
			t.Error("Extractor navigated to history page despite failed login")
		}
	}
}

func TestExtractor_UndetectedLoginFailure(t *testing.T) {
	browser := &fakeBrowser{pages: map[string]string{
		"https://portal.test/login.html": `<html><body><a href="/login">Sign In / Register</a></body></html>`,
	}}

	_, err := NewExtractor(browser, testPortal()).Extract(context.Background(), "user", "pass")
	if err == nil {
		t.Fatal("Expected error when sign-in prompt is still present")
	}
	if !strings.Contains(err.Error(), "login verification failed") {
		t.Errorf("Expected login verification error, got %q", err.Error())
	}
}

func TestExtractor_TableTimeoutFailsExtraction(t *testing.T) {
	browser := &fakeBrowser{
		pages: map[string]string{
			"https://portal.test/login.html": loggedInPage,
		},
		waitErr: context.DeadlineExceeded,
	}

	_, err := NewExtractor(browser, testPortal()).Extract(context.Background(), "user", "pass")
	if err == nil {
		t.Fatal("Expected error when the history table never renders")
	}
	if !strings.Contains(err.Error(), "history table") {
		t.Errorf("Expected history table error, got %q", err.Error())
	}
}

func TestParseHistoryTable_MalformedRowsDropped(t *testing.T) {
	visits, err := ParseHistoryTable(historyPage, "table tbody tr")
	if err != nil {
		t.Fatalf("ParseHistoryTable returned error: %v", err)
	}

	if len(visits) != 3 {
		t.Errorf("Expected malformed rows to be skipped, got %d visits", len(visits))
	}
}

func TestParseHistoryTable_EmptyTable(t *testing.T) {
	visits, err := ParseHistoryTable("<html><body><table><tbody></tbody></table></body></html>", "table tbody tr")
	if err != nil {
		t.Fatalf("ParseHistoryTable returned error: %v", err)
	}
	if len(visits) != 0 {
		t.Errorf("Expected no visits for empty table, got %d", len(visits))
	}
}
