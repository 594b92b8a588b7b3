package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lwestby/hilltally/app/database"
	"github.com/lwestby/hilltally/app/season"
	"github.com/lwestby/hilltally/app/tasks"
	"github.com/lwestby/hilltally/app/vault"
)

type stubScheduler struct {
	enqueued []tasks.TaskInterface
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}
func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.enqueued = append(s.enqueued, task)
	return nil
}

func newTestServer(t *testing.T) (*gin.Engine, database.Store, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := database.NewMemoryStore()
	v := vault.New("test-secret")
	resolver := season.NewResolver(store.Seasons(), time.July)

	handler := NewHandler(store, v, resolver, nil, &stubScheduler{}, "three_rivers")
	handler.now = func() time.Time {
		return time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)
	}

	return NewServer(handler, "test-key"), store, handler
}

func seedSeason(t *testing.T, store database.Store, dates ...string) int64 {
	t.Helper()
	seasonID, err := store.Seasons().InsertSeason(database.Season{
		Name:      "2025/2026 Season",
		StartDate: "2025-07-01",
		Status:    database.SeasonStatusActive,
	})
	if err != nil {
		t.Fatalf("failed to insert season: %v", err)
	}
	for _, date := range dates {
		_, err := store.Visits().InsertVisitIfAbsent(database.Visit{
			SeasonID:  seasonID,
			VisitDate: date,
		})
		if err != nil {
			t.Fatalf("failed to insert visit: %v", err)
		}
	}
	return seasonID
}

func doRequest(server *gin.Engine, method, path, apiKey, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestGetHealth(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedSeason(t, store, "2026-01-10")

	w := doRequest(server, "GET", "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["active_season"] != "2025/2026 Season" {
		t.Errorf("expected active season in health response, got %v", body["active_season"])
	}
	if body["visits"] != float64(1) {
		t.Errorf("expected 1 visit, got %v", body["visits"])
	}
}

func TestGetStats(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedSeason(t, store, "2026-01-05", "2026-01-10", "2026-01-20")

	w := doRequest(server, "GET", "/stats", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["current_total"] != float64(3) {
		t.Errorf("expected current_total 3, got %v", body["current_total"])
	}
	if body["days_elapsed"] != float64(215) {
		t.Errorf("expected days_elapsed 215, got %v", body["days_elapsed"])
	}
	if _, ok := body["projection"]; !ok {
		t.Error("expected projection in stats response")
	}
}

func TestGetStatsNoActiveSeason(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := doRequest(server, "GET", "/stats", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 without an active season, got %d", w.Code)
	}
}

func TestGetStatsInvalidCustomEnd(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedSeason(t, store)

	w := doRequest(server, "GET", "/stats?custom_end=tomorrow", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad custom_end, got %d", w.Code)
	}
}

func TestGetWeeklyStats(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedSeason(t, store, "2026-01-05", "2026-01-07", "2026-01-12")

	w := doRequest(server, "GET", "/stats/weekly", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Weeks map[string]int `json:"weeks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body.Weeks["2026-01-04"] != 2 {
		t.Errorf("expected 2 visits in week of 2026-01-04, got %d", body.Weeks["2026-01-04"])
	}
	if body.Weeks["2026-01-11"] != 1 {
		t.Errorf("expected 1 visit in week of 2026-01-11, got %d", body.Weeks["2026-01-11"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedSeason(t, store)

	w := doRequest(server, "POST", "/api/visits", "", `{"visit_date":"2026-01-15"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without API key, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/visits", "wrong-key", `{"visit_date":"2026-01-15"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong API key, got %d", w.Code)
	}
}

func TestAPICreateVisit(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedSeason(t, store)

	w := doRequest(server, "POST", "/api/visits", "test-key", `{"visit_date":"2026-01-15","notes":"powder day"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(server, "POST", "/api/visits", "test-key", `{"visit_date":"2026-01-15","notes":"powder day"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate manual visit, got %d", w.Code)
	}
}

func TestAPICreateVisitInvalidDate(t *testing.T) {
	server, store, _ := newTestServer(t)
	seedSeason(t, store)

	w := doRequest(server, "POST", "/api/visits", "test-key", `{"visit_date":"01/15/2026"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-ISO date, got %d", w.Code)
	}
}

func TestAPIUpdateVisitNotFound(t *testing.T) {
	server, store, _ := newTestServer(t)
	seasonID := seedSeason(t, store, "2026-01-10")

	visits, err := store.Visits().GetVisitsBySeason(seasonID)
	if err != nil || len(visits) != 1 {
		t.Fatalf("failed to load seeded visit: %v", err)
	}

	w := doRequest(server, "PATCH", "/api/visits/999", "test-key", `{"notes":"x"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown visit, got %d", w.Code)
	}

	// Automated visits are immutable, so updating one by id must also 404.
	w = doRequest(server, "PATCH", fmt.Sprintf("/api/visits/%d", visits[0].ID), "test-key", `{"notes":"x"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for automated visit, got %d", w.Code)
	}
}

func TestAPICredentialRoundTrip(t *testing.T) {
	server, store, handler := newTestServer(t)

	w := doRequest(server, "GET", "/api/credentials", "test-key", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 with no credential, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/credentials", "test-key",
		`{"user_id":1,"username":"lena","password":"hunter2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	credential, err := store.Credentials().GetActiveCredential("three_rivers")
	if err != nil || credential == nil {
		t.Fatalf("expected stored credential, got %v (%v)", credential, err)
	}
	if credential.EncryptedUsername == "lena" {
		t.Error("username was stored in plaintext")
	}
	username, err := handler.vault.Decrypt(credential.EncryptedUsername)
	if err != nil || username != "lena" {
		t.Errorf("expected decryptable username 'lena', got %q (%v)", username, err)
	}

	w = doRequest(server, "GET", "/api/credentials", "test-key", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "hunter2") || strings.Contains(w.Body.String(), "lena") {
		t.Error("credential response leaked secrets")
	}
}

func TestAPISyncAutoEnqueuesTask(t *testing.T) {
	server, store, handler := newTestServer(t)

	scheduler := &stubScheduler{}
	handler.scheduler = scheduler

	w := doRequest(server, "POST", "/api/sync/auto", "test-key", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without credential, got %d", w.Code)
	}

	encrypted, err := handler.vault.Encrypt("lena")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	_, err = store.Credentials().UpsertCredential(database.Credential{
		UserID:            1,
		EncryptedUsername: encrypted,
		EncryptedPassword: encrypted,
		AccountType:       "three_rivers",
		IsActive:          true,
	})
	if err != nil {
		t.Fatalf("failed to insert credential: %v", err)
	}

	w = doRequest(server, "POST", "/api/sync/auto", "test-key", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(scheduler.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetType() != tasks.TaskTypeSyncVisits {
		t.Errorf("expected sync_visits task, got %s", scheduler.enqueued[0].GetType())
	}
}
