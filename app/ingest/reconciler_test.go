package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/lwestby/hilltally/app/database"
	"github.com/lwestby/hilltally/app/scraper"
	"github.com/lwestby/hilltally/app/season"
)

func newTestReconciler() (*Reconciler, *database.MemoryStore) {
	store := database.NewMemoryStore()
	resolver := season.NewResolver(store.Seasons(), time.July)
	return NewReconciler(resolver, store.Visits()), store
}

func TestReconciler_Reconcile(t *testing.T) {
	reconciler, store := newTestReconciler()

	raws := []scraper.RawVisit{
		{Date: "2026-01-05", Time: "09:15", PassType: "Season Pass"},
		{Date: "2026-01-06", Time: "10:30", PassType: "Season Pass"},
		{Date: "2026-01-06", Time: "15:00", PassType: "Season Pass"},
	}

	found, added, err := reconciler.Reconcile(context.Background(), raws)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	if found != 3 {
		t.Errorf("Expected found=3, got %d", found)
	}
	if added != 3 {
		t.Errorf("Expected added=3, got %d", added)
	}

	active, _ := store.Seasons().GetActiveSeason()
	if active == nil {
		t.Fatal("Expected a season to be created")
	}
	count, _ := store.Visits().GetVisitCount(active.ID)
	if count != 3 {
		t.Errorf("Expected 3 stored visits, got %d", count)
	}
}

func TestReconciler_Idempotent(t *testing.T) {
	reconciler, store := newTestReconciler()

	raws := []scraper.RawVisit{
		{Date: "2026-01-05", Time: "09:15", PassType: "Season Pass"},
		{Date: "2026-01-12", Time: "11:00", PassType: "Season Pass"},
	}

	if _, _, err := reconciler.Reconcile(context.Background(), raws); err != nil {
		t.Fatalf("first Reconcile returned error: %v", err)
	}

	found, added, err := reconciler.Reconcile(context.Background(), raws)
	if err != nil {
		t.Fatalf("second Reconcile returned error: %v", err)
	}

	if found != 2 {
		t.Errorf("Expected found=2 on second run, got %d", found)
	}
	if added != 0 {
		t.Errorf("Expected added=0 on second run, got %d", added)
	}

	active, _ := store.Seasons().GetActiveSeason()
	count, _ := store.Visits().GetVisitCount(active.ID)
	if count != 2 {
		t.Errorf("Expected 2 stored visits after re-run, got %d", count)
	}
}

func TestReconciler_DuplicatesWithinBatch(t *testing.T) {
	reconciler, _ := newTestReconciler()

	raws := []scraper.RawVisit{
		{Date: "2026-01-05", Time: "09:15", PassType: "Season Pass"},
		{Date: "2026-01-05", Time: "09:15", PassType: "Season Pass"},
	}

	found, added, err := reconciler.Reconcile(context.Background(), raws)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if found != 2 || added != 1 {
		t.Errorf("Expected found=2 added=1, got found=%d added=%d", found, added)
	}
}

func TestReconciler_BatchStraddlingSeasonBoundary(t *testing.T) {
	reconciler, store := newTestReconciler()

	raws := []scraper.RawVisit{
		{Date: "2025-06-30", Time: "09:00"},
		{Date: "2025-07-01", Time: "09:00"},
	}

	found, added, err := reconciler.Reconcile(context.Background(), raws)
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if found != 2 || added != 2 {
		t.Errorf("Expected found=2 added=2, got found=%d added=%d", found, added)
	}

	older, _ := store.Seasons().GetSeasonByName("2024/2025 Season")
	newer, _ := store.Seasons().GetSeasonByName("2025/2026 Season")
	if older == nil || newer == nil {
		t.Fatal("Expected both seasons to exist after straddling batch")
	}

	olderCount, _ := store.Visits().GetVisitCount(older.ID)
	newerCount, _ := store.Visits().GetVisitCount(newer.ID)
	if olderCount != 1 || newerCount != 1 {
		t.Errorf("Expected one visit per season, got %d and %d", olderCount, newerCount)
	}
}

func TestReconciler_ManualVisitDoesNotCollide(t *testing.T) {
	reconciler, store := newTestReconciler()

	// A user-entered visit on the same date/time must not block ingestion.
	resolver := season.NewResolver(store.Seasons(), time.July)
	seasonID, err := resolver.ResolveSeasonID(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}
	if _, err := store.Visits().InsertVisitIfAbsent(database.Visit{
		SeasonID: seasonID, VisitDate: "2026-01-05", VisitTime: "09:15", IsManual: true,
	}); err != nil {
		t.Fatalf("InsertVisitIfAbsent returned error: %v", err)
	}

	_, added, err := reconciler.Reconcile(context.Background(), []scraper.RawVisit{
		{Date: "2026-01-05", Time: "09:15", PassType: "Season Pass"},
	})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected scraped visit to insert alongside manual one, added=%d", added)
	}
}
