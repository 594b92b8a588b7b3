package season

import (
	"testing"
	"time"

	"github.com/lwestby/hilltally/app/database"
)

func date(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestResolver_InfoForDate_JulyBoundary(t *testing.T) {
	resolver := NewResolver(database.NewMemoryStore().Seasons(), time.July)

	tests := []struct {
		date      string
		startYear int
		name      string
		startDate string
	}{
		{"2025-06-30", 2024, "2024/2025 Season", "2024-07-01"},
		{"2025-07-01", 2025, "2025/2026 Season", "2025-07-01"},
		{"2025-12-15", 2025, "2025/2026 Season", "2025-07-01"},
		{"2026-03-20", 2025, "2025/2026 Season", "2025-07-01"},
	}

	for _, tt := range tests {
		info := resolver.InfoForDate(date(tt.date))
		if info.StartYear != tt.startYear {
			t.Errorf("InfoForDate(%s): expected start year %d, got %d", tt.date, tt.startYear, info.StartYear)
		}
		if info.Name != tt.name {
			t.Errorf("InfoForDate(%s): expected name %q, got %q", tt.date, tt.name, info.Name)
		}
		if info.StartDate != tt.startDate {
			t.Errorf("InfoForDate(%s): expected start date %q, got %q", tt.date, tt.startDate, info.StartDate)
		}
	}
}

func TestResolver_ResolveSeasonID_CreatesOnFirstUse(t *testing.T) {
	store := database.NewMemoryStore()
	resolver := NewResolver(store.Seasons(), time.July)

	id, err := resolver.ResolveSeasonID(date("2025-12-15"))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}

	created, err := store.Seasons().GetSeasonByID(id)
	if err != nil {
		t.Fatalf("GetSeasonByID returned error: %v", err)
	}
	if created == nil {
		t.Fatal("Expected season to be created")
	}
	if created.Name != "2025/2026 Season" {
		t.Errorf("Expected name 2025/2026 Season, got %q", created.Name)
	}
	if created.Status != database.SeasonStatusActive {
		t.Errorf("Expected new season to be active, got %q", created.Status)
	}
}

func TestResolver_ResolveSeasonID_Idempotent(t *testing.T) {
	store := database.NewMemoryStore()
	resolver := NewResolver(store.Seasons(), time.July)

	first, err := resolver.ResolveSeasonID(date("2025-12-15"))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}
	second, err := resolver.ResolveSeasonID(date("2026-01-10"))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}

	if first != second {
		t.Errorf("Expected same season id for dates in the same season, got %d and %d", first, second)
	}
}

func TestResolver_ResolveSeasonID_DoesNotReactivateCompleted(t *testing.T) {
	store := database.NewMemoryStore()
	resolver := NewResolver(store.Seasons(), time.July)

	id, err := resolver.ResolveSeasonID(date("2025-12-15"))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}
	if err := store.Seasons().SetActualEndDate(id, "2026-03-18"); err != nil {
		t.Fatalf("SetActualEndDate returned error: %v", err)
	}

	again, err := resolver.ResolveSeasonID(date("2026-02-01"))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}
	if again != id {
		t.Errorf("Expected completed season to be reused, got new id %d", again)
	}

	season, _ := store.Seasons().GetSeasonByID(id)
	if season.Status != database.SeasonStatusCompleted {
		t.Errorf("Expected season to stay completed, got %q", season.Status)
	}
}

func TestResolver_BoundaryStraddle(t *testing.T) {
	store := database.NewMemoryStore()
	resolver := NewResolver(store.Seasons(), time.July)

	before, err := resolver.ResolveSeasonID(date("2025-06-30"))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}
	after, err := resolver.ResolveSeasonID(date("2025-07-01"))
	if err != nil {
		t.Fatalf("ResolveSeasonID returned error: %v", err)
	}

	if before == after {
		t.Error("Expected dates on opposite sides of the boundary to resolve to different seasons")
	}
}
