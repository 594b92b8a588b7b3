package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lwestby/hilltally/app/database"
	"github.com/lwestby/hilltally/app/scraper"
	"github.com/lwestby/hilltally/app/season"
)

// Reconciler persists freshly extracted visits, attributing each to its
// season and absorbing duplicate-key conflicts. Re-running the same batch is
// a no-op, which is what makes the whole ingestion path safe to retry.
type Reconciler struct {
	resolver *season.Resolver
	visits   database.VisitRepository
}

func NewReconciler(resolver *season.Resolver, visits database.VisitRepository) *Reconciler {
	return &Reconciler{resolver: resolver, visits: visits}
}

// Reconcile routes each raw visit through season resolution and an
// insert-if-absent write. found is the batch size; added counts confirmed
// new rows (duplicates are skipped silently, never counted, never fatal).
// A single batch may straddle a season boundary; records are routed
// independently.
func (r *Reconciler) Reconcile(ctx context.Context, raws []scraper.RawVisit) (found, added int, err error) {
	found = len(raws)

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return found, added, err
		}

		visitDate, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			// Extraction already normalizes dates; anything else is noise.
			slog.Warn("Skipping visit with unparseable date", "date", raw.Date)
			continue
		}

		seasonID, err := r.resolver.ResolveSeasonID(visitDate)
		if err != nil {
			return found, added, fmt.Errorf("failed to resolve season for %s: %w", raw.Date, err)
		}

		inserted, err := r.visits.InsertVisitIfAbsent(database.Visit{
			SeasonID:  seasonID,
			VisitDate: raw.Date,
			VisitTime: raw.Time,
			PassType:  raw.PassType,
			IsManual:  false,
		})
		if err != nil {
			return found, added, fmt.Errorf("failed to store visit %s: %w", raw.Date, err)
		}

		if inserted {
			added++
		}
	}

	return found, added, nil
}
