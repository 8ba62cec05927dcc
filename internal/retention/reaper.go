package retention

import (
	"context"
	"log"
	"time"

	"sensor-dashboard-backend/internal/store"
)

// Reaper deletes stale background readings. Measurement-attached readings
// are never touched, regardless of age: they live until their measurement
// is deleted.
type Reaper struct {
	store store.Store
}

// NewReaper creates a retention reaper.
func NewReaper(s store.Store) *Reaper {
	return &Reaper{store: s}
}

// Sweep re-reads the configured retention window and deletes all
// unattached readings older than now minus that window. Returns the
// number of rows removed. Idempotent and safe to run while the collector
// is writing: the two touch disjoint rows.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	cfg, err := r.store.HardwareConfig(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-cfg.RetentionWindow())
	removed, err := r.store.PurgeBackgroundReadings(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	log.Printf("Retention sweep removed %d background readings older than %s", removed, cutoff.Format(time.RFC3339))
	return removed, nil
}
