// Package history selects the slice of the historical window a payload
// may be compared against.
package history

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/internal/payload"
	"github.com/Alias1177/OracleGuard/models"
)

// Point is one normalized historical record with its effective timestamp.
type Point struct {
	Payload   models.Payload
	Timestamp int64 // unix ms
}

// Filter keeps only records matching the payload's declared type and
// lying within maxAge of now, sorted newest-first. An empty result is not
// an error. Records that fail to normalize or carry no timestamp are
// skipped.
func Filter(p models.Payload, records []models.HistoricalRecord, maxAge time.Duration, now time.Time) []Point {
	nowMs := now.UnixMilli()
	maxAgeMs := maxAge.Milliseconds()

	points := make([]Point, 0, len(records))
	for _, rec := range records {
		pl, err := payload.Normalize(rec.Data)
		if err != nil {
			log.Debug().Err(err).Msg("Skipping unparsable historical record")
			continue
		}
		if pl.TypeName() != p.TypeName() {
			continue
		}
		ts := rec.Timestamp
		if ts == 0 {
			ts = pl.UnixMillis()
		}
		if ts == 0 {
			continue
		}
		if nowMs-ts > maxAgeMs {
			continue
		}
		points = append(points, Point{Payload: pl, Timestamp: ts})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp > points[j].Timestamp
	})
	return points
}
