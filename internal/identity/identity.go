package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"UpdatesScanner/internal/domain"
)

// updateIDLength truncates the SHA-1 digest to 16 hex characters. This
// shrinks the collision margin to a birthday bound around 2^32, which is
// an accepted trade for compact keys at weekly-digest item volumes.
const updateIDLength = 16

// UpdateID derives the stable identifier for a guid-source. The same
// input always yields the same id, so re-fetching the feed never creates
// duplicate records.
func UpdateID(guidSource string) string {
	sum := sha1.Sum([]byte(guidSource))
	return hex.EncodeToString(sum[:])[:updateIDLength]
}

// WeekKey labels the ISO-8601 week of the publication instant, e.g.
// "2026-W02". The year is the ISO week-numbering year, which differs
// from the calendar year near year boundaries.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// Derive computes both halves of the composite store key for an update.
func Derive(update domain.Update) domain.Identity {
	return domain.Identity{
		UpdateID: UpdateID(update.GUIDSource),
		WeekKey:  WeekKey(update.PublishedAt),
	}
}
