package domain

import "time"

// SourceTag marks every record this pipeline writes; the read API exposes
// it so consumers can tell provenance apart when other feeds are added.
const SourceTag = "aws-whats-new"

// Update is a candidate item extracted from the feed before enrichment.
type Update struct {
	Title         string
	Link          string
	RawCategories []string
	PublishedAt   time.Time
	GUIDSource    string
}

// Identity addresses one update inside the weekly-partitioned store.
type Identity struct {
	UpdateID string
	WeekKey  string
}

// UpdateRecord is the persisted shape, keyed by (WeekKey, UpdateID).
// Summary and ImageURL are generated once and kept; the rest is
// recomputed from the feed on every pass.
type UpdateRecord struct {
	WeekKey     string    `json:"weekKey"`
	UpdateID    string    `json:"updateId"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"publishedAt"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags"`
	Summary     string    `json:"summary"`
	ImageURL    string    `json:"imageUrl"`
	Source      string    `json:"source"`
}
