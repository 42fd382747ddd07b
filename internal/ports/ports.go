package ports

import (
	"context"
	"time"

	"UpdatesScanner/internal/domain"
)

// FeedSource pulls the current set of announcement items from upstream.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.Update, error)
}

// UpdateStore persists enriched records partitioned by ISO week.
type UpdateStore interface {
	Get(ctx context.Context, weekKey, updateID string) (*domain.UpdateRecord, error)
	Put(ctx context.Context, record domain.UpdateRecord) error
	ListWeek(ctx context.Context, weekKey string) ([]domain.UpdateRecord, error)
	Weeks(ctx context.Context) ([]string, error)
}

// Summarizer generates a short factual blurb for one update.
type Summarizer interface {
	Summarize(ctx context.Context, title, link, category string) (string, error)
}

// ImageGenerator renders an illustrative image for one update.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, title, category string) ([]byte, error)
}

// BlobStore writes generated assets to public object storage.
type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType, cacheControl string) error
}

// Scheduler controls when pipeline invocations execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
