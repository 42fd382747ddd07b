package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"UpdatesScanner/internal/classify"
	"UpdatesScanner/internal/domain"
	"UpdatesScanner/internal/identity"
	"UpdatesScanner/internal/ports"
)

const (
	// maxStoredTags caps feed-supplied tags per record, order preserved.
	maxStoredTags = 8

	imageContentType  = "image/png"
	imageCacheControl = "public, max-age=31536000, immutable"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source     ports.FeedSource
	Store      ports.UpdateStore
	Summarizer ports.Summarizer
	Images     ports.ImageGenerator
	Blobs      ports.BlobStore

	SiteBaseURL     string
	GeneratedPrefix string
	SummaryEnabled  bool

	Logger *slog.Logger
}

// Pipeline implements the fetch → parse → classify → enrich → upsert
// workflow. It keeps no state of its own between invocations; all
// convergence comes from the store's existing-value-wins merge.
type Pipeline struct {
	source     ports.FeedSource
	store      ports.UpdateStore
	summarizer ports.Summarizer
	images     ports.ImageGenerator
	blobs      ports.BlobStore

	siteBaseURL     string
	generatedPrefix string
	summaryEnabled  bool

	logger *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		source:          deps.Source,
		store:           deps.Store,
		summarizer:      deps.Summarizer,
		images:          deps.Images,
		blobs:           deps.Blobs,
		siteBaseURL:     deps.SiteBaseURL,
		generatedPrefix: deps.GeneratedPrefix,
		summaryEnabled:  deps.SummaryEnabled,
		logger:          logger,
	}
}

// Run performs one pipeline invocation and returns the number of records
// upserted. A fetch or parse failure aborts the whole invocation; a
// failure on one item is logged and the loop continues with the next.
func (p *Pipeline) Run(ctx context.Context) (int, error) {
	if p.source == nil || p.store == nil {
		return 0, fmt.Errorf("pipeline missing feed source or store")
	}

	updates, err := p.source.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch feed: %w", err)
	}

	p.logger.Info("feed fetched", "items", len(updates))

	upserts := 0
	for _, update := range updates {
		if err := p.upsert(ctx, update); err != nil {
			p.logger.Error("skip item", "title", update.Title, "error", err)
			continue
		}
		upserts++
	}

	p.logger.Info("pipeline done", "upserts", upserts)
	return upserts, nil
}

// upsert merges one classified update with its stored record. Freshly
// derived fields always win; generated fields are sticky: an existing
// non-empty summary or image URL is never regenerated.
func (p *Pipeline) upsert(ctx context.Context, update domain.Update) error {
	category := classify.Category(update.Title, update.RawCategories)
	id := identity.Derive(update)

	existing, err := p.store.Get(ctx, id.WeekKey, id.UpdateID)
	if err != nil {
		return fmt.Errorf("read existing record: %w", err)
	}

	var summary, imageURL string
	if existing != nil {
		summary = existing.Summary
		imageURL = existing.ImageURL
	}

	if summary == "" {
		summary = p.generateSummary(ctx, update, category)
	}
	if imageURL == "" {
		imageURL = p.generateImage(ctx, update, category, id)
	}

	tags := update.RawCategories
	if len(tags) > maxStoredTags {
		tags = tags[:maxStoredTags]
	}

	record := domain.UpdateRecord{
		WeekKey:     id.WeekKey,
		UpdateID:    id.UpdateID,
		Title:       update.Title,
		Link:        update.Link,
		PublishedAt: update.PublishedAt,
		Category:    category,
		Tags:        tags,
		Summary:     summary,
		ImageURL:    imageURL,
		Source:      domain.SourceTag,
	}

	if err := p.store.Put(ctx, record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// generateSummary fails open: any generation error resolves to "" and the
// record is still written. An empty summary is terminal for this run; a
// later invocation re-attempts only because the field is still empty.
func (p *Pipeline) generateSummary(ctx context.Context, update domain.Update, category string) string {
	if !p.summaryEnabled || p.summarizer == nil {
		return ""
	}

	summary, err := p.summarizer.Summarize(ctx, update.Title, update.Link, category)
	if err != nil {
		p.logger.Debug("summary generation failed open", "title", update.Title, "error", err)
		return ""
	}
	return summary
}

// generateImage renders, uploads, and links the illustration for one
// identity. Every step fails open to an empty URL.
func (p *Pipeline) generateImage(ctx context.Context, update domain.Update, category string, id domain.Identity) string {
	if p.images == nil || p.blobs == nil {
		return ""
	}

	data, err := p.images.GenerateImage(ctx, update.Title, category)
	if err != nil {
		p.logger.Debug("image generation failed open", "title", update.Title, "error", err)
		return ""
	}

	key := fmt.Sprintf("%s%s/%s.png", p.generatedPrefix, id.WeekKey, id.UpdateID)
	if err := p.blobs.PutObject(ctx, key, data, imageContentType, imageCacheControl); err != nil {
		p.logger.Debug("image upload failed open", "key", key, "error", err)
		return ""
	}

	return fmt.Sprintf("%s/%s", p.siteBaseURL, key)
}
