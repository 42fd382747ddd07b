package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"UpdatesScanner/internal/domain"
)

type fakeSource struct {
	updates []domain.Update
	err     error
}

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.Update, error) {
	return f.updates, f.err
}

type fakeStore struct {
	records map[string]domain.UpdateRecord
	putErr  map[string]error
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]domain.UpdateRecord{}, putErr: map[string]error{}}
}

func storeKey(weekKey, updateID string) string {
	return weekKey + "/" + updateID
}

func (f *fakeStore) Get(ctx context.Context, weekKey, updateID string) (*domain.UpdateRecord, error) {
	if record, ok := f.records[storeKey(weekKey, updateID)]; ok {
		copied := record
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) Put(ctx context.Context, record domain.UpdateRecord) error {
	key := storeKey(record.WeekKey, record.UpdateID)
	if err := f.putErr[key]; err != nil {
		return err
	}
	f.records[key] = record
	f.puts++
	return nil
}

func (f *fakeStore) ListWeek(ctx context.Context, weekKey string) ([]domain.UpdateRecord, error) {
	return nil, nil
}

func (f *fakeStore) Weeks(ctx context.Context) ([]string, error) {
	return nil, nil
}

type fakeSummarizer struct {
	text  string
	err   error
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, title, link, category string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeImageGen struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeImageGen) GenerateImage(ctx context.Context, title, category string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type fakeBlobs struct {
	objects      map[string][]byte
	cacheControl map[string]string
	err          error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, cacheControl: map[string]string{}}
}

func (f *fakeBlobs) PutObject(ctx context.Context, key string, data []byte, contentType, cacheControl string) error {
	if f.err != nil {
		return f.err
	}
	f.objects[key] = data
	f.cacheControl[key] = cacheControl
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lambdaUpdate() domain.Update {
	return domain.Update{
		Title:         "AWS Lambda supports new memory size",
		Link:          "https://aws.amazon.com/about-aws/whats-new/2026/01/lambda-memory/",
		RawCategories: []string{"general:products/aws-lambda"},
		PublishedAt:   time.Date(2026, 1, 7, 18, 0, 0, 0, time.UTC),
		GUIDSource:    "g1",
	}
}

func newTestPipeline(source *fakeSource, store *fakeStore, summarizer *fakeSummarizer, images *fakeImageGen, blobs *fakeBlobs) *Pipeline {
	deps := PipelineDeps{
		Source:          source,
		Store:           store,
		SiteBaseURL:     "https://acloudresume.com",
		GeneratedPrefix: "assets/generated/",
		SummaryEnabled:  true,
		Logger:          testLogger(),
	}
	if summarizer != nil {
		deps.Summarizer = summarizer
	}
	if images != nil {
		deps.Images = images
	}
	if blobs != nil {
		deps.Blobs = blobs
	}
	return NewPipeline(deps)
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	summarizer := &fakeSummarizer{text: "Lambda now supports X."}
	images := &fakeImageGen{data: []byte{0x89, 'P', 'N', 'G'}}
	blobs := newFakeBlobs()

	pipeline := newTestPipeline(&fakeSource{updates: []domain.Update{lambdaUpdate()}}, store, summarizer, images, blobs)

	count, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 upsert, got %d", count)
	}

	record, ok := store.records["2026-W02/a46e558d11cb2400"]
	if !ok {
		t.Fatalf("record not stored under expected identity: %v", store.records)
	}
	if record.Category != "Serverless" {
		t.Fatalf("expected Serverless, got %s", record.Category)
	}
	if record.Summary != "Lambda now supports X." {
		t.Fatalf("unexpected summary: %q", record.Summary)
	}
	if record.Source != domain.SourceTag {
		t.Fatalf("missing provenance tag: %q", record.Source)
	}

	wantKey := "assets/generated/2026-W02/a46e558d11cb2400.png"
	if record.ImageURL != "https://acloudresume.com/"+wantKey {
		t.Fatalf("unexpected image url: %s", record.ImageURL)
	}
	if _, ok := blobs.objects[wantKey]; !ok {
		t.Fatalf("image not uploaded under %s", wantKey)
	}
	if blobs.cacheControl[wantKey] != "public, max-age=31536000, immutable" {
		t.Fatalf("missing immutable cache directive: %s", blobs.cacheControl[wantKey])
	}
}

func TestRunIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	summarizer := &fakeSummarizer{text: "Lambda now supports X."}
	source := &fakeSource{updates: []domain.Update{lambdaUpdate()}}
	pipeline := newTestPipeline(source, store, summarizer, nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := pipeline.Run(context.Background()); err != nil {
			t.Fatalf("run %d returned error: %v", i, err)
		}
	}

	if len(store.records) != 1 {
		t.Fatalf("expected one record after two runs, got %d", len(store.records))
	}
	if summarizer.calls != 1 {
		t.Fatalf("summary regenerated: %d calls", summarizer.calls)
	}
}

func TestRunPreservesExistingSummary(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.records["2026-W02/a46e558d11cb2400"] = domain.UpdateRecord{
		WeekKey:  "2026-W02",
		UpdateID: "a46e558d11cb2400",
		Title:    "Old title",
		Category: "Other",
		Summary:  "The original blurb.",
	}

	summarizer := &fakeSummarizer{text: "A different blurb."}
	pipeline := newTestPipeline(&fakeSource{updates: []domain.Update{lambdaUpdate()}}, store, summarizer, nil, nil)

	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	record := store.records["2026-W02/a46e558d11cb2400"]
	if record.Summary != "The original blurb." {
		t.Fatalf("sticky summary overwritten: %q", record.Summary)
	}
	if summarizer.calls != 0 {
		t.Fatalf("summarizer should not run for existing summary: %d calls", summarizer.calls)
	}

	// Non-generated fields are always recomputed from the current pass.
	if record.Title != "AWS Lambda supports new memory size" || record.Category != "Serverless" {
		t.Fatalf("derived fields not refreshed: %+v", record)
	}
}

func TestRunEnrichmentFailsOpen(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	summarizer := &fakeSummarizer{err: errors.New("service unreachable")}
	images := &fakeImageGen{err: errors.New("service unreachable")}
	pipeline := newTestPipeline(&fakeSource{updates: []domain.Update{lambdaUpdate()}}, store, summarizer, images, newFakeBlobs())

	count, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("item dropped instead of failing open: count %d", count)
	}

	record := store.records["2026-W02/a46e558d11cb2400"]
	if record.Summary != "" || record.ImageURL != "" {
		t.Fatalf("expected empty generated fields, got %+v", record)
	}
}

func TestRunBlobFailureFailsOpen(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	images := &fakeImageGen{data: []byte{1}}
	blobs := newFakeBlobs()
	blobs.err = errors.New("bucket gone")
	pipeline := newTestPipeline(&fakeSource{updates: []domain.Update{lambdaUpdate()}}, store, nil, images, blobs)

	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if record := store.records["2026-W02/a46e558d11cb2400"]; record.ImageURL != "" {
		t.Fatalf("expected empty image url after upload failure, got %q", record.ImageURL)
	}
}

func TestRunSummaryDisabled(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	summarizer := &fakeSummarizer{text: "should never appear"}
	pipeline := NewPipeline(PipelineDeps{
		Source:         &fakeSource{updates: []domain.Update{lambdaUpdate()}},
		Store:          store,
		Summarizer:     summarizer,
		SummaryEnabled: false,
		Logger:         testLogger(),
	})

	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if summarizer.calls != 0 {
		t.Fatalf("summarizer invoked despite toggle: %d", summarizer.calls)
	}
	if record := store.records["2026-W02/a46e558d11cb2400"]; record.Summary != "" {
		t.Fatalf("expected empty summary, got %q", record.Summary)
	}
}

func TestRunEmptyFeed(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(&fakeSource{}, newFakeStore(), nil, nil, nil)

	count, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("empty feed must not error: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 upserts, got %d", count)
	}
}

func TestRunFetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	pipeline := newTestPipeline(&fakeSource{err: errors.New("timeout")}, newFakeStore(), nil, nil, nil)

	if _, err := pipeline.Run(context.Background()); err == nil {
		t.Fatal("expected fatal error for failed fetch")
	}
}

func TestRunBadItemDoesNotSinkBatch(t *testing.T) {
	t.Parallel()

	broken := lambdaUpdate()
	healthy := lambdaUpdate()
	healthy.GUIDSource = "g2"

	store := newFakeStore()
	store.putErr["2026-W02/a46e558d11cb2400"] = errors.New("conditional check failed")

	pipeline := newTestPipeline(&fakeSource{updates: []domain.Update{broken, healthy}}, store, nil, nil, nil)

	count, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected the healthy item upserted, got count %d", count)
	}
}

func TestRunTruncatesTags(t *testing.T) {
	t.Parallel()

	update := lambdaUpdate()
	update.RawCategories = nil
	for i := 0; i < 12; i++ {
		update.RawCategories = append(update.RawCategories, fmt.Sprintf("tag-%02d", i))
	}

	store := newFakeStore()
	pipeline := newTestPipeline(&fakeSource{updates: []domain.Update{update}}, store, nil, nil, nil)

	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	record := store.records["2026-W02/a46e558d11cb2400"]
	if len(record.Tags) != 8 {
		t.Fatalf("expected 8 tags, got %d", len(record.Tags))
	}
	if record.Tags[0] != "tag-00" || record.Tags[7] != "tag-07" {
		t.Fatalf("tag order not preserved: %v", record.Tags)
	}
}
