package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Recent Announcements</title>
    <item>
      <title>  AWS Lambda supports new memory size  </title>
      <link>https://aws.amazon.com/about-aws/whats-new/2026/01/lambda-memory/</link>
      <guid isPermaLink="false">g1</guid>
      <pubDate>Wed, 07 Jan 2026 18:00:00 +0000</pubDate>
      <category>general:products/aws-lambda</category>
      <category>  </category>
      <category>marketing:marchitecture/serverless</category>
    </item>
    <item>
      <title>Amazon S3 adds a thing</title>
      <link>https://aws.amazon.com/about-aws/whats-new/2026/01/s3-thing/</link>
      <pubDate>not a date at all</pubDate>
    </item>
    <item>
      <title>Untitled leftovers</title>
    </item>
  </channel>
</rss>`

func TestParseItems(t *testing.T) {
	t.Parallel()

	updates, err := Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}

	first := updates[0]
	if first.Title != "AWS Lambda supports new memory size" {
		t.Fatalf("title not trimmed: %q", first.Title)
	}
	if first.GUIDSource != "g1" {
		t.Fatalf("expected guid as identity seed, got %q", first.GUIDSource)
	}
	if len(first.RawCategories) != 2 {
		t.Fatalf("expected empty category skipped, got %v", first.RawCategories)
	}

	want := time.Date(2026, 1, 7, 18, 0, 0, 0, time.UTC)
	if !first.PublishedAt.Equal(want) {
		t.Fatalf("published at %v, want %v", first.PublishedAt, want)
	}
	if first.PublishedAt.Location() != time.UTC {
		t.Fatalf("published at not normalized to UTC")
	}
}

func TestParseGUIDFallback(t *testing.T) {
	t.Parallel()

	updates, err := Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}

	// No guid: fall back to link, then to title.
	if updates[1].GUIDSource != "https://aws.amazon.com/about-aws/whats-new/2026/01/s3-thing/" {
		t.Fatalf("expected link fallback, got %q", updates[1].GUIDSource)
	}
	if updates[2].GUIDSource != "Untitled leftovers" {
		t.Fatalf("expected title fallback, got %q", updates[2].GUIDSource)
	}
}

func TestParseBadDateFailsOpen(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC()
	updates, err := Parse([]byte(sampleFeed))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	after := time.Now().UTC()

	got := updates[1].PublishedAt
	if got.Before(before.Add(-time.Second)) || got.After(after.Add(time.Second)) {
		t.Fatalf("expected current instant substituted for bad date, got %v", got)
	}
}

func TestParseNamespacedRoot(t *testing.T) {
	t.Parallel()

	doc := `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns="http://purl.org/rss/1.0/">
	  <channel><item><title>Namespaced item</title></item></channel>
	</rdf:RDF>`

	updates, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if len(updates) != 1 || updates[0].Title != "Namespaced item" {
		t.Fatalf("expected one item from namespaced feed, got %v", updates)
	}
}

func TestParseMissingChannel(t *testing.T) {
	t.Parallel()

	updates, err := Parse([]byte(`<rss version="2.0"></rss>`))
	if err != nil {
		t.Fatalf("missing channel must not be fatal: %v", err)
	}
	if len(updates) != 0 {
		t.Fatalf("expected empty result, got %d items", len(updates))
	}
}

func TestParseMalformedXML(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte(`<rss><channel><item></rss>`)); err == nil {
		t.Fatal("expected hard error for malformed xml")
	}
}

func TestSourceFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client())
	updates, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch returned error: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}
}

func TestSourceFetchBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewSource(server.URL, server.Client())
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 feed response")
	}
}
