package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"UpdatesScanner/internal/domain"
)

// pubDate layouts tried in order; RSS 2.0 mandates RFC-2822 style dates
// but feeds are sloppy about weekday names and zone spelling.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC822Z,
	time.RFC822,
}

type rssDocument struct {
	// Root element name and namespace are deliberately ignored; some
	// syndicated feeds wrap the channel under a namespaced root.
	XMLName xml.Name
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title      string   `xml:"title"`
	Link       string   `xml:"link"`
	PubDate    string   `xml:"pubDate"`
	GUID       string   `xml:"guid"`
	Categories []string `xml:"category"`
}

// Parse turns a raw RSS 2.0 document into candidate updates, one per
// <item>, preserving document order. A document that is not well-formed
// XML fails the whole call; a well-formed document without a <channel>
// yields an empty slice.
func Parse(raw []byte) ([]domain.Update, error) {
	var doc rssDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse feed xml: %w", err)
	}

	if doc.Channel == nil {
		return nil, nil
	}

	updates := make([]domain.Update, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)

		guidSource := strings.TrimSpace(item.GUID)
		if guidSource == "" {
			guidSource = link
		}
		if guidSource == "" {
			guidSource = title
		}

		categories := make([]string, 0, len(item.Categories))
		for _, cat := range item.Categories {
			if trimmed := strings.TrimSpace(cat); trimmed != "" {
				categories = append(categories, trimmed)
			}
		}

		updates = append(updates, domain.Update{
			Title:         title,
			Link:          link,
			RawCategories: categories,
			PublishedAt:   parsePubDate(item.PubDate),
			GUIDSource:    guidSource,
		})
	}

	return updates, nil
}

// parsePubDate fails open: a malformed date never drops an otherwise
// valid announcement, the current instant is substituted instead.
func parsePubDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range pubDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	return time.Now().UTC()
}
