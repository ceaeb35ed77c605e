// Package feed downloads Atom/RSS feeds and flattens their entries.
package feed

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

const maxBodySize = 5 * 1024 * 1024

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Entry is a feed item reduced to the fields the alert pipeline reads.
type Entry struct {
	Title           string
	Link            string
	Updated         string
	UpdatedParsed   *time.Time
	Published       string
	PublishedParsed *time.Time
	// GeoPoint is the raw georss:point text, "lat lon [extra...]".
	GeoPoint  string
	Magnitude string
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client HTTPClient
	parser *gofeed.Parser
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client: client,
		parser: gofeed.NewParser(),
	}
}

// Fetch downloads and parses a feed from the given URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "QuakeBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return parsed, nil
}

// Entries fetches url and returns its items in document order.
func (f *Fetcher) Entries(ctx context.Context, url string) ([]Entry, error) {
	parsed, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, EntryFromItem(item))
	}
	return entries, nil
}

// EntryFromItem flattens a parsed feed item.
func EntryFromItem(item *gofeed.Item) Entry {
	e := Entry{
		Title:           item.Title,
		Link:            item.Link,
		Updated:         item.Updated,
		UpdatedParsed:   item.UpdatedParsed,
		Published:       item.Published,
		PublishedParsed: item.PublishedParsed,
		GeoPoint:        extensionValue(item.Extensions, "georss", "point"),
		Magnitude:       anyExtensionValue(item.Extensions, "magnitude"),
	}
	if e.Link == "" {
		for _, l := range item.Links {
			if l != "" {
				e.Link = l
				break
			}
		}
	}
	return e
}

func extensionValue(exts ext.Extensions, prefix, name string) string {
	for _, x := range exts[prefix][name] {
		if x.Value != "" {
			return x.Value
		}
	}
	return ""
}

// anyExtensionValue looks for name under every namespace prefix, in prefix
// order.
func anyExtensionValue(exts ext.Extensions, name string) string {
	for _, prefix := range slices.Sorted(maps.Keys(exts)) {
		if v := extensionValue(exts, prefix, name); v != "" {
			return v
		}
	}
	return ""
}
