// Package quake turns raw feed entries into alert events.
package quake

import (
	"regexp"
	"strings"
	"time"

	"quake_bot/internal/feed"
	"quake_bot/internal/model"
)

const (
	unknownTitle     = "Unknown Earthquake"
	unknownMagnitude = "N/A"
)

var titleMagnitude = regexp.MustCompile(`(?i)M(?:agnitude)?\s*(\d+\.\d+)`)

// Latest returns the head of the feed. USGS lists events newest origin first;
// the updated time tracks revisions and does not order events.
func Latest(entries []feed.Entry) (feed.Entry, bool) {
	if len(entries) == 0 {
		return feed.Entry{}, false
	}
	return entries[0], true
}

// Normalize builds the event for category from a single entry. now is used
// when the entry carries no timestamp at all.
func Normalize(category model.Category, e feed.Entry, now time.Time) model.Event {
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = unknownTitle
	}

	stamp := e.Updated
	if stamp == "" {
		stamp = e.Published
	}
	updatedAt, ok := entryTime(e)
	if !ok {
		updatedAt = now
	}
	if stamp == "" {
		stamp = now.UTC().Format(time.RFC3339)
	}

	return model.Event{
		Category:  category,
		Title:     title,
		ID:        title + "_" + stamp,
		Magnitude: magnitude(e),
		UpdatedAt: updatedAt,
		Link:      e.Link,
	}
}

func entryTime(e feed.Entry) (time.Time, bool) {
	switch {
	case e.UpdatedParsed != nil:
		return *e.UpdatedParsed, true
	case e.PublishedParsed != nil:
		return *e.PublishedParsed, true
	default:
		return time.Time{}, false
	}
}

// magnitude reads the third field of the georss point, then an explicit
// magnitude element, then the title.
func magnitude(e feed.Entry) string {
	mag := unknownMagnitude
	if e.GeoPoint != "" {
		if parts := strings.Fields(e.GeoPoint); len(parts) > 2 {
			mag = parts[2]
		}
	} else if m := strings.TrimSpace(e.Magnitude); m != "" {
		mag = m
	}

	if mag == unknownMagnitude {
		if m := titleMagnitude.FindStringSubmatch(e.Title); m != nil {
			mag = m[1]
		}
	}
	return mag
}
