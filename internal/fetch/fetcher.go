// Package fetch pulls posts from RSS and Atom feeds into the corpus.
//
// Feeds complement the social timelines: each entry becomes one corpus post
// whose text is the entry title followed by its plain-text summary.
package fetch

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/filippog/doaddoad/internal/corpus"
	"github.com/filippog/doaddoad/internal/htmltext"
	"github.com/filippog/doaddoad/internal/logging"
)

// Source is a configured feed.
type Source struct {
	Name string
	URL  string
}

// Fetcher retrieves posts from feed sources.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given HTTP client timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the entries of src as posts. It does not touch the
// corpus; the caller decides which posts to keep.
//
// Entries without a publication or update date are skipped: their id could
// not be stable across fetches.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]*corpus.Post, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "doaddoad (https://github.com/filippog/doaddoad)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now()
	posts := make([]*corpus.Post, 0, len(feed.Items))
	skipped := 0
	for _, item := range feed.Items {
		p, ok := convertFeedItem(item, src, now)
		if !ok {
			skipped++
			continue
		}
		posts = append(posts, p)
	}
	if skipped > 0 {
		logging.WithPrefix("fetch").Debug("Skipped feed entries", "source", src.Name, "skipped", skipped)
	}
	return posts, nil
}

func convertFeedItem(item *gofeed.Item, src Source, fetchTime time.Time) (*corpus.Post, bool) {
	var published time.Time
	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	default:
		return nil, false
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	text := strings.TrimSpace(item.Title + " " + truncate(htmltext.ToText(summary), 500))
	if text == "" {
		return nil, false
	}

	author := src.Name
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	}

	return &corpus.Post{
		ID:       generateID(item, published),
		Text:     text,
		Author:   author,
		Observed: fetchTime,
	}, true
}

// maxIDMillis is the largest timestamp that still fits above the 16 hash
// bits of an id. Dates past it (year ~6400) are clamped.
const maxIDMillis = math.MaxInt64 >> 16

// generateID derives a post id that grows with the publication time, so the
// corpus trim policy (keep the highest ids) keeps the newest entries. The
// low 16 bits hold a hash of the entry's identity to separate entries
// published in the same millisecond.
func generateID(item *gofeed.Item, published time.Time) int64 {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
	}

	ms := min(max(published.UnixMilli(), 0), maxIDMillis)
	return ms<<16 | int64(hash16(key))
}

func hash16(s string) uint16 {
	h := fnv.New32a()
	h.Write([]byte(s))
	sum := h.Sum32()
	return uint16(sum ^ sum>>16)
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
// Uses rune-aware slicing to avoid breaking UTF-8 characters.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
