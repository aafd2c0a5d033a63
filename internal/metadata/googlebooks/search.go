package googlebooks

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bookwormapp/bookworm-server/internal/errors"
)

const (
	// searchLimit is the result cap for user-facing search.
	searchLimit = 8
	// candidateLimit is the per-query cap when gathering recommendation
	// candidates.
	candidateLimit = 20
)

// Search queries the volumes endpoint and returns up to 8 normalized results.
// A query with no matches returns an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]Book, error) {
	return c.search(ctx, query, searchLimit)
}

// FetchCandidates runs one volumes search per query and returns the union of
// results up to targetCount, deduplicated by volume ID and with excluded
// titles (lowercased, trimmed) filtered out. Individual query failures are
// logged and skipped so one bad upstream response does not sink the whole
// batch; an empty return means no candidates could be gathered.
func (c *Client) FetchCandidates(ctx context.Context, queries []string, excludeTitles map[string]struct{}, targetCount int) []Book {
	var (
		candidates []Book
		seen       = make(map[string]struct{})
	)
	for _, q := range queries {
		if len(candidates) >= targetCount {
			break
		}
		books, err := c.search(ctx, q, candidateLimit)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("candidate query failed",
					"query", q,
					"error", err,
				)
			}
			continue
		}
		for _, b := range books {
			if _, dup := seen[b.ID]; dup {
				continue
			}
			if _, excluded := excludeTitles[strings.ToLower(strings.TrimSpace(b.Title))]; excluded {
				continue
			}
			seen[b.ID] = struct{}{}
			candidates = append(candidates, b)
		}
	}
	if len(candidates) > targetCount {
		candidates = candidates[:targetCount]
	}
	return candidates
}

func (c *Client) search(ctx context.Context, query string, limit int) ([]Book, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("printType", "books")
	params.Set("langRestrict", "en")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	searchURL := c.baseURL + "?" + params.Encode()

	if c.logger != nil {
		c.logger.Debug("searching Google Books",
			"query", query,
			"limit", limit,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "Google Books request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Upstreamf("Google Books returned status %d", resp.StatusCode)
	}

	var volumes volumesResponse
	if err := json.UnmarshalRead(resp.Body, &volumes); err != nil {
		return nil, errors.Wrap(err, errors.CodeUpstream, "Google Books returned an unreadable response")
	}

	results := make([]Book, 0, len(volumes.Items))
	for i := range volumes.Items {
		if b, ok := normalize(&volumes.Items[i]); ok {
			results = append(results, b)
		}
	}
	return results, nil
}

// normalize flattens a raw volume into the Book shape. Volumes without an ID
// or title are useless downstream and are dropped.
func normalize(v *volume) (Book, bool) {
	info := &v.VolumeInfo
	if v.ID == "" || info.Title == "" {
		return Book{}, false
	}

	author := "Unknown"
	if len(info.Authors) > 0 {
		author = strings.Join(info.Authors, ", ")
	}

	var genre string
	if len(info.Categories) > 0 {
		genre = info.Categories[0]
	}

	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}
	// The API hands out http:// thumbnail links; browsers refuse them on an
	// https page.
	cover = strings.Replace(cover, "http://", "https://", 1)

	var isbn string
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			isbn = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && isbn == "" {
			isbn = id.Identifier
		}
	}

	return Book{
		ID:            v.ID,
		Title:         info.Title,
		Author:        author,
		Description:   info.Description,
		CoverURL:      cover,
		PublishedDate: info.PublishedDate,
		Genre:         genre,
		Categories:    info.Categories,
		ISBN:          isbn,
	}, true
}
