// Package domain contains the core domain models for the Bookworm server.
package domain

import (
	"strings"
	"time"
)

// Shelf status values. Goodreads exports are free text in practice, so these
// are conventions rather than a strictly validated enum.
const (
	ShelfRead             = "read"
	ShelfToRead           = "to-read"
	ShelfCurrentlyReading = "currently-reading"
	ShelfManual           = "manual"
)

// Source values describe where a record came from. Provenance only - no
// behavioral effect beyond display.
const (
	SourceGoodreads   = "goodreads"
	SourceManual      = "manual"
	SourceRecommended = "recommended"
)

// IdentityKey derives the stable natural key for a (title, author) pair.
// Case-insensitive and insensitive to leading/trailing whitespace; no other
// normalization is applied. "Dune" and "Dune: Deluxe Edition" are distinct
// keys on purpose - the merge contract depends on this staying dumb.
func IdentityKey(title, author string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "::" + strings.ToLower(strings.TrimSpace(author))
}

// ImportedBook is the parsed external shape of a book: what the CSV adapter
// or a manual-add request produces. It carries no identity key and no
// timestamp - both are assigned by the library store at write time.
type ImportedBook struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Rating      int    `json:"rating"` // 0 means unrated
	Shelf       string `json:"shelf"`
	Genre       string `json:"genre,omitempty"`
	Review      string `json:"review,omitempty"`
	Bookshelves string `json:"bookshelves,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Source      string `json:"source"`
}

// BookRecord is the stored canonical shape: one entry per distinct
// (title, author) pair the user has encountered.
type BookRecord struct {
	Key         string    `json:"key"` // IdentityKey(Title, Author)
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Rating      int       `json:"rating"`
	Shelf       string    `json:"shelf"`
	Genre       string    `json:"genre,omitempty"`
	Review      string    `json:"review,omitempty"`
	Bookshelves string    `json:"bookshelves,omitempty"`
	ISBN        string    `json:"isbn,omitempty"`
	Source      string    `json:"source"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewBookRecord stamps an imported book with its identity key and the current
// time, producing the stored canonical shape.
func NewBookRecord(b ImportedBook, now time.Time) BookRecord {
	return BookRecord{
		Key:         IdentityKey(b.Title, b.Author),
		Title:       b.Title,
		Author:      b.Author,
		Rating:      b.Rating,
		Shelf:       b.Shelf,
		Genre:       b.Genre,
		Review:      b.Review,
		Bookshelves: b.Bookshelves,
		ISBN:        b.ISBN,
		Source:      b.Source,
		LastUpdated: now,
	}
}

// Rated reports whether the record counts toward the recommendation corpus.
// Rating 0 means unrated and is invisible to the recommender regardless of shelf.
func (r *BookRecord) Rated() bool {
	return r.Rating >= 1
}
