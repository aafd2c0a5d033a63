// Package goodreads parses Goodreads library export CSVs into unkeyed book
// records. The adapter validates the export schema and normalizes per-row
// quirks; identity keys and timestamps are assigned later by the library
// store, keeping the parsed external shape separate from the stored
// canonical shape.
package goodreads

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/errors"
)

// Column headers of a Goodreads export.
const (
	colTitle       = "Title"
	colAuthor      = "Author"
	colRating      = "My Rating"
	colShelf       = "Exclusive Shelf"
	colReview      = "My Review"
	colBookshelves = "Bookshelves"
	colISBN        = "ISBN"
	colISBN13      = "ISBN13"
)

// requiredColumns must all be present in the header row.
var requiredColumns = []string{colTitle, colAuthor, colRating, colShelf}

// Parse reads a Goodreads CSV export and returns the parsed book records.
//
// Failure conditions:
//   - tokenizer errors surface as a single ParseFailure carrying the
//     underlying message
//   - a missing header or zero data rows is EmptyInput
//   - missing required columns is SchemaMismatch naming them
//
// Rows with a blank title are silently dropped.
func Parse(r io.Reader) ([]domain.ImportedBook, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // Goodreads pads some rows inconsistently

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseFailure, "could not parse CSV: "+err.Error())
	}
	if len(rows) == 0 {
		return nil, errors.EmptyInput("the CSV file is empty")
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.SchemaMismatchWithDetails(
			"this does not look like a Goodreads export: missing columns "+strings.Join(missing, ", "),
			missing,
		)
	}

	if len(rows) == 1 {
		return nil, errors.EmptyInput("the export contains no books")
	}

	books := make([]domain.ImportedBook, 0, len(rows)-1)
	for _, row := range rows[1:] {
		title := strings.TrimSpace(field(row, index, colTitle))
		if title == "" {
			continue
		}

		books = append(books, domain.ImportedBook{
			Title:       title,
			Author:      strings.TrimSpace(field(row, index, colAuthor)),
			Rating:      parseRating(field(row, index, colRating)),
			Shelf:       parseShelf(field(row, index, colShelf)),
			Review:      strings.TrimSpace(field(row, index, colReview)),
			Bookshelves: strings.TrimSpace(field(row, index, colBookshelves)),
			ISBN:        pickISBN(field(row, index, colISBN13), field(row, index, colISBN)),
			Source:      domain.SourceGoodreads,
		})
	}

	return books, nil
}

// field returns the named column of a row, or "" when the row is short or the
// column is absent.
func field(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseRating parses the personal rating, defaulting to 0 (unrated) on
// absence or parse failure.
func parseRating(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseShelf defaults a blank shelf status to "read".
func parseShelf(raw string) string {
	shelf := strings.TrimSpace(raw)
	if shelf == "" {
		return domain.ShelfRead
	}
	return shelf
}

// pickISBN prefers ISBN13 over ISBN, cleaning both of the export's
// spreadsheet-quoting artifact. An empty result means absent.
func pickISBN(isbn13, isbn string) string {
	if cleaned := cleanExcelArtifact(isbn13); cleaned != "" {
		return cleaned
	}
	return cleanExcelArtifact(isbn)
}

// cleanExcelArtifact strips the literal ="..." wrapper Goodreads puts around
// numeric-as-text columns so spreadsheets do not mangle them.
func cleanExcelArtifact(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "=")
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}
