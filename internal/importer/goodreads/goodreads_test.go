package goodreads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/errors"
)

const sampleExport = `Book Id,Title,Author,My Rating,Average Rating,Exclusive Shelf,My Review,Bookshelves,ISBN,ISBN13
1,Dune,Frank Herbert,5,4.25,read,"A classic, still holds up",sci-fi,"=""0441172717""","=""9780441172719"""
2,Piranesi,Susanna Clarke,0,4.23,to-read,,,"=""""","="""""
3,Annihilation,Jeff VanderMeer,3,3.74,read,,weird-fiction,,
`

func TestParse_SampleExport(t *testing.T) {
	books, err := Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, books, 3)

	dune := books[0]
	assert.Equal(t, "Dune", dune.Title)
	assert.Equal(t, "Frank Herbert", dune.Author)
	assert.Equal(t, 5, dune.Rating)
	assert.Equal(t, domain.ShelfRead, dune.Shelf)
	assert.Equal(t, "A classic, still holds up", dune.Review)
	assert.Equal(t, "sci-fi", dune.Bookshelves)
	assert.Equal(t, "9780441172719", dune.ISBN, "ISBN13 wins and the spreadsheet wrapper is stripped")
	assert.Equal(t, domain.SourceGoodreads, dune.Source)

	piranesi := books[1]
	assert.Equal(t, 0, piranesi.Rating)
	assert.Equal(t, domain.ShelfToRead, piranesi.Shelf)
	assert.Empty(t, piranesi.ISBN, `an empty ="" cell means no ISBN`)
}

func TestParse_EmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestParse_HeaderOnly(t *testing.T) {
	_, err := Parse(strings.NewReader("Title,Author,My Rating,Exclusive Shelf\n"))
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestParse_SchemaMismatchNamesMissingColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("Title,My Rating\nDune,5\n"))
	require.ErrorIs(t, err, errors.ErrSchemaMismatch)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Contains(t, domainErr.Message, "Author")
	assert.Contains(t, domainErr.Message, "Exclusive Shelf")
	assert.NotContains(t, domainErr.Message, "Title,")
}

func TestParse_MalformedCSV(t *testing.T) {
	// Unterminated quoted field.
	_, err := Parse(strings.NewReader("Title,Author,My Rating,Exclusive Shelf\n\"Dune,Frank Herbert,5,read\n"))
	assert.ErrorIs(t, err, errors.ErrParseFailure)
}

func TestParse_DropsBlankTitleRows(t *testing.T) {
	input := "Title,Author,My Rating,Exclusive Shelf\n" +
		"Dune,Frank Herbert,5,read\n" +
		",Anonymous,3,read\n" +
		"   ,Whitespace Only,2,read\n"

	books, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestParse_DefaultsRatingAndShelf(t *testing.T) {
	input := "Title,Author,My Rating,Exclusive Shelf\n" +
		"Dune,Frank Herbert,not-a-number,\n"

	books, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 0, books[0].Rating)
	assert.Equal(t, domain.ShelfRead, books[0].Shelf)
}

func TestParse_ShortRowsTolerated(t *testing.T) {
	input := "Title,Author,My Rating,Exclusive Shelf,My Review\n" +
		"Dune,Frank Herbert,5,read\n"

	books, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Empty(t, books[0].Review)
}

func TestCleanExcelArtifact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`="0441172717"`, "0441172717"},
		{`=""`, ""},
		{`0441172717`, "0441172717"},
		{`"0441172717"`, "0441172717"},
		{`  ="9780441172719"  `, "9780441172719"},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanExcelArtifact(tt.in), "input %q", tt.in)
	}
}
