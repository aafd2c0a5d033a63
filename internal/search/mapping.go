package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for library records. Title and
// author carry the search weight; review and bookshelves text is searchable
// but not stored.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = en.AnalyzerName
	authorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("author", authorFieldMapping)

	reviewFieldMapping := bleve.NewTextFieldMapping()
	reviewFieldMapping.Analyzer = en.AnalyzerName
	reviewFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("review", reviewFieldMapping)

	shelvesFieldMapping := bleve.NewTextFieldMapping()
	shelvesFieldMapping.Analyzer = en.AnalyzerName
	shelvesFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("bookshelves", shelvesFieldMapping)

	genreFieldMapping := bleve.NewTextFieldMapping()
	genreFieldMapping.Analyzer = keyword.Name
	genreFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("genre", genreFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
