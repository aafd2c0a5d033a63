package domain

// Recommendation is a single suggested book returned by the recommendation
// pipeline. GoogleBooksID is the opaque identifier tracked by the shown set;
// in LLM-only mode it is a synthetic "llm-" prefixed ID derived from
// title and author.
type Recommendation struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Description     string  `json:"description"`
	CoverURL        string  `json:"cover_url,omitempty"`
	GoogleBooksID   string  `json:"google_books_id"`
	Genre           string  `json:"genre"`
	Reason          string  `json:"reason"`
	PredictedRating float64 `json:"predicted_rating"`
	IsNewAuthor     bool    `json:"is_new_author"`
}
