package googlebooks

// Book is a normalized search result.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description,omitempty"`
	CoverURL      string   `json:"cover_url,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Genre         string   `json:"genre,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
}

// volumesResponse is the raw volumes API response shape.
type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Description         string               `json:"description"`
	PublishedDate       string               `json:"publishedDate"`
	Categories          []string             `json:"categories"`
	ImageLinks          imageLinks           `json:"imageLinks"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}
