package search

// Result is a single document hit returned to the caller.
type Result struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Snippet        string `json:"snippet"`
	OrganizationID int64  `json:"organizationId"`
}

// Query describes a search request. OrganizationID is mandatory: results are
// always scoped to one tenant.
type Query struct {
	Text           string
	OrganizationID int64
	Limit          int
}

// Response is the envelope returned by the search query.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over documents.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// DocumentRecord is the data we index for a document.
type DocumentRecord struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	OrganizationID int64  `json:"organizationId"`
}
