package helpcenter

// Status markers embedded in the result envelope. Callers branch on these
// rather than on transport-level status codes.
const (
	StatusOK     = "200"
	StatusFailed = "400"
)

// Source is the seven-field, all-text projection of a single retained search result.
type Source struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	HTMLURL   string `json:"html_url"`
	SectionID string `json:"section_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Envelope is the structured success/failure return value of a search.
// A success envelope carries Status "200" and the ordered source list;
// a failure envelope carries Status "400" and a textual error description.
type Envelope struct {
	Status  string   `json:"status"`
	Sources []Source `json:"sources,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Succeeded reports whether the envelope carries search results.
func (e *Envelope) Succeeded() bool {
	return e != nil && e.Status == StatusOK
}
