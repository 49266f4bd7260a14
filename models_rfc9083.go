package rdapbootstrap

// RDAP response structures per RFC 9083, limited to what an error
// response carries.

const (
	rdapContentType = "application/rdap+json"
	rdapLevel0      = "rdap_level_0"
)

// Link represents an RDAP link object.
type Link struct {
	Value string `json:"value,omitempty"`
	Rel   string `json:"rel,omitempty"`
	Href  string `json:"href,omitempty"`
	Title string `json:"title,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Notice represents an RDAP notice object (top-level informational messages).
type Notice struct {
	Title       string   `json:"title,omitempty"`
	Description []string `json:"description,omitempty"`
	Links       []Link   `json:"links,omitempty"`
}

// ErrorResponse is the body of every non-redirect response (RFC 9083 §6).
type ErrorResponse struct {
	Conformance []string `json:"rdapConformance"`
	Lang        string   `json:"lang"`
	ErrorCode   int      `json:"errorCode"`
	Title       string   `json:"title"`
	Notices     []Notice `json:"notices"`
}

func newErrorResponse(code int, title, aboutURL string) ErrorResponse {
	return ErrorResponse{
		Conformance: []string{rdapLevel0},
		Lang:        "en",
		ErrorCode:   code,
		Title:       title,
		Notices:     []Notice{termsOfUse(aboutURL)},
	}
}

func termsOfUse(aboutURL string) Notice {
	return Notice{
		Title: "Terms of Use",
		Description: []string{
			"For more information about this service, please see " + aboutURL + ".",
		},
		Links: []Link{{
			Rel:   "about",
			Href:  aboutURL,
			Title: aboutURL,
			Type:  "text/html",
		}},
	}
}
