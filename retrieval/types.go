package retrieval

import (
	"context"
	"strings"
)

// Request is one search call.
type Request struct {
	Query    string `json:"query"`
	PageSize int    `json:"pageSize"`
	Filter   string `json:"filter,omitempty"`
}

// Validate checks that the request can be sent.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if r.PageSize <= 0 {
		return ErrInvalidPageSize
	}
	return nil
}

// DerivedStructData carries the fields the backend derives from a document.
type DerivedStructData struct {
	Link  string `json:"link"`
	Title string `json:"title"`
}

// Document is a ranked corpus document.
type Document struct {
	ID                string            `json:"id,omitempty"`
	DerivedStructData DerivedStructData `json:"derivedStructData"`
}

// Result is one hit of a search response.
type Result struct {
	Document Document `json:"document"`
}

// Link returns the content locator of the hit, or the empty string.
func (r Result) Link() string {
	return r.Document.DerivedStructData.Link
}

// Title returns the title of the hit, or the empty string.
func (r Result) Title() string {
	return r.Document.DerivedStructData.Title
}

// Response holds the hits of a search in backend rank order.
type Response struct {
	Results []Result `json:"results"`
}

// Backend ranks corpus documents for a request.
type Backend interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, req *Request) (*Response, error)

// Search calls f(ctx, req).
func (f BackendFunc) Search(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
