// Package retrieval talks to the document retrieval backend.
//
// The backend ranks corpus documents for a query string and returns, for
// each hit, a content locator and a title. Client speaks the JSON search
// protocol of a Discovery Engine serving config over HTTP with bearer
// token authentication.
package retrieval
