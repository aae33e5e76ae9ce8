// Package collector answers a question with the corpus verses that best
// match its enhanced query.
//
// A Collector enhances the question, asks the retrieval backend for
// candidates, fetches the text of the top candidates from the content
// store and assembles a core.CollectedResult. Server exposes Collect over
// HTTP as POST /collect.
package collector
