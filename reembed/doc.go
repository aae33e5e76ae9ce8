// Package reembed embeds the tag vocabulary into a tagindex.Index.
//
// Tags are embedded in batches, in vocabulary order, so that position i in
// the resulting index always refers to tag i. Embedding calls are retried
// with exponential backoff, and progress is reported to a writer as the
// batches complete. Vectors are stored exactly as the embedder returns them.
package reembed
