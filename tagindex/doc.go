// Package tagindex holds the corpus tag vocabulary and its embedding index.
//
// The vocabulary is the sorted set of tags mined from verse metadata
// (JSONL records carrying structData.llm_tags). The index stores one
// embedding per vocabulary entry, in vocabulary order, and answers exact
// k-nearest-neighbor queries by squared Euclidean distance.
package tagindex
