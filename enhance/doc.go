// Package enhance turns a short question into a corpus-grounded query.
//
// An Enhancer runs three stages in fixed order and merges their output:
//
//  1. Concept extraction asks a language model for up to five Sanskrit
//     terms. A reply that is not a JSON array of strings falls back to the
//     lowercased question.
//  2. Lexical expansion maps each concept through the synonym map to its
//     headword.
//  3. Tag mapping embeds the original question and returns the nearest
//     entries of the tag vocabulary.
//
// The final query string is the deduplicated union of the three lists,
// joined by single spaces.
package enhance
