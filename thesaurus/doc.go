// Package thesaurus builds and loads the headword synonym map.
//
// The map is mined offline from a TEI-encoded lexicon. Every verse line
// (a TEI <l> element) names a headword followed by its synonyms:
//
//	<l>dharma satya dharmah</l>
//
// yields
//
//	satya   -> dharma
//	dharmah -> dharma
//	dharma  -> dharma
//
// Keys are stored through Normalize so that variant transliterations of the
// same word ("ātman", "atman") collapse to one entry, while values keep the
// original romanization.
//
// # Parsing
//
// ParseTEI tries a strict XML parse first and a lenient recovery parse
// second. When the parsed document carries fewer <l> elements than the
// configured minimum, lines are also pulled out of the raw text with a
// "(chapter.section.verse) text" splitter. Both sources are merged in that
// order.
//
// # Building
//
// Builder tokenizes documents concurrently on a worker pool and merges
// their lines sequentially in input order, so repeated builds over the
// same input produce the same map.
//
//	b, err := thesaurus.NewBuilder(thesaurus.WithMinEntries(5000))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Release()
//
//	result, err := b.BuildFiles(ctx, "amarakosha.xml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = thesaurus.SaveMap("thesaurus.json", result.Map)
package thesaurus
