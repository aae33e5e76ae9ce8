package enhance

import (
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/tagindex"
	"github.com/poiesic/gurukul/thesaurus"
)

// Assets are the precomputed, read-only inputs of an Enhancer.
// Tags[i] is the vocabulary entry whose embedding is vector i of Index.
type Assets struct {
	SynonymMap core.SynonymMap
	Tags       []string
	Index      *tagindex.Index
}

// LoadAssets reads the synonym map, tag vocabulary and tag index from disk.
// Any missing or corrupt file is reported as core.ErrAssetLoad.
func LoadAssets(mapPath, tagsPath, indexPath string) (*Assets, error) {
	synonyms, err := thesaurus.LoadMap(mapPath)
	if err != nil {
		return nil, err
	}
	tags, err := tagindex.LoadTags(tagsPath)
	if err != nil {
		return nil, err
	}
	index, err := tagindex.LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}
	return &Assets{
		SynonymMap: synonyms,
		Tags:       tags,
		Index:      index,
	}, nil
}
