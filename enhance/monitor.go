package enhance

import (
	"github.com/poiesic/gurukul/core"
	"github.com/poiesic/gurukul/tagindex"
)

// Monitor provides hooks to observe the enhancement stages.
// Implement this interface to inspect intermediate results of a request.
type Monitor interface {
	Start(query string)
	AfterConceptExtraction(concepts []string, source core.ConceptSource)
	LookupMiss(concept string)
	AfterLexicalExpansion(expansions []string)
	AfterTagMapping(tags []string, neighbors []tagindex.Neighbor)
	Finish(result *core.EnhancedQuery)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                          {}
func (n *noopMonitor) AfterConceptExtraction(_ []string, _ core.ConceptSource) {}
func (n *noopMonitor) LookupMiss(_ string)                                     {}
func (n *noopMonitor) AfterLexicalExpansion(_ []string)                        {}
func (n *noopMonitor) AfterTagMapping(_ []string, _ []tagindex.Neighbor)       {}
func (n *noopMonitor) Finish(_ *core.EnhancedQuery)                            {}
