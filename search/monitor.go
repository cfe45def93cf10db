package search

import "github.com/poiesic/hnstream/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(collection core.Kind, query string)
	AfterEmbedding(dims int)
	AfterNearestNeighbours(results []core.SearchResult)
	VerbatimHit(record core.IndexRecord)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Kind, _ string)                  {}
func (n *noopMonitor) AfterEmbedding(_ int)                         {}
func (n *noopMonitor) AfterNearestNeighbours(_ []core.SearchResult) {}
func (n *noopMonitor) VerbatimHit(_ core.IndexRecord)               {}
func (n *noopMonitor) Finish(_ []core.SearchResult)                 {}
