package search

import "github.com/sovdef/filesearch/core"

// SearchMonitor provides hooks to observe the request lifecycle.
// Implement this interface to track intermediate steps during a search.
type SearchMonitor interface {
	Start(storeName, query string)
	CacheHit(key core.ID)
	CacheMiss(key core.ID)
	Attached(key core.ID)
	Generated(attempts int)
	Finish(result *core.SearchResult)
	Failed(err error)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)             {}
func (n *noopMonitor) CacheHit(_ core.ID)            {}
func (n *noopMonitor) CacheMiss(_ core.ID)           {}
func (n *noopMonitor) Attached(_ core.ID)            {}
func (n *noopMonitor) Generated(_ int)               {}
func (n *noopMonitor) Finish(_ *core.SearchResult)   {}
func (n *noopMonitor) Failed(_ error)                {}
