package search

import "github.com/openquill/threadlens/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterAnalysis(analysis *core.QueryAnalysis)
	AfterVectorSearch(ids []core.ID)
	AfterKeywordSearch(ids []core.ID)
	AfterDocumentRetrieval(docs []*core.Document)
	HybridHit(doc *core.Document)
	VectorHit(doc *core.Document)
	KeywordHit(doc *core.Document)
	SupplementalFill(count int)
	Finish(results []*core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) AfterAnalysis(_ *core.QueryAnalysis)     {}
func (n *noopMonitor) AfterVectorSearch(_ []core.ID)           {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ID)          {}
func (n *noopMonitor) AfterDocumentRetrieval(_ []*core.Document) {}
func (n *noopMonitor) HybridHit(_ *core.Document)              {}
func (n *noopMonitor) VectorHit(_ *core.Document)              {}
func (n *noopMonitor) KeywordHit(_ *core.Document)             {}
func (n *noopMonitor) SupplementalFill(_ int)                  {}
func (n *noopMonitor) Finish(_ []*core.RankedResult)           {}
