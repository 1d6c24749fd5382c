package search

import "time"

// Index variants, used to label monitor events.
const (
	VariantNews     = "news"
	VariantDecision = "decision"
)

// Monitor provides hooks to observe index builds and queries.
// Implementations must be safe for concurrent use.
type Monitor interface {
	BuildStarted(variant string)
	BuildFinished(variant string, result *BuildResult, elapsed time.Duration)
	QueryServed(variant string, tickers []string, cached bool)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) BuildStarted(_ string)                                   {}
func (n *noopMonitor) BuildFinished(_ string, _ *BuildResult, _ time.Duration) {}
func (n *noopMonitor) QueryServed(_ string, _ []string, _ bool)                {}
