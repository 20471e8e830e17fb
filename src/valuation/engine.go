// Package valuation turns range-bucketed trade disclosures into point
// estimates and derives positions, portfolio series and summaries from them.
// Everything in this package is pure and safe to run in parallel over
// independent snapshots.
package valuation

import (
	"sync"
	"time"
)

type Engine struct {
	resolver *Resolver
	now      func() time.Time
}

func NewEngine(resolver *Resolver, now func() time.Time) *Engine {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{resolver: resolver, now: now}
}

// Analysis groups the views computed over a single snapshot. The ledger and
// the summarizer are built on first use and shared afterwards.
type Analysis struct {
	snap     *Snapshot
	resolver *Resolver
	now      func() time.Time

	ledgerOnce  sync.Once
	ledger      *PositionLedger
	summaryOnce sync.Once
	summary     *Summarizer
}

// Analyze returns the views over snap. Nothing is computed until a view is
// requested.
func (e *Engine) Analyze(snap *Snapshot) *Analysis {
	return &Analysis{snap: snap, resolver: e.resolver, now: e.now}
}

func (a *Analysis) Ledger() *PositionLedger {
	a.ledgerOnce.Do(func() {
		a.ledger = NewPositionLedger(a.snap, a.resolver)
	})
	return a.ledger
}

// Portfolio reads the same ledger scan as Ledger.
func (a *Analysis) Portfolio() *PortfolioAggregator {
	return NewPortfolioAggregator(a.Ledger())
}

func (a *Analysis) Summary() *Summarizer {
	a.summaryOnce.Do(func() {
		a.summary = NewSummarizer(a.snap, a.resolver, a.now)
	})
	return a.summary
}

func (e *Engine) Resolver() *Resolver {
	return e.resolver
}
