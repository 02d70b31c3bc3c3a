package barrow

import "github.com/prometheus/client_golang/prometheus"

// engineMetrics wires the engine's lifecycle counters into an
// optional Prometheus registerer (ambient stack, SPEC_FULL.md §11 —
// grounded on NayanaChandrika99-DocReasoner/tree_db's use of
// prometheus/client_golang). All fields are safe to use as nil
// receivers are never produced: if registerer is nil, every counter
// still exists, it's simply never scraped by anything.
type engineMetrics struct {
	commits     prometheus.Counter
	aborts      prometheus.Counter
	compactions prometheus.Counter
	rollbacks   prometheus.Counter
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	treeDepth   prometheus.Gauge
}

func newEngineMetrics(reg prometheus.Registerer) *engineMetrics {
	m := &engineMetrics{
		commits:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "barrow", Name: "commits_total", Help: "Committed write transactions."}),
		aborts:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "barrow", Name: "aborts_total", Help: "Aborted write transactions."}),
		compactions: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "barrow", Name: "compactions_total", Help: "Completed compactions."}),
		rollbacks:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "barrow", Name: "rollbacks_total", Help: "Completed rollbacks/reverts."}),
		cacheHits:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "barrow", Name: "cache_hits_total", Help: "Page cache hits."}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "barrow", Name: "cache_misses_total", Help: "Page cache misses."}),
		treeDepth:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "barrow", Name: "tree_depth", Help: "Depth of the current committed tree."}),
	}
	if reg != nil {
		reg.MustRegister(m.commits, m.aborts, m.compactions, m.rollbacks, m.cacheHits, m.cacheMisses, m.treeDepth)
	}
	return m
}
