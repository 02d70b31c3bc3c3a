package barrow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Options configures Open. The zero value is usable; each With*
// setter returns Options so calls chain, mirroring the teacher's
// Env.Set*-before-Open configuration idiom (§6 Environment).
type Options struct {
	flags       OpenFlags
	pageSize    int
	cacheSize   int
	maxKeySize  int
	comparator  Comparator
	logger      zerolog.Logger
	registerer  prometheus.Registerer
	maxReaders  int // reserved: unused, no multi-reader lock table (§5)
}

// DefaultOptions returns the configuration Open uses when none is
// supplied.
func DefaultOptions() Options {
	return Options{
		pageSize:   defaultPageSize,
		cacheSize:  1024,
		maxKeySize: defaultMaxKeySize,
		logger:     zerolog.Nop(),
	}
}

func (o Options) WithFlags(f OpenFlags) Options { o.flags = f; return o }

func (o Options) WithPageSize(n int) Options { o.pageSize = n; return o }

func (o Options) WithCacheSize(n int) Options { o.cacheSize = n; return o }

func (o Options) WithMaxKeySize(n int) Options { o.maxKeySize = n; return o }

// WithComparator installs a user comparator. Per §4.6/§9 this is a
// hard contract, not a heuristic: supplying one disables prefix
// compression for the lifetime of the engine handle.
func (o Options) WithComparator(cmp Comparator) Options { o.comparator = cmp; return o }

// WithLogger installs a zerolog.Logger for structured engine events
// (compact/revert/rollback lifecycle, lock contention, tombstone
// detection). The zero value logs nothing.
func (o Options) WithLogger(l zerolog.Logger) Options { o.logger = l; return o }

// WithRegisterer installs a Prometheus registerer for the engine's
// metrics (commits, aborts, compactions, cache hit/miss, tree depth).
// Nil (the default) disables metrics registration.
func (o Options) WithRegisterer(r prometheus.Registerer) Options { o.registerer = r; return o }

func (o Options) resolveComparator() Comparator {
	switch {
	case o.comparator != nil:
		return o.comparator
	case o.flags&ReverseKey != 0:
		return reverseCmp
	default:
		return forwardCmp
	}
}

// prefixEnabled reports whether prefix compression may be applied:
// forward-key mode with no user comparator (§4.6, §9; see prefix.go
// for the reverse-key scope decision).
func (o Options) prefixEnabled() bool {
	return o.comparator == nil && o.flags&ReverseKey == 0
}
