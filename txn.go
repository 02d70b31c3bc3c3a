package barrow

import "time"

// Txn is a transaction against one Engine snapshot (§4.5). Read
// transactions are unbounded in number, each pinned to the meta that
// was current at begin; at most one write transaction may exist at a
// time, enforced by the engine's non-blocking exclusive file lock.
type Txn struct {
	engine   *Engine
	readOnly bool
	meta     *metaRecord // snapshot this txn began from

	root  pgno
	depth uint32
	counters metaCounters

	nextPgno pgno            // next pgno this txn will hand out
	dirty    []*page         // FIFO commit order
	dirtySet map[pgno]*page  // pgno -> dirty page, for touch dedup

	tag      uint32 // only meaningful for begin-with-tag read txns
	err      error  // sticky: once set, only Abort is legal
	released bool
}

// Begin starts a new transaction. A write transaction (readOnly =
// false) attempts the engine's non-blocking file lock and fails with
// ErrBusy if another write txn already holds it (§4.5).
func (e *Engine) Begin(readOnly bool) (*Txn, error) {
	if !readOnly {
		if !e.writeMu.TryLock() {
			e.log.lockBusy(e.path)
			return nil, newErr("begin", ErrCodeBusy)
		}
		ok, err := e.lock.tryLock()
		if err != nil {
			e.writeMu.Unlock()
			return nil, err
		}
		if !ok {
			e.writeMu.Unlock()
			e.log.lockBusy(e.path)
			return nil, newErr("begin", ErrCodeBusy)
		}
	}

	e.metaMu.RLock()
	m := e.currentMeta
	nextPgno := e.nextPgno
	e.metaMu.RUnlock()

	t := &Txn{
		engine:   e,
		readOnly: readOnly,
		meta:     m,
		root:     m.root,
		depth:    m.depth,
		counters: metaCounters{m.entries, m.branches, m.leaves, m.overflowPages},
		nextPgno: nextPgno,
	}
	if !readOnly {
		t.dirtySet = make(map[pgno]*page)
	}
	return t, nil
}

// BeginTag starts a read-only transaction pinned to the meta carrying
// tag, resolved by walking the meta chain (§4.5, §4.4).
func (e *Engine) BeginTag(tag uint32) (*Txn, error) {
	m, err := readMetaWithTag(e.pager, tag)
	if err != nil {
		return nil, err
	}
	return &Txn{
		engine:   e,
		readOnly: true,
		meta:     m,
		root:     m.root,
		depth:    m.depth,
		counters: metaCounters{m.entries, m.branches, m.leaves, m.overflowPages},
		tag:      tag,
	}, nil
}

// fail taints the transaction: per §4.5/§7, any mutation that fails
// partway moves the txn to an error state where the only legal
// continuation is Abort.
func (t *Txn) fail(err error) error {
	if t.err == nil {
		t.err = err
	}
	return err
}

// getPage returns the page for pn, consulting this txn's own dirty
// set first (so a write txn sees its own in-progress mutations
// immediately, per §5's ordering rule), then the engine's shared
// cache, then the pager.
func (t *Txn) getPage(pn pgno) (*page, error) {
	if t.dirtySet != nil {
		if p, ok := t.dirtySet[pn]; ok {
			return p, nil
		}
	}
	e := t.engine
	e.cacheMu.Lock()
	if cp := e.cache.get(pn); cp != nil {
		p := cp.page
		e.cacheMu.Unlock()
		e.metrics.cacheHits.Inc()
		return p, nil
	}
	e.cacheMu.Unlock()
	e.metrics.cacheMisses.Inc()

	p, err := e.pager.readPage(pn)
	if err != nil {
		return nil, err
	}
	e.cacheMu.Lock()
	e.cache.put(pn, p)
	e.cacheMu.Unlock()
	return p, nil
}

// allocate hands out a brand-new dirty page (no prior content) and
// queues it for this txn's commit.
func (t *Txn) allocate(flags pageFlags) *page {
	pn := t.nextPgno
	t.nextPgno++
	p := newPage(t.engine.pageSize)
	if flags == flagOverflow {
		p.initOverflow(pn, invalidPgno)
	} else {
		p.initBranchLeaf(pn, flags)
	}
	t.dirty = append(t.dirty, p)
	t.dirtySet[pn] = p
	return p
}

// touch implements COW "touch" (§4.5): if pn is already dirty in this
// txn, return it directly. Otherwise read its current content,
// re-home it under a freshly allocated pgno, mark it dirty, and
// return the clone — the caller is responsible for rewriting whatever
// parent pointer referenced the old pgno.
func (t *Txn) touch(pn pgno) (*page, error) {
	if p, ok := t.dirtySet[pn]; ok {
		return p, nil
	}
	orig, err := t.getPage(pn)
	if err != nil {
		return nil, err
	}
	newPn := t.nextPgno
	t.nextPgno++

	clone := newPage(t.engine.pageSize)
	copy(clone.data, orig.data)
	clone.setPgno(newPn)

	t.dirty = append(t.dirty, clone)
	t.dirtySet[newPn] = clone
	return clone, nil
}

// CommitFlags has no defined values and Commit takes no flags
// argument: durability of every commit follows the engine-wide NoSync
// open flag.
type CommitFlags uint32

// Commit writes this txn's dirty pages, fsyncs unless NoSync is in
// effect, writes a new meta carrying tag, and releases the write
// lock (§4.5). It is a programming error to commit a read-only or
// already-failed txn.
func (t *Txn) Commit(tag uint32) error {
	if t.readOnly {
		return newErr("commit", ErrCodeInvalidArg)
	}
	if t.err != nil {
		return newErr("commit", ErrCodeInvalidArg)
	}

	e := t.engine
	defer e.releaseWrite(t)

	// Trim a short trailing page left by a prior crash, so the file
	// length is a whole number of pages (it is cut off, not padded).
	sizeBytes, err := e.pager.fileSizeBytes()
	if err != nil {
		return t.fail(err)
	}
	if rem := sizeBytes % int64(e.pageSize); rem != 0 {
		if err := e.pager.truncate(sizeBytes - rem); err != nil {
			return t.fail(err)
		}
	}

	metaPgno := t.nextPgno
	t.nextPgno++
	metaPage := newPage(e.pageSize)
	metaPage.setPgno(metaPgno)

	m := buildMeta(metaPage, t.meta, t.root, t.depth, t.counters, tag, metaMarker, time.Now())

	if err := e.pager.appendPages(t.dirty); err != nil {
		return t.fail(err)
	}
	if e.opts.flags&NoSync == 0 {
		if err := e.pager.sync(); err != nil {
			return t.fail(err)
		}
	}
	if err := e.pager.appendPages([]*page{metaPage}); err != nil {
		return t.fail(err)
	}
	if e.opts.flags&NoSync == 0 {
		if err := e.pager.sync(); err != nil {
			return t.fail(err)
		}
	}

	e.cacheMu.Lock()
	for _, p := range t.dirty {
		e.cache.put(p.pgno(), p)
	}
	e.cacheMu.Unlock()

	e.metaMu.Lock()
	e.currentMeta = m
	e.nextPgno = t.nextPgno
	e.metaMu.Unlock()

	e.metrics.commits.Inc()
	e.metrics.treeDepth.Set(float64(t.depth))
	return nil
}

// Abort discards this txn's dirty pages without writing anything and
// releases the write lock if held (§4.5). Synchronous, cannot fail,
// idempotent.
func (t *Txn) Abort() {
	if t.readOnly {
		return
	}
	t.engine.metrics.aborts.Inc()
	t.engine.releaseWrite(t)
	t.dirty = nil
	t.dirtySet = nil
}

// releaseWrite unlocks the engine's write mutex/file lock once, no
// matter how many times it's called for this txn.
func (e *Engine) releaseWrite(t *Txn) {
	if t.readOnly || t.released {
		return
	}
	t.released = true
	_ = e.lock.unlock()
	e.writeMu.Unlock()
}
