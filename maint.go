package barrow

import (
	"os"
	"time"
)

// Maintenance operations (§4.8): Compact walks the live tree into a
// dense, renumbered copy and atomically swaps it in; Clear does the
// same without copying any tree pages (a factory reset); Revert and
// Rollback undo the most recent commit(s) by truncation, adopting an
// earlier meta. All four require exclusive access, so each acquires
// writeMu directly rather than going through Begin/Commit.

// Compact walks the tree reachable from the current snapshot into a
// freshly numbered temp file, then atomically replaces the original:
// write a MARKER meta with the original tag, fsync, rename the temp
// file over the original path, and stamp a TOMBSTONE meta into the
// old (still-open) file so any reader holding it detects the
// replacement on its next readMeta scan (§4.8, §7 Stale).
func (e *Engine) Compact() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	tmpPath := e.path + ".compact.tmp"
	e.log.compactStart(e.path, tmpPath)

	oldSize, err := e.pager.fileSizeBytes()
	if err != nil {
		return err
	}

	tmpFile, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return wrapErr("compact", ErrCodeIO, err)
	}
	tmpPager := openPager(tmpFile, e.pageSize, e.opts.flags&NoPageChecksum != 0)

	hp := newPage(e.pageSize)
	h := &headerRecord{magic: headerMagic, formatVersion: FormatVersion, pageSize: uint32(e.pageSize), maxKeySize: uint32(e.maxKeySize)}
	h.encode(hp)
	if err := tmpPager.writePageAt(hp); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}

	e.metaMu.RLock()
	m := e.currentMeta
	e.metaMu.RUnlock()

	nextPn := pgno(1)
	newRoot := invalidPgno
	var counters metaCounters
	if m.root != invalidPgno {
		newRoot, err = e.compactSubtree(tmpPager, &nextPn, m.root, &counters)
		if err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return err
		}
	}

	metaPage := newPage(e.pageSize)
	metaPage.setPgno(nextPn)
	newMeta := buildMeta(metaPage, nil, newRoot, m.depth, counters, m.tag, metaMarker, time.Now())
	if err := tmpPager.writePageAt(metaPage); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpPager.sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return wrapErr("compact", ErrCodeIO, err)
	}

	if err := os.Rename(tmpPath, e.path); err != nil {
		return wrapErr("compact", ErrCodeIO, err)
	}

	// Old file/inode: still open under e.file/e.pager even though the
	// directory entry now points at the compacted replacement. Stamp a
	// tombstone so any reader still holding it detects the swap.
	oldLastPgno, err := e.pager.fileSizePages()
	if err == nil {
		tombPage := newPage(e.pageSize)
		tombPage.setPgno(oldLastPgno)
		buildMeta(tombPage, m, m.root, m.depth, metaCounters{m.entries, m.branches, m.leaves, m.overflowPages}, m.tag, metaTombstone, time.Now())
		_ = e.pager.appendPages([]*page{tombPage})
		_ = e.pager.sync()
		e.log.tombstoneDetected(e.path)
	}
	_ = e.pager.close()

	newFile, err := os.OpenFile(e.path, os.O_RDWR, 0644)
	if err != nil {
		return wrapErr("compact", ErrCodeIO, err)
	}
	e.file = newFile
	e.pager = openPager(newFile, e.pageSize, e.opts.flags&NoPageChecksum != 0)
	e.lock = newFileLock(int(newFile.Fd()))

	e.cacheMu.Lock()
	e.cache.clear()
	e.cacheMu.Unlock()

	e.metaMu.Lock()
	e.currentMeta = newMeta
	e.nextPgno = nextPn + 1
	e.metaMu.Unlock()

	e.metrics.compactions.Inc()
	newSize, _ := e.pager.fileSizeBytes()
	e.log.compactDone(e.path, oldSize, newSize)
	return nil
}

// compactSubtree copies the subtree rooted at srcPgno (read through
// the engine's current pager) into tp under densely assigned pgnos
// starting at *nextPn, rewriting every child pointer and overflow head
// it carries. Pages are written with writePageAt (random access),
// since the walk does not assign pgnos in file order.
func (e *Engine) compactSubtree(tp *pager, nextPn *pgno, srcPgno pgno, counters *metaCounters) (pgno, error) {
	src, err := e.pager.readPage(srcPgno)
	if err != nil {
		return invalidPgno, err
	}

	newPn := *nextPn
	*nextPn++

	if src.isLeaf() {
		dst := newPage(e.pageSize)
		dst.initBranchLeaf(newPn, flagLeaf)
		n := src.numSlots()
		for i := 0; i < n; i++ {
			rec := append([]byte(nil), src.nodeRecord(i)...)
			if nodeFlagsAt(rec)&nodeBig != 0 {
				oldHead := nodeOverflowPgnoAt(rec)
				newHead, err := e.compactOverflowChain(tp, nextPn, counters, oldHead)
				if err != nil {
					return invalidPgno, err
				}
				putU32(nodeDataAt(rec), uint32(newHead))
			}
			if !dst.insertSlot(i, rec) {
				return invalidPgno, newErr("compact", ErrCodeNoMem)
			}
		}
		if err := tp.writePageAt(dst); err != nil {
			return invalidPgno, err
		}
		counters.leaves++
		counters.entries += uint64(n)
		return newPn, nil
	}

	dst := newPage(e.pageSize)
	dst.initBranchLeaf(newPn, flagBranch)
	n := src.numSlots()
	for i := 0; i < n; i++ {
		rec := src.nodeRecord(i)
		key := append([]byte(nil), nodeKeyAt(rec)...)
		childSrc := nodeChildPgnoAt(rec)
		newChild, err := e.compactSubtree(tp, nextPn, childSrc, counters)
		if err != nil {
			return invalidPgno, err
		}
		if !dst.insertSlot(i, encodeBranchNode(key, newChild)) {
			return invalidPgno, newErr("compact", ErrCodeNoMem)
		}
	}
	if err := tp.writePageAt(dst); err != nil {
		return invalidPgno, err
	}
	counters.branches++
	return newPn, nil
}

// compactOverflowChain copies an overflow chain page-by-page under
// freshly assigned pgnos and returns the new head.
func (e *Engine) compactOverflowChain(tp *pager, nextPn *pgno, counters *metaCounters, oldHead pgno) (pgno, error) {
	var prevNew *page
	newHead := invalidPgno
	pn := oldHead
	for pn != invalidPgno {
		src, err := e.pager.readPage(pn)
		if err != nil {
			return invalidPgno, err
		}
		newPn := *nextPn
		*nextPn++
		dst := newPage(e.pageSize)
		dst.initOverflow(newPn, invalidPgno)
		copy(dst.data[pageHeaderSize:], src.data[pageHeaderSize:])

		if prevNew != nil {
			prevNew.setNextPgno(newPn)
			if err := tp.writePageAt(prevNew); err != nil {
				return invalidPgno, err
			}
		}
		if newHead == invalidPgno {
			newHead = newPn
		}
		counters.overflow++
		prevNew = dst
		pn = src.nextPgno()
	}
	if prevNew != nil {
		if err := tp.writePageAt(prevNew); err != nil {
			return invalidPgno, err
		}
	}
	return newHead, nil
}

// Clear performs the same atomic file-replace as Compact but copies no
// tree pages — a factory reset that preserves the current tag (§4.8).
func (e *Engine) Clear() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.metaMu.RLock()
	m := e.currentMeta
	e.metaMu.RUnlock()

	tmpPath := e.path + ".clear.tmp"
	tmpFile, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return wrapErr("clear", ErrCodeIO, err)
	}
	tmpPager := openPager(tmpFile, e.pageSize, e.opts.flags&NoPageChecksum != 0)

	hp := newPage(e.pageSize)
	h := &headerRecord{magic: headerMagic, formatVersion: FormatVersion, pageSize: uint32(e.pageSize), maxKeySize: uint32(e.maxKeySize)}
	h.encode(hp)
	if err := tmpPager.writePageAt(hp); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}

	metaPage := newPage(e.pageSize)
	metaPage.setPgno(1)
	newMeta := buildMeta(metaPage, nil, invalidPgno, 0, metaCounters{}, m.tag, metaMarker, time.Now())
	if err := tmpPager.writePageAt(metaPage); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpPager.sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return wrapErr("clear", ErrCodeIO, err)
	}

	if err := os.Rename(tmpPath, e.path); err != nil {
		return wrapErr("clear", ErrCodeIO, err)
	}

	oldLastPgno, err := e.pager.fileSizePages()
	if err == nil {
		tombPage := newPage(e.pageSize)
		tombPage.setPgno(oldLastPgno)
		buildMeta(tombPage, m, m.root, m.depth, metaCounters{m.entries, m.branches, m.leaves, m.overflowPages}, m.tag, metaTombstone, time.Now())
		_ = e.pager.appendPages([]*page{tombPage})
		_ = e.pager.sync()
		e.log.tombstoneDetected(e.path)
	}
	_ = e.pager.close()

	newFile, err := os.OpenFile(e.path, os.O_RDWR, 0644)
	if err != nil {
		return wrapErr("clear", ErrCodeIO, err)
	}
	e.file = newFile
	e.pager = openPager(newFile, e.pageSize, e.opts.flags&NoPageChecksum != 0)
	e.lock = newFileLock(int(newFile.Fd()))

	e.cacheMu.Lock()
	e.cache.clear()
	e.cacheMu.Unlock()

	e.metaMu.Lock()
	e.currentMeta = newMeta
	e.nextPgno = 2
	e.metaMu.Unlock()

	return nil
}

// Revert truncates the file to the byte length implied by the
// previous meta's pgno and adopts that meta, undoing the last commit
// (§4.8).
func (e *Engine) Revert() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.metaMu.RLock()
	cur := e.currentMeta
	e.metaMu.RUnlock()

	if cur.prevMeta == invalidPgno {
		return newErr("revert", ErrCodeInvalidArg)
	}
	if err := e.truncateToMeta(cur.prevMeta); err != nil {
		return err
	}
	e.metrics.rollbacks.Inc()
	return nil
}

// Rollback behaves like Revert but addresses the target meta directly
// via prevMeta and verifies the page found there really is a meta
// before adopting it (§4.8).
func (e *Engine) Rollback() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.metaMu.RLock()
	cur := e.currentMeta
	e.metaMu.RUnlock()

	if cur.prevMeta == invalidPgno {
		return newErr("rollback", ErrCodeInvalidArg)
	}
	p, err := e.pager.readPage(cur.prevMeta)
	if err != nil {
		return err
	}
	if !p.isMeta() {
		return newErr("rollback", ErrCodeCorrupt)
	}
	if err := e.truncateToMeta(cur.prevMeta); err != nil {
		return err
	}
	e.metrics.rollbacks.Inc()
	return nil
}

// truncateToMeta validates the page at targetPgno as a meta, truncates
// the file to end immediately after it, adopts it as current, and
// clears the cache (stale pages beyond the new end must not linger).
func (e *Engine) truncateToMeta(targetPgno pgno) error {
	p, err := e.pager.readPage(targetPgno)
	if err != nil {
		return err
	}
	m, err := parseAndValidateMeta(p)
	if err != nil {
		return err
	}

	newSize := (int64(targetPgno) + 1) * int64(e.pageSize)
	if err := e.pager.truncate(newSize); err != nil {
		return err
	}
	if err := e.pager.sync(); err != nil {
		return err
	}
	e.log.revertTruncate(e.path, newSize)

	e.cacheMu.Lock()
	e.cache.clear()
	e.cacheMu.Unlock()

	e.metaMu.Lock()
	e.currentMeta = m
	e.nextPgno = targetPgno + 1
	e.metaMu.Unlock()

	return nil
}
