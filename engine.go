package barrow

import (
	"os"
	"sync"
	"time"
)

// Engine is a handle on one open data file (§2, §6). A single process
// holds the engine open; multiple read transactions run concurrently
// against independent snapshots, and at most one write transaction
// exists at a time, serialized by writeMu plus the OS-level file
// lock.
type Engine struct {
	path string
	file *os.File
	pager *pager
	lock  *fileLock

	opts       Options
	pageSize   int
	maxKeySize int
	comparator Comparator

	writeMu sync.Mutex // held by the open write txn; Begin(false) fails with ErrBusy while it is held, before the file lock is attempted

	metaMu      sync.RWMutex
	currentMeta *metaRecord
	nextPgno    pgno

	cacheMu sync.Mutex
	cache   *pageCache

	metrics *engineMetrics
	log     loggerFacade
}

// Open opens (or creates, if it does not exist) the data file at path
// (§6). Creation writes the header page and an initial empty-tree
// meta; an existing file is validated via the header and the most
// recent meta (honoring UseMarker, and failing with ErrStale if the
// latest meta is a tombstone — the caller should reopen after
// resolving what replaced the file).
func Open(path string, opts Options) (*Engine, error) {
	def := DefaultOptions()
	if opts.pageSize == 0 {
		opts.pageSize = def.pageSize
	}
	if opts.cacheSize == 0 {
		opts.cacheSize = def.cacheSize
	}
	if opts.maxKeySize == 0 {
		opts.maxKeySize = def.maxKeySize
	}
	if opts.pageSize < minPageSize || opts.pageSize > maxPageSize {
		return nil, newErr("open", ErrCodeInvalidArg)
	}
	flag := os.O_RDWR | os.O_CREATE
	if opts.flags&ReadOnly != 0 {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, wrapErr("open", ErrCodeIO, err)
	}

	e := &Engine{
		path:       path,
		file:       f,
		pager:      openPager(f, opts.pageSize, opts.flags&NoPageChecksum != 0),
		lock:       newFileLock(int(f.Fd())),
		opts:       opts,
		pageSize:   opts.pageSize,
		maxKeySize: opts.maxKeySize,
		comparator: opts.resolveComparator(),
		cache:      newPageCache(opts.cacheSize, opts.pageSize),
		metrics:    newEngineMetrics(opts.registerer),
		log:        loggerFacade{opts.logger},
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrapErr("open", ErrCodeIO, err)
	}

	if fi.Size() == 0 {
		if opts.flags&ReadOnly != 0 {
			f.Close()
			return nil, newErr("open", ErrCodeInvalidArg)
		}
		if err := e.create(); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if err := e.loadExisting(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return e, nil
}

// create initializes a brand-new data file: header page, then an
// initial empty-tree meta (§3 Lifecycle, §6).
func (e *Engine) create() error {
	hp := newPage(e.pageSize)
	h := &headerRecord{
		magic:         headerMagic,
		formatVersion: FormatVersion,
		pageSize:      uint32(e.pageSize),
		maxKeySize:    uint32(e.maxKeySize),
	}
	h.encode(hp)
	if err := e.pager.writePageAt(hp); err != nil {
		return err
	}

	metaPage := newPage(e.pageSize)
	metaPage.setPgno(1)
	m := buildMeta(metaPage, nil, invalidPgno, 0, metaCounters{}, 0, metaMarker, time.Now())
	if err := e.pager.appendPages([]*page{metaPage}); err != nil {
		return err
	}
	if e.opts.flags&NoSync == 0 {
		if err := e.pager.sync(); err != nil {
			return err
		}
	}

	e.currentMeta = m
	e.nextPgno = 2
	return nil
}

// loadExisting validates the header and resolves the latest meta
// (§4.4, §6).
func (e *Engine) loadExisting() error {
	hp, err := e.pager.readPage(0)
	if err != nil {
		return err
	}
	h, err := decodeHeader(hp)
	if err != nil {
		return err
	}
	if int(h.pageSize) != e.pageSize {
		e.pageSize = int(h.pageSize)
		e.pager.pageSize = e.pageSize
		e.cache = newPageCache(e.opts.cacheSize, e.pageSize)
	}
	e.maxKeySize = int(h.maxKeySize)

	m, err := readMeta(e.pager, e.opts.flags&UseMarker != 0)
	if err != nil {
		return err
	}
	e.currentMeta = m

	lastPgno, err := e.pager.fileSizePages()
	if err != nil {
		return err
	}
	e.nextPgno = lastPgno
	return nil
}

// Close flushes nothing further (writes are already durable at
// commit) and releases the file handle.
func (e *Engine) Close() error {
	e.cacheMu.Lock()
	e.cache.clear()
	e.cacheMu.Unlock()
	return e.pager.close()
}

// Sync stamps a fresh MARKER meta even absent further commits, by
// opening a transient write transaction internally (§9's resolution
// of the btree_sync Open Question, recorded in SPEC_FULL.md §12): it
// behaves exactly like committing a no-op write with the current
// tag, and is therefore subject to the same single-writer exclusion
// as any other write transaction — a concurrent Begin(false) will see
// ErrBusy for the duration.
func (e *Engine) Sync() error {
	t, err := e.Begin(false)
	if err != nil {
		return err
	}
	return t.Commit(t.meta.tag)
}

// Stat reports tree and file statistics (§6).
type Stat struct {
	Branches  uint64
	Leaves    uint64
	Overflow  uint64
	Depth     uint32
	Entries   uint64
	PageSize  int
	Tag       uint32
	Revisions uint64
}

func (e *Engine) Stat() Stat {
	e.metaMu.RLock()
	defer e.metaMu.RUnlock()
	m := e.currentMeta
	return Stat{
		Branches:  m.branches,
		Leaves:    m.leaves,
		Overflow:  m.overflowPages,
		Depth:     m.depth,
		Entries:   m.entries,
		PageSize:  e.pageSize,
		Tag:       m.tag,
		Revisions: m.revision,
	}
}

// SetCmp installs a user comparator for subsequent transactions.
// Per §4.6/§9 this disables prefix compression from this point on.
func (e *Engine) SetCmp(cmp Comparator) {
	e.comparator = cmp
	e.opts.comparator = cmp
}

// SetCacheSize records n as the page cache's capacity setting. The
// number of resident pages stays bounded by the slot pool allocated
// when the engine was opened, so this call neither grows nor shrinks
// the cache, and it evicts nothing.
func (e *Engine) SetCacheSize(n int) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.opts.cacheSize = n
	e.cache.capacity = n
}

// --- convenience wrappers over a one-shot transaction (§6) ---

// Get reads key using a fresh read-only transaction.
func (e *Engine) Get(key []byte) ([]byte, error) {
	t, err := e.Begin(true)
	if err != nil {
		return nil, err
	}
	return t.Get(key)
}

// Put writes key/value using a fresh write transaction, committing
// with tag 0 on success.
func (e *Engine) Put(key, value []byte, flags PutFlags) error {
	t, err := e.Begin(false)
	if err != nil {
		return err
	}
	if err := t.Put(key, value, flags); err != nil {
		t.Abort()
		return err
	}
	return t.Commit(0)
}

// Del deletes key using a fresh write transaction, committing with
// tag 0 on success.
func (e *Engine) Del(key []byte) error {
	t, err := e.Begin(false)
	if err != nil {
		return err
	}
	if err := t.Del(key); err != nil {
		t.Abort()
		return err
	}
	return t.Commit(0)
}
