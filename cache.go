package barrow

import (
	"container/list"

	"github.com/barrowdb/barrow/internal/bitmap"
	"github.com/barrowdb/barrow/internal/fastmap"
)

// cachedPage is one resident entry in the page cache: the page buffer
// itself, a reference count (pages pinned by an open cursor or an
// in-flight txn may not be evicted), and whether it has been mutated
// since it was faulted in or COW-cloned (dirty pages are what a
// commit writes back; §4.1, §4.5).
type cachedPage struct {
	page  *page
	slot  uint32
	refs  int
	dirty bool
	elem  *list.Element // this entry's node in the cache's LRU list
}

// pageCache is a bounded pgno -> *cachedPage index with LRU eviction.
// Design Notes in spec.md call for "ordered map / hash map +
// doubly-linked LRU, no intrusive linkage into page buffers" — built
// here from three pieces, each doing one job:
//
//   - internal/bitmap allocates/frees a fixed number of slots, which
//     bounds how many pages are resident; each slot holds a pointer
//     to its page (page buffers themselves are not reused).
//   - internal/fastmap indexes pgno -> LRU list element (whose value
//     is the slot) for O(1) lookup.
//   - container/list threads the slots into an LRU order; none of the
//     example repos carry a third-party container library for this,
//     so the standard library's doubly-linked list is used directly
//     (see DESIGN.md).
type pageCache struct {
	slots    []*page
	slab     *bitmap.Bitmap
	index    fastmap.Uint32Map[*list.Element]
	entries  map[uint32]*cachedPage // slot -> cachedPage, keyed off bitmap slot
	lru      *list.List             // list.Element.Value is uint32 (slot)
	capacity int
	pageSize int
}

func newPageCache(capacity, pageSize int) *pageCache {
	if capacity < 1 {
		capacity = 1
	}
	return &pageCache{
		slots:    make([]*page, capacity),
		slab:     bitmap.NewBitmap(uint32(capacity)),
		entries:  make(map[uint32]*cachedPage, capacity),
		lru:      list.New(),
		capacity: capacity,
		pageSize: pageSize,
	}
}

// get returns the cached page for pgno, moving it to the front of the
// LRU list (most recently used), or nil if not resident.
func (c *pageCache) get(pn pgno) *cachedPage {
	elem, ok := c.index.Get(uint32(pn))
	if !ok {
		return nil
	}
	c.lru.MoveToFront(elem)
	return c.entries[elem.Value.(uint32)]
}

// put inserts or replaces the cached page for pgno, evicting unpinned
// LRU entries as needed to stay within capacity. Returns nil if the
// cache is full of pinned/dirty pages and p could not be admitted.
func (c *pageCache) put(pn pgno, p *page) *cachedPage {
	if elem, ok := c.index.Get(uint32(pn)); ok {
		slot := elem.Value.(uint32)
		cp := c.entries[slot]
		cp.page = p
		c.lru.MoveToFront(elem)
		return cp
	}

	slot, ok := c.slab.Allocate()
	for !ok && c.evictOne() {
		slot, ok = c.slab.Allocate()
	}
	if !ok {
		return nil
	}

	c.slots[slot] = p
	cp := &cachedPage{page: p, slot: slot}
	elem := c.lru.PushFront(slot)
	cp.elem = elem
	c.entries[slot] = cp
	c.index.Set(uint32(pn), elem)
	return cp
}

// evictOne drops the least-recently-used unpinned, clean entry.
// Returns false if every resident page is pinned or dirty.
func (c *pageCache) evictOne() bool {
	for e := c.lru.Back(); e != nil; e = e.Prev() {
		slot := e.Value.(uint32)
		cp := c.entries[slot]
		if cp.refs > 0 || cp.dirty {
			continue
		}
		c.lru.Remove(e)
		c.index.Delete(uint32(cp.page.pgno()))
		delete(c.entries, slot)
		c.slots[slot] = nil
		c.slab.Free(slot)
		return true
	}
	return false
}

// remove drops pgno from the cache unconditionally (used when a merge
// drops a page from the tree).
func (c *pageCache) remove(pn pgno) {
	elem, ok := c.index.Get(uint32(pn))
	if !ok {
		return
	}
	slot := elem.Value.(uint32)
	c.lru.Remove(elem)
	c.index.Delete(uint32(pn))
	delete(c.entries, slot)
	c.slots[slot] = nil
	c.slab.Free(slot)
}

// pin/unpin adjust a cached page's reference count. A pinned page is
// never evicted, regardless of LRU position.
func (c *pageCache) pin(cp *cachedPage) { cp.refs++ }
func (c *pageCache) unpin(cp *cachedPage) {
	if cp.refs > 0 {
		cp.refs--
	}
}

// len reports the number of resident pages.
func (c *pageCache) len() int { return c.index.Len() }

// clear discards all cached entries regardless of pin state; used by
// compact/revert/rollback, which invalidate every cached page wholesale.
func (c *pageCache) clear() {
	c.index.Clear()
	c.lru.Init()
	c.slab.Clear()
	for k := range c.entries {
		delete(c.entries, k)
	}
	for i := range c.slots {
		c.slots[i] = nil
	}
}
