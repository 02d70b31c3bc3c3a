package barrow

// cursorFrame is one level of a cursor's positional stack: the page at
// this level and the slot index the cursor currently points at within
// it.
type cursorFrame struct {
	p   *page
	idx int
}

// Cursor walks a txn's snapshot in key order, forward or backward
// (§4.7). A cursor opened against a write txn sees that txn's own
// uncommitted mutations, consistent with Txn.getPage's dirty-set
// precedence. A cursor is only valid for the lifetime of the txn that
// opened it; using it afterward is a programming error.
type Cursor struct {
	t       *Txn
	stack   []cursorFrame
	valid   bool
	initErr error
}

func newCursor(t *Txn) *Cursor {
	return &Cursor{t: t}
}

// CursorOpen opens a new cursor against this transaction's snapshot.
func (t *Txn) CursorOpen() *Cursor {
	return newCursor(t)
}

// Close releases the cursor. Snapshot pages are owned by the engine
// cache / txn dirty set, not the cursor, so there is nothing to pin or
// unpin beyond dropping the stack.
func (c *Cursor) Close() {
	c.stack = nil
	c.valid = false
}

// descendToFirst pushes frames from pn down to the leftmost leaf,
// leaving the cursor on that leaf's slot 0 (possibly an empty leaf, in
// an otherwise-empty tree).
func (c *Cursor) descendToFirst(pn pgno) error {
	for {
		p, err := c.t.getPage(pn)
		if err != nil {
			return err
		}
		c.stack = append(c.stack, cursorFrame{p: p, idx: 0})
		if p.isLeaf() {
			return nil
		}
		pn = nodeChildPgnoAt(p.nodeRecord(0))
	}
}

// descendToLast pushes frames from pn down to the rightmost leaf,
// leaving the cursor on that leaf's last slot.
func (c *Cursor) descendToLast(pn pgno) error {
	for {
		p, err := c.t.getPage(pn)
		if err != nil {
			return err
		}
		n := p.numSlots()
		last := n - 1
		if last < 0 {
			last = 0
		}
		c.stack = append(c.stack, cursorFrame{p: p, idx: last})
		if p.isLeaf() {
			return nil
		}
		pn = nodeChildPgnoAt(p.nodeRecord(last))
	}
}

// descendToKey pushes frames from pn down to the leaf that would hold
// key, leaving the cursor at the smallest slot whose key is >= key.
func (c *Cursor) descendToKey(pn pgno, key []byte) error {
	for {
		p, err := c.t.getPage(pn)
		if err != nil {
			return err
		}
		if p.isLeaf() {
			idx, _ := leafSearch(p, key, c.t.engine.comparator)
			c.stack = append(c.stack, cursorFrame{p: p, idx: idx})
			return nil
		}
		idx := branchSearch(p, key, c.t.engine.comparator)
		c.stack = append(c.stack, cursorFrame{p: p, idx: idx})
		pn = nodeChildPgnoAt(p.nodeRecord(idx))
	}
}

func (c *Cursor) reset() {
	c.stack = c.stack[:0]
	c.valid = false
}

func (c *Cursor) leafFrame() *cursorFrame {
	if len(c.stack) == 0 {
		return nil
	}
	return &c.stack[len(c.stack)-1]
}

// First positions the cursor at the smallest key.
func (c *Cursor) First() bool {
	c.reset()
	if c.t.root == invalidPgno {
		return false
	}
	if err := c.descendToFirst(c.t.root); err != nil {
		c.initErr = err
		return false
	}
	lf := c.leafFrame()
	c.valid = lf != nil && lf.idx < lf.p.numSlots()
	return c.valid
}

// Last positions the cursor at the largest key.
func (c *Cursor) Last() bool {
	c.reset()
	if c.t.root == invalidPgno {
		return false
	}
	if err := c.descendToLast(c.t.root); err != nil {
		c.initErr = err
		return false
	}
	lf := c.leafFrame()
	c.valid = lf != nil && lf.idx < lf.p.numSlots() && lf.p.numSlots() > 0
	return c.valid
}

// Seek positions the cursor at the smallest key >= key.
func (c *Cursor) Seek(key []byte) bool {
	c.reset()
	if c.t.root == invalidPgno {
		return false
	}
	if err := c.descendToKey(c.t.root, key); err != nil {
		c.initErr = err
		return false
	}
	lf := c.leafFrame()
	if lf != nil && lf.idx >= lf.p.numSlots() && c.sibling(1) {
		// Every key on the candidate leaf is < key: the answer is the
		// first key of the next leaf.
		lf = c.leafFrame()
	}
	c.valid = lf != nil && lf.idx < lf.p.numSlots()
	return c.valid
}

// SeekExact positions the cursor only on an exact key match.
func (c *Cursor) SeekExact(key []byte) bool {
	if !c.Seek(key) {
		return false
	}
	lf := c.leafFrame()
	k := nodeKeyAt(lf.p.nodeRecord(lf.idx))
	if c.t.engine.comparator(k, key) != 0 {
		c.valid = false
		return false
	}
	return true
}

// sibling walks the stack upward to find the nearest ancestor with a
// next (dir > 0) or previous (dir < 0) child, then descends back down
// to the corresponding edge leaf. Shared by Next and Prev. Returns
// false if there is no such sibling (cursor exhausted in that
// direction).
func (c *Cursor) sibling(dir int) bool {
	for level := len(c.stack) - 2; level >= 0; level-- {
		fr := &c.stack[level]
		nextIdx := fr.idx + dir
		if nextIdx < 0 || nextIdx >= fr.p.numSlots() {
			continue
		}
		fr.idx = nextIdx
		c.stack = c.stack[:level+1]
		childPgno := nodeChildPgnoAt(fr.p.nodeRecord(nextIdx))
		var err error
		if dir > 0 {
			err = c.descendToFirst(childPgno)
		} else {
			err = c.descendToLast(childPgno)
		}
		if err != nil {
			c.initErr = err
			c.valid = false
			return false
		}
		return true
	}
	return false
}

// Next advances to the next key in ascending order.
func (c *Cursor) Next() bool {
	if !c.valid {
		return false
	}
	lf := c.leafFrame()
	if lf.idx+1 < lf.p.numSlots() {
		lf.idx++
		return true
	}
	if !c.sibling(1) {
		c.valid = false
		return false
	}
	lf = c.leafFrame()
	c.valid = lf != nil && lf.idx < lf.p.numSlots()
	return c.valid
}

// Prev moves to the previous key in ascending order (i.e. advances in
// descending order).
func (c *Cursor) Prev() bool {
	if !c.valid {
		return false
	}
	lf := c.leafFrame()
	if lf.idx > 0 {
		lf.idx--
		return true
	}
	if !c.sibling(-1) {
		c.valid = false
		return false
	}
	lf = c.leafFrame()
	c.valid = lf != nil && lf.p.numSlots() > 0
	if c.valid {
		lf.idx = lf.p.numSlots() - 1
	}
	return c.valid
}

// Key returns the current key, or nil if the cursor isn't positioned.
func (c *Cursor) Key() []byte {
	if !c.valid {
		return nil
	}
	lf := c.leafFrame()
	k := nodeKeyAt(lf.p.nodeRecord(lf.idx))
	out := make([]byte, len(k))
	copy(out, k)
	return out
}

// Value returns the current value, resolving an overflow chain if
// necessary, or an error if the cursor isn't positioned.
func (c *Cursor) Value() ([]byte, error) {
	if !c.valid {
		return nil, newErr("cursor.value", ErrCodeNotFound)
	}
	lf := c.leafFrame()
	return c.t.readValue(lf.p.nodeRecord(lf.idx))
}

// Valid reports whether the cursor is currently positioned on an
// entry.
func (c *Cursor) Valid() bool { return c.valid }

// Err returns the first error encountered while positioning the
// cursor, if any.
func (c *Cursor) Err() error { return c.initErr }
