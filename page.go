package barrow

import (
	"encoding/binary"
)

// page wraps a single fixed-size page buffer with header accessors.
// Layout (§6, pageHeaderSize == 20 bytes):
//
//	offset  size  field
//	0       4     pgno
//	4       2     pad
//	6       2     flags
//	8       4     checksum
//	12      2     lower   (branch/leaf/meta/head)  \_ union with
//	14      2     upper   (branch/leaf/meta/head)  /  next_pgno below
//	12      4     next_pgno (overflow pages only)
//	16      4     reserved
//	20      ...   slot array + node heap (branch/leaf only)
//
// Slots are 16-bit offsets (relative to the end of the page header)
// into the node heap, stored low-to-high; node data is packed from
// the high end of the page downward, a classic slotted page.
type page struct {
	data []byte
}

func newPage(size int) *page { return &page{data: make([]byte, size)} }

func (p *page) pgno() pgno       { return pgno(binary.LittleEndian.Uint32(p.data[0:4])) }
func (p *page) setPgno(n pgno)   { binary.LittleEndian.PutUint32(p.data[0:4], uint32(n)) }
func (p *page) flags() pageFlags { return pageFlags(binary.LittleEndian.Uint16(p.data[6:8])) }
func (p *page) setFlags(f pageFlags) {
	binary.LittleEndian.PutUint16(p.data[6:8], uint16(f))
}
func (p *page) checksum() uint32 { return binary.LittleEndian.Uint32(p.data[8:12]) }
func (p *page) setChecksum(c uint32) {
	binary.LittleEndian.PutUint32(p.data[8:12], c)
}

func (p *page) lower() uint16 { return binary.LittleEndian.Uint16(p.data[12:14]) }
func (p *page) setLower(v uint16) {
	binary.LittleEndian.PutUint16(p.data[12:14], v)
}
func (p *page) upper() uint16 { return binary.LittleEndian.Uint16(p.data[14:16]) }
func (p *page) setUpper(v uint16) {
	binary.LittleEndian.PutUint16(p.data[14:16], v)
}

func (p *page) nextPgno() pgno { return pgno(binary.LittleEndian.Uint32(p.data[12:16])) }
func (p *page) setNextPgno(n pgno) {
	binary.LittleEndian.PutUint32(p.data[12:16], uint32(n))
}

func (p *page) isBranch() bool   { return p.flags()&flagBranch != 0 }
func (p *page) isLeaf() bool     { return p.flags()&flagLeaf != 0 }
func (p *page) isOverflow() bool { return p.flags()&flagOverflow != 0 }
func (p *page) isMeta() bool     { return p.flags()&flagMeta != 0 }
func (p *page) isHead() bool     { return p.flags()&flagHead != 0 }

// numSlots returns the number of node slots on a branch/leaf page.
func (p *page) numSlots() int { return int(p.lower()) >> 1 }

// slotOffset returns the absolute byte offset (from page start) of
// node i's record.
func (p *page) slotOffset(i int) int {
	rel := binary.LittleEndian.Uint16(p.data[pageHeaderSize+i*2:])
	return pageHeaderSize + int(rel)
}

func (p *page) setSlot(i int, relOffset uint16) {
	binary.LittleEndian.PutUint16(p.data[pageHeaderSize+i*2:], relOffset)
}

// freeSpace is the number of bytes available between the slot array
// and the node heap.
func (p *page) freeSpace() int { return int(p.upper()) - int(p.lower()) }

// usableArea is the page area available for slots + node heap,
// excluding the fixed header. Used for fill-percentage accounting.
func (p *page) usableArea() int { return len(p.data) - pageHeaderSize }

// fillPercent returns PAGEFILL: the percentage of usable area in use.
func (p *page) fillPercent() int {
	if p.usableArea() == 0 {
		return 100
	}
	used := p.usableArea() - p.freeSpace()
	return used * 100 / p.usableArea()
}

// initBranchLeaf resets a page's header to an empty branch/leaf page.
func (p *page) initBranchLeaf(pn pgno, f pageFlags) {
	for i := range p.data {
		p.data[i] = 0
	}
	p.setPgno(pn)
	p.setFlags(f)
	p.setLower(0)
	p.setUpper(uint16(len(p.data) - pageHeaderSize))
}

// initOverflow resets a page's header to an overflow page pointing at
// next (invalidPgno if this is the chain's tail).
func (p *page) initOverflow(pn pgno, next pgno) {
	for i := range p.data {
		p.data[i] = 0
	}
	p.setPgno(pn)
	p.setFlags(flagOverflow)
	p.setNextPgno(next)
}

// nodeRecord returns the raw bytes of slot i (header + key + data),
// using calcNodeSize to determine its length.
func (p *page) nodeRecord(i int) []byte {
	off := p.slotOffset(i)
	sz := p.calcNodeSize(i)
	return p.data[off : off+sz]
}

// calcNodeSize computes the on-disk size of the node at slot i.
func (p *page) calcNodeSize(i int) int {
	off := p.slotOffset(i)
	ksize := int(binary.LittleEndian.Uint16(p.data[off+2 : off+4]))
	if p.isBranch() {
		return nodeHeaderSize + ksize
	}
	flags := nodeFlags(p.data[off])
	if flags&nodeBig != 0 {
		return nodeHeaderSize + ksize + 4
	}
	dsize := int(binary.LittleEndian.Uint32(p.data[off+4 : off+8]))
	return nodeHeaderSize + ksize + dsize
}

// insertSlot inserts a node record at slot index idx, shifting later
// slots right. Returns false if there isn't room (caller should
// compact or split).
func (p *page) insertSlot(idx int, record []byte) bool {
	n := p.numSlots()
	if idx < 0 || idx > n {
		return false
	}
	need := 2 + len(record)
	if p.freeSpace() < need {
		if p.compact() == 0 || p.freeSpace() < need {
			return false
		}
	}
	newUpper := p.upper() - uint16(len(record))
	copy(p.data[pageHeaderSize+int(newUpper):], record)
	p.setUpper(newUpper)

	slotsStart := pageHeaderSize
	if idx < n {
		src := slotsStart + idx*2
		dst := src + 2
		copy(p.data[dst:dst+(n-idx)*2], p.data[src:src+(n-idx)*2])
	}
	p.setSlot(idx, newUpper)
	p.setLower(p.lower() + 2)
	return true
}

// removeSlot deletes slot idx, shifting later slots left. Leaves a
// hole in the node heap; call compact to reclaim it.
func (p *page) removeSlot(idx int) {
	n := p.numSlots()
	if idx < 0 || idx >= n {
		return
	}
	slotsStart := pageHeaderSize
	if idx < n-1 {
		src := slotsStart + (idx+1)*2
		dst := slotsStart + idx*2
		copy(p.data[dst:dst+(n-1-idx)*2], p.data[src:src+(n-1-idx)*2])
	}
	p.setLower(p.lower() - 2)
}

// truncateFrom drops all slots at and after idx (bulk removal used
// during split). Does not reclaim heap space; compact separately.
func (p *page) truncateFrom(idx int) {
	n := p.numSlots()
	if idx < 0 || idx >= n {
		return
	}
	p.setLower(p.lower() - uint16((n-idx)*2))
}

// updateSlot replaces the record at idx in place if it fits in the
// existing slot's allocation, otherwise reallocates from upper.
func (p *page) updateSlot(idx int, record []byte) bool {
	n := p.numSlots()
	if idx < 0 || idx >= n {
		return false
	}
	oldSize := p.calcNodeSize(idx)
	if len(record) <= oldSize {
		off := p.slotOffset(idx)
		copy(p.data[off:], record)
		return true
	}
	extra := len(record) - oldSize
	if p.freeSpace() < extra {
		return false
	}
	newUpperInt := int(p.upper()) - len(record)
	if newUpperInt < int(p.lower()) {
		return false
	}
	newUpper := uint16(newUpperInt)
	copy(p.data[pageHeaderSize+int(newUpper):], record)
	p.setUpper(newUpper)
	p.setSlot(idx, newUpper)
	return true
}

// compact repacks the node heap to eliminate holes left by removed or
// relocated slots. Returns the number of bytes reclaimed.
func (p *page) compact() int {
	n := p.numSlots()
	oldUpper := p.upper()
	if n == 0 {
		p.setUpper(uint16(len(p.data) - pageHeaderSize))
		return int(p.upper()) - int(oldUpper)
	}

	sizes := make([]int, n)
	total := 0
	for i := 0; i < n; i++ {
		sizes[i] = p.calcNodeSize(i)
		total += sizes[i]
	}

	tmp := make([]byte, total)
	pos := 0
	for i := 0; i < n; i++ {
		off := p.slotOffset(i)
		copy(tmp[pos:pos+sizes[i]], p.data[off:off+sizes[i]])
		pos += sizes[i]
	}

	writePos := len(p.data)
	pos = 0
	for i := 0; i < n; i++ {
		writePos -= sizes[i]
		copy(p.data[writePos:writePos+sizes[i]], tmp[pos:pos+sizes[i]])
		pos += sizes[i]
		p.setSlot(i, uint16(writePos-pageHeaderSize))
	}
	p.setUpper(uint16(writePos - pageHeaderSize))
	return int(p.upper()) - int(oldUpper)
}

// splitPoint picks the slot index at which to divide this page so
// that, after inserting a node of newSize at insertIdx, both halves
// fit within maxUsable bytes. Searches outward from the midpoint.
func (p *page) splitPoint(newSize, insertIdx, maxUsable int) int {
	n := p.numSlots()
	if n == 0 {
		return 0
	}
	sizes := make([]int, n)
	total := 0
	for i := 0; i < n; i++ {
		sizes[i] = p.calcNodeSize(i)
		total += sizes[i]
	}

	valid := func(split int) bool {
		if split < 0 || split > n {
			return false
		}
		leftData, leftCount := 0, split
		for i := 0; i < split; i++ {
			leftData += sizes[i]
		}
		rightData, rightCount := total-leftData, n-split
		if insertIdx < split {
			leftCount++
			leftData += newSize
		} else {
			rightCount++
			rightData += newSize
		}
		if leftCount == 0 || rightCount == 0 {
			return false
		}
		return leftCount*2+leftData <= maxUsable && rightCount*2+rightData <= maxUsable
	}

	mid := n / 2
	if mid == 0 {
		mid = 1
	}
	if valid(mid) {
		return mid
	}
	for delta := 1; delta <= n; delta++ {
		if mid-delta >= 0 && valid(mid-delta) {
			return mid - delta
		}
		if mid+delta <= n && valid(mid+delta) {
			return mid + delta
		}
	}
	return mid
}
