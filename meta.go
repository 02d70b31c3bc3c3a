package barrow

import "time"

// Meta page payload layout (§3, §6), stored starting at byte
// pageHeaderSize of a page flagged flagMeta:
//
//	offset  size  field
//	0       4     prevMeta (invalidPgno if this is the first meta)
//	4       4     root (invalidPgno if the tree is empty)
//	8       4     depth
//	12      8     entries
//	20      8     branches
//	28      8     leaves
//	36      8     overflowPages
//	44      8     revision
//	52      8     createdAt (unix nanoseconds)
//	60      4     tag
//	64      2     metaFlags (MARKER / TOMBSTONE)
const metaPayloadSize = 66

type metaRecord struct {
	pgno          pgno
	prevMeta      pgno
	root          pgno
	depth         uint32
	entries       uint64
	branches      uint64
	leaves        uint64
	overflowPages uint64
	revision      uint64
	createdAt     int64
	tag           uint32
	flags         metaFlags
}

func (m *metaRecord) encode(p *page) {
	for i := range p.data {
		p.data[i] = 0
	}
	p.setPgno(m.pgno)
	p.setFlags(flagMeta)
	b := p.data[pageHeaderSize:]
	putU32(b[0:], uint32(m.prevMeta))
	putU32(b[4:], uint32(m.root))
	putU32(b[8:], m.depth)
	putU64(b[12:], m.entries)
	putU64(b[20:], m.branches)
	putU64(b[28:], m.leaves)
	putU64(b[36:], m.overflowPages)
	putU64(b[44:], m.revision)
	putU64(b[52:], uint64(m.createdAt))
	putU32(b[60:], m.tag)
	putU16(b[64:], uint16(m.flags))
}

func decodeMeta(p *page) *metaRecord {
	b := p.data[pageHeaderSize:]
	return &metaRecord{
		pgno:          p.pgno(),
		prevMeta:      pgno(getU32(b[0:])),
		root:          pgno(getU32(b[4:])),
		depth:         getU32(b[8:]),
		entries:       getU64(b[12:]),
		branches:      getU64(b[20:]),
		leaves:        getU64(b[28:]),
		overflowPages: getU64(b[36:]),
		revision:      getU64(b[44:]),
		createdAt:     int64(getU64(b[52:])),
		tag:           getU32(b[60:]),
		flags:         metaFlags(getU16(b[64:])),
	}
}

// parseAndValidateMeta decodes a candidate meta page and applies the
// structural checks §4.4 requires of every meta: it must parse as a
// meta-flagged page and root must be strictly less than this meta's
// own pgno (INVALID is fine — an empty tree). The backward scan in
// readMeta skips a page that fails these checks and keeps scanning;
// readMetaWithTag, which follows prevMeta links, reports it as
// corruption.
func parseAndValidateMeta(p *page) (*metaRecord, error) {
	if !p.isMeta() {
		return nil, newErr("readMeta", ErrCodeCorrupt)
	}
	m := decodeMeta(p)
	if m.root != invalidPgno && m.root >= m.pgno {
		return nil, newErr("readMeta", ErrCodeCorrupt)
	}
	return m, nil
}

// readMeta implements §4.4's read_meta: starting from the last page
// in the file, scan backward until a valid meta is found.
//
// Resolution of the §9 Open Question on USE_MARKER skip semantics: a
// TOMBSTONE is terminal — the file has been replaced by compact/clear
// and the caller must reopen, full stop, regardless of requireMarker.
// A meta that parses and is not tombstoned but lacks MARKER while
// requireMarker is set is skipped in favor of walking to its
// prevMeta (not the page before it in file order — those coincide for
// an uncompacted file, but prevMeta is the authoritative link). This
// avoids reusing a stale "last seen candidate" across loop iterations,
// which is the ambiguity the source left unresolved.
func readMeta(pg *pager, requireMarker bool) (*metaRecord, error) {
	lastPgno, err := pg.fileSizePages()
	if err != nil {
		return nil, err
	}
	if lastPgno == 0 {
		return nil, newErr("readMeta", ErrCodeCorrupt)
	}

	pn := lastPgno - 1
	for {
		p, err := pg.readPage(pn)
		if err == nil && p.isMeta() {
			m, verr := parseAndValidateMeta(p)
			if verr == nil {
				if m.flags&metaTombstone != 0 {
					return nil, newErr("readMeta", ErrCodeStale)
				}
				if !requireMarker || m.flags&metaMarker != 0 {
					return m, nil
				}
				if m.prevMeta == invalidPgno {
					return nil, newErr("readMeta", ErrCodeCorrupt)
				}
				pn = m.prevMeta
				continue
			}
		}
		if pn == 0 {
			return nil, newErr("readMeta", ErrCodeCorrupt)
		}
		pn--
	}
}

// readMetaWithTag resolves the most recent meta, then walks prevMeta
// until one with a matching tag is found (§4.4).
func readMetaWithTag(pg *pager, tag uint32) (*metaRecord, error) {
	m, err := readMeta(pg, false)
	if err != nil {
		return nil, err
	}
	for {
		if m.tag == tag {
			return m, nil
		}
		if m.prevMeta == invalidPgno {
			return nil, newErr("readMetaWithTag", ErrCodeNotFound)
		}
		p, err := pg.readPage(m.prevMeta)
		if err != nil {
			return nil, err
		}
		m, err = parseAndValidateMeta(p)
		if err != nil {
			return nil, err
		}
	}
}

// metaCounters bundles the per-tree tallies stamped into each meta.
type metaCounters struct {
	entries  uint64
	branches uint64
	leaves   uint64
	overflow uint64
}

// buildMeta fills p (already allocated at the correct page size and
// pgno by the caller, which owns pgno allocation) with a new meta
// record linked to prev, and returns the decoded record alongside it
// (§4.4). The caller appends or writes p through the pager.
func buildMeta(p *page, prev *metaRecord, root pgno, depth uint32, counters metaCounters, tag uint32, flags metaFlags, now time.Time) *metaRecord {
	prevPgno := invalidPgno
	revision := uint64(0)
	if prev != nil {
		prevPgno = prev.pgno
		revision = prev.revision + 1
	}
	m := &metaRecord{
		pgno:          p.pgno(),
		prevMeta:      prevPgno,
		root:          root,
		depth:         depth,
		entries:       counters.entries,
		branches:      counters.branches,
		leaves:        counters.leaves,
		overflowPages: counters.overflow,
		revision:      revision,
		createdAt:     now.UnixNano(),
		tag:           tag,
		flags:         flags,
	}
	m.encode(p)
	return m
}
