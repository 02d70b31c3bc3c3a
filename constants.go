package barrow

// Database format constants (§6 File format).
const (
	// headerMagic identifies a barrow data file.
	headerMagic uint32 = 0xBA11045D // "barrow" ~> arbitrary but stable

	// maxPageSize and minPageSize bound the configurable page size P.
	minPageSize = 512
	maxPageSize = 1 << 16

	// defaultPageSize is used when Options.PageSize is zero.
	defaultPageSize = 4096

	// defaultMaxKeySize is K, the maximum key size (§3).
	defaultMaxKeySize = 255

	// pageHeaderSize is the fixed prefix of every page (§6).
	pageHeaderSize = 20

	// nodeHeaderSize is the fixed prefix of every node record.
	nodeHeaderSize = 8

	// fillThresholdPercent is the rebalance trigger: PAGEFILL below
	// this percentage of usable page area makes a page a rebalance
	// candidate (§3 invariants, §4.6).
	fillThresholdPercent = 25

	// btMinKeys gates forced overflow: a leaf value >= P/btMinKeys is
	// spilled onto an overflow chain (§4.3).
	btMinKeys = 4

	// commitBatchPages is the max number of pages written per vectored
	// append (BT_COMMIT_PAGES in spec §4.1).
	commitBatchPages = 64
)

// pageFlags is the page type/state flag set (§3: subset of {HEAD,
// META, BRANCH, LEAF, OVERFLOW}).
type pageFlags uint16

const (
	flagHead pageFlags = 1 << iota
	flagMeta
	flagBranch
	flagLeaf
	flagOverflow
)

func (f pageFlags) String() string {
	switch {
	case f&flagHead != 0:
		return "head"
	case f&flagMeta != 0:
		return "meta"
	case f&flagBranch != 0:
		return "branch"
	case f&flagLeaf != 0:
		return "leaf"
	case f&flagOverflow != 0:
		return "overflow"
	default:
		return "unknown"
	}
}

// nodeFlags tags a leaf/branch node record.
type nodeFlags uint8

const (
	// nodeBig marks a leaf node whose data lives on an overflow chain;
	// the node's data region holds a pgno_t instead of raw bytes.
	nodeBig nodeFlags = 1 << iota
)

// metaFlags tags a meta page (§3).
type metaFlags uint16

const (
	// metaMarker marks a durable, fsync'd commit point.
	metaMarker metaFlags = 1 << iota
	// metaTombstone marks a meta belonging to a file that has been
	// replaced by compact/clear; readers must reopen.
	metaTombstone
)

// pgno is a page number.
type pgno uint32

// invalidPgno is the empty-tree / absent-link marker (§3).
const invalidPgno pgno = 0xFFFFFFFF

// Engine open flags (§6).
type OpenFlags uint32

const (
	// ReadOnly opens the engine without ever acquiring the write lock.
	ReadOnly OpenFlags = 1 << iota
	// ReverseKey compares keys in reverse byte order.
	ReverseKey
	// NoSync skips fsync after writing dirty pages (still writes a
	// meta page; durability is only as good as the OS page cache).
	NoSync
	// UseMarker requires a MARKER flag on the meta accepted by
	// readMeta; metas without it are skipped in favor of prev_meta.
	UseMarker
	// NoPageChecksum disables per-page CRC verification on read and
	// computation on write (diagnostic/performance escape hatch).
	NoPageChecksum
)

// Put flags (§6).
type PutFlags uint32

const (
	// PutNoOverwrite fails with ErrExists if the key already exists.
	PutNoOverwrite PutFlags = 1 << iota
	// PutAllowDups appends next to an existing entry instead of
	// replacing it (duplicates are kept contiguous in the leaf).
	PutAllowDups
)

// CursorOp names the cursor positioning operations. Cursor exposes
// each one as a method (First, Last, Seek, SeekExact, Next, Prev); no
// function takes a CursorOp argument.
type CursorOp int

const (
	CursorFirst CursorOp = iota
	CursorLast
	CursorSeek
	CursorSeekExact
	CursorNext
	CursorPrev
)
