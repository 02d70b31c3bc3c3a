package barrow

import (
	"io"
	"os"
)

// pager is the sole owner of the data file descriptor (§4.1). It
// never interprets page contents beyond the header fields needed to
// validate a read; everything above (cache, btree, txn) talks to the
// file only through this type.
type pager struct {
	f          *os.File
	pageSize   int
	noChecksum bool
}

func openPager(f *os.File, pageSize int, noChecksum bool) *pager {
	return &pager{f: f, pageSize: pageSize, noChecksum: noChecksum}
}

// fileSizePages returns the current file length in whole pages,
// rounding down; a trailing partial page (possible after a crash
// mid-write) is the caller's problem to trim before committing.
func (pg *pager) fileSizePages() (pgno, error) {
	fi, err := pg.f.Stat()
	if err != nil {
		return 0, wrapErr("stat", ErrCodeIO, err)
	}
	return pgno(fi.Size() / int64(pg.pageSize)), nil
}

// fileSizeBytes returns the exact current file length in bytes.
func (pg *pager) fileSizeBytes() (int64, error) {
	fi, err := pg.f.Stat()
	if err != nil {
		return 0, wrapErr("stat", ErrCodeIO, err)
	}
	return fi.Size(), nil
}

// readPage reads exactly one page at pn and validates it: a short
// read, a pgno mismatch, or (unless disabled) a checksum mismatch are
// all reported as errors rather than returned silently (§4.1).
func (pg *pager) readPage(pn pgno) (*page, error) {
	p := newPage(pg.pageSize)
	off := int64(pn) * int64(pg.pageSize)
	n, err := pg.f.ReadAt(p.data, off)
	if err != nil && err != io.EOF {
		return nil, wrapErr("readPage", ErrCodeIO, err)
	}
	if n != pg.pageSize {
		return nil, newErr("readPage", ErrCodeCorrupt)
	}
	if !p.isHead() && p.pgno() != pn {
		return nil, newErr("readPage", ErrCodeCorrupt)
	}
	if !pg.noChecksum && !p.isHead() && !verifyChecksum(p) {
		return nil, newErr("readPage", ErrCodeCorrupt)
	}
	return p, nil
}

// appendPages writes pages as a single vectored write at the current
// end of file, in batches of at most commitBatchPages (§4.1,
// BT_COMMIT_PAGES). Pages are expected to be contiguous pgnos
// beginning at the current file end; the caller (txn.commit) is
// responsible for that invariant.
func (pg *pager) appendPages(pages []*page) error {
	if !pg.noChecksum {
		for _, p := range pages {
			if !p.isHead() {
				stampChecksum(p)
			}
		}
	}

	off, err := pg.fileSizeBytes()
	if err != nil {
		return err
	}

	for start := 0; start < len(pages); start += commitBatchPages {
		end := start + commitBatchPages
		if end > len(pages) {
			end = len(pages)
		}
		batch := pages[start:end]

		buf := make([]byte, pg.pageSize*len(batch))
		for i, p := range batch {
			copy(buf[i*pg.pageSize:], p.data)
		}
		if _, err := pg.f.WriteAt(buf, off); err != nil {
			return wrapErr("appendPages", ErrCodeIO, err)
		}
		off += int64(len(buf))
	}
	return nil
}

// writePageAt writes a single page at the offset its pgno implies.
// Only used for the head page (P0) during create, and for every page
// of the replacement file that compact/clear build; the tombstone
// stamp on the old file goes through appendPages. The engine's steady
// state is strictly append-only (§3 invariants).
func (pg *pager) writePageAt(p *page) error {
	if !pg.noChecksum && !p.isHead() {
		stampChecksum(p)
	}
	off := int64(p.pgno()) * int64(pg.pageSize)
	if _, err := pg.f.WriteAt(p.data, off); err != nil {
		return wrapErr("writePageAt", ErrCodeIO, err)
	}
	return nil
}

func (pg *pager) sync() error {
	if err := pg.f.Sync(); err != nil {
		return wrapErr("sync", ErrCodeIO, err)
	}
	return nil
}

func (pg *pager) truncate(size int64) error {
	if err := pg.f.Truncate(size); err != nil {
		return wrapErr("truncate", ErrCodeIO, err)
	}
	return nil
}

func (pg *pager) close() error {
	return pg.f.Close()
}
