// Package barrow is a single-writer, multiple-reader, copy-on-write
// B+-tree storage engine persisted to a single append-only file.
//
// It supplies ordered key→value storage with ACID-style transactions,
// snapshot reads (including reads at named historical snapshots),
// forward/reverse cursor iteration, overflow pages for large values,
// page-level checksums, compaction, and rollback-by-truncation. Node
// keys are stored in full: the key-prefix compression helpers in
// prefix.go are not applied to pages.
//
// Values are opaque byte strings; barrow does not parse or index them.
// At most one write transaction may be open at a time, enforced with a
// non-blocking exclusive file lock; read transactions are unbounded
// and see a consistent snapshot fixed at the moment they began.
//
// Basic usage:
//
//	eng, err := barrow.Open("/path/to/db.barrow", barrow.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	txn, err := eng.Begin(false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := txn.Put([]byte("key"), []byte("value"), 0); err != nil {
//	    txn.Abort()
//	    log.Fatal(err)
//	}
//	if err := txn.Commit(1); err != nil {
//	    log.Fatal(err)
//	}
package barrow
