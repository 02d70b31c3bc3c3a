package barrow

import (
	"bytes"
	"testing"
)

func putAll(t *testing.T, eng *Engine, kvs map[string]string, tag uint32) {
	t.Helper()
	txn, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for k, v := range kvs {
		if err := txn.Put([]byte(k), []byte(v), 0); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	if err := txn.Commit(tag); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

// Compact identity (§8): get(k) unchanged, same tag, size does not grow.
func TestCompactIdentity(t *testing.T) {
	eng := newTestEngine(t, 0)
	kvs := map[string]string{"alpha": "1", "beta": "2", "gamma": "3"}
	putAll(t, eng, kvs, 7)

	// Create and delete some extra keys so the file carries
	// superseded pages for Compact to actually drop.
	extra, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 0; i < 50; i++ {
		if err := extra.Put([]byte(keyN(i+500)), bytes.Repeat([]byte{byte(i)}, 64), 0); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if err := extra.Commit(8); err != nil {
		t.Fatalf("commit: %v", err)
	}
	del, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 0; i < 50; i++ {
		if err := del.Del([]byte(keyN(i + 500))); err != nil {
			t.Fatalf("del: %v", err)
		}
	}
	if err := del.Commit(9); err != nil {
		t.Fatalf("commit: %v", err)
	}

	sizeBefore, err := eng.pager.fileSizeBytes()
	if err != nil {
		t.Fatalf("size: %v", err)
	}

	if err := eng.Compact(); err != nil {
		t.Fatalf("compact: %v", err)
	}

	for k, v := range kvs {
		got, err := eng.Get([]byte(k))
		if err != nil {
			t.Fatalf("get %s after compact: %v", k, err)
		}
		if string(got) != v {
			t.Errorf("get %s = %q, want %q", k, got, v)
		}
	}

	sizeAfter, err := eng.pager.fileSizeBytes()
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if sizeAfter > sizeBefore {
		t.Errorf("size grew: before=%d after=%d", sizeBefore, sizeAfter)
	}
	if eng.Stat().Tag != 9 {
		t.Errorf("tag after compact = %d, want 9", eng.Stat().Tag)
	}
}

// Rollback identity (§8): after commit A then commit B, rollback
// yields the state after A.
func TestRollbackIdentity(t *testing.T) {
	eng := newTestEngine(t, 0)
	putAll(t, eng, map[string]string{"x": "after-a"}, 1)
	putAll(t, eng, map[string]string{"x": "after-b", "y": "new"}, 2)

	v, err := eng.Get([]byte("x"))
	if err != nil || string(v) != "after-b" {
		t.Fatalf("pre-rollback get x = %q, %v", v, err)
	}

	if err := eng.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	v, err = eng.Get([]byte("x"))
	if err != nil {
		t.Fatalf("get x after rollback: %v", err)
	}
	if string(v) != "after-a" {
		t.Errorf("x after rollback = %q, want after-a", v)
	}
	if _, err := eng.Get([]byte("y")); !IsNotFound(err) {
		t.Errorf("y after rollback err = %v, want NotFound", err)
	}
	if eng.Stat().Tag != 1 {
		t.Errorf("tag after rollback = %d, want 1", eng.Stat().Tag)
	}
}

func TestRevertUndoesLastCommit(t *testing.T) {
	eng := newTestEngine(t, 0)
	putAll(t, eng, map[string]string{"k": "v1"}, 1)
	putAll(t, eng, map[string]string{"k": "v2"}, 2)

	if err := eng.Revert(); err != nil {
		t.Fatalf("revert: %v", err)
	}
	v, err := eng.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(v) != "v1" {
		t.Errorf("k after revert = %q, want v1", v)
	}
}

func TestClearResetsTree(t *testing.T) {
	eng := newTestEngine(t, 0)
	putAll(t, eng, map[string]string{"k": "v"}, 5)

	if err := eng.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := eng.Get([]byte("k")); !IsNotFound(err) {
		t.Fatalf("get after clear err = %v, want NotFound", err)
	}
	st := eng.Stat()
	if st.Entries != 0 || st.Tag != 5 {
		t.Errorf("stat after clear = %+v, want Entries=0 Tag=5", st)
	}
}

// Meta chain invariant (§8): prevMeta's tag is <= this meta's tag.
func TestMetaChainTagMonotonic(t *testing.T) {
	eng := newTestEngine(t, 0)
	putAll(t, eng, map[string]string{"a": "1"}, 3)
	putAll(t, eng, map[string]string{"b": "2"}, 7)

	eng.metaMu.RLock()
	cur := eng.currentMeta
	eng.metaMu.RUnlock()

	if cur.tag != 7 {
		t.Fatalf("current tag = %d, want 7", cur.tag)
	}
	p, err := eng.pager.readPage(cur.prevMeta)
	if err != nil {
		t.Fatalf("read prev meta: %v", err)
	}
	prev, err := parseAndValidateMeta(p)
	if err != nil {
		t.Fatalf("parse prev meta: %v", err)
	}
	if prev.tag > cur.tag {
		t.Errorf("prevMeta.tag = %d > currentMeta.tag = %d", prev.tag, cur.tag)
	}
}
