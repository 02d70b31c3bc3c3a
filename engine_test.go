package barrow

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func tempEnginePath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.barrow")
}

// Seed scenario 1: create, insert, reopen.
func TestCreateInsertReopen(t *testing.T) {
	path := tempEnginePath(t)

	eng, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	txn, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, kv := range [][2]string{{"alpha", "1"}, {"beta", "2"}, {"gamma", "3"}} {
		if err := txn.Put([]byte(kv[0]), []byte(kv[1]), 0); err != nil {
			t.Fatalf("put %s: %v", kv[0], err)
		}
	}
	if err := txn.Commit(1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	eng, err = Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer eng.Close()

	rtxn, err := eng.Begin(true)
	if err != nil {
		t.Fatalf("begin read: %v", err)
	}
	c := rtxn.CursorOpen()
	var got [][2]string
	for ok := c.First(); ok; ok = c.Next() {
		v, err := c.Value()
		if err != nil {
			t.Fatalf("cursor value: %v", err)
		}
		got = append(got, [2]string{string(c.Key()), string(v)})
	}
	want := [][2]string{{"alpha", "1"}, {"beta", "2"}, {"gamma", "3"}}
	if len(got) != len(want) {
		t.Fatalf("iteration length = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, got[i], want[i])
		}
	}

	st := eng.Stat()
	if st.Entries != 3 {
		t.Errorf("stat.entries = %d, want 3", st.Entries)
	}
	if st.Tag != 1 {
		t.Errorf("stat.tag = %d, want 1", st.Tag)
	}
}

// Seed scenario 2: split path with 1000 keys.
func TestSplitPath(t *testing.T) {
	path := tempEnginePath(t)
	eng, err := Open(path, DefaultOptions().WithPageSize(4096))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	txn, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	value := bytes.Repeat([]byte{0x42}, 256)
	for i := 0; i < 1000; i++ {
		key := []byte(keyN(i))
		if err := txn.Put(key, value, 0); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	if err := txn.Commit(1); err != nil {
		t.Fatalf("commit: %v", err)
	}

	st := eng.Stat()
	if st.Depth < 2 {
		t.Errorf("stat.depth = %d, want >= 2", st.Depth)
	}

	rtxn, err := eng.Begin(true)
	if err != nil {
		t.Fatalf("begin read: %v", err)
	}
	c := rtxn.CursorOpen()
	n := 0
	for ok := c.First(); ok; ok = c.Next() {
		n++
	}
	if n != 1000 {
		t.Errorf("iteration length = %d, want 1000", n)
	}
}

func keyN(i int) string {
	const digits = "0123456789"
	b := []byte("k000")
	for p := 3; p >= 1; p-- {
		b[p] = digits[i%10]
		i /= 10
	}
	return string(b)
}

// Seed scenario 3: overflow value round-trip.
func TestOverflowValue(t *testing.T) {
	path := tempEnginePath(t)
	eng, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	big := bytes.Repeat([]byte{0xA5}, 65536)
	if err := eng.Put([]byte("big"), big, 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	eng, err = Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer eng.Close()

	got, err := eng.Get([]byte("big"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 65536 {
		t.Fatalf("len = %d, want 65536", len(got))
	}
	if !bytes.Equal(got, big) {
		t.Errorf("content mismatch")
	}
	if eng.Stat().Overflow < 1 {
		t.Errorf("stat.overflow = %d, want >= 1", eng.Stat().Overflow)
	}
}

// Seed scenario 4: snapshot by tag.
func TestSnapshotByTag(t *testing.T) {
	path := tempEnginePath(t)
	eng, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	w, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := w.Put([]byte("x"), []byte("v1"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := w.Commit(10); err != nil {
		t.Fatalf("commit tag 10: %v", err)
	}

	w, err = eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := w.Put([]byte("x"), []byte("v2"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := w.Commit(11); err != nil {
		t.Fatalf("commit tag 11: %v", err)
	}

	r10, err := eng.BeginTag(10)
	if err != nil {
		t.Fatalf("begin tag 10: %v", err)
	}
	v, err := r10.Get([]byte("x"))
	if err != nil {
		t.Fatalf("get at tag 10: %v", err)
	}
	if string(v) != "v1" {
		t.Errorf("tag 10 value = %q, want v1", v)
	}

	r11, err := eng.BeginTag(11)
	if err != nil {
		t.Fatalf("begin tag 11: %v", err)
	}
	v, err = r11.Get([]byte("x"))
	if err != nil {
		t.Fatalf("get at tag 11: %v", err)
	}
	if string(v) != "v2" {
		t.Errorf("tag 11 value = %q, want v2", v)
	}

	cur, err := eng.Get([]byte("x"))
	if err != nil {
		t.Fatalf("get current: %v", err)
	}
	if string(cur) != "v2" {
		t.Errorf("current value = %q, want v2", cur)
	}
}

// Seed scenario 5: NoOverwrite.
func TestNoOverwrite(t *testing.T) {
	path := tempEnginePath(t)
	eng, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	if err := eng.Put([]byte("k"), []byte("a"), 0); err != nil {
		t.Fatalf("put a: %v", err)
	}
	err = eng.Put([]byte("k"), []byte("b"), PutNoOverwrite)
	if !IsExists(err) {
		t.Fatalf("put with NoOverwrite err = %v, want Exists", err)
	}
	v, err := eng.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(v) != "a" {
		t.Errorf("value = %q, want a", v)
	}
}

// Seed scenario 6: rebalance to merge on delete.
func TestRebalanceToMerge(t *testing.T) {
	path := tempEnginePath(t)
	eng, err := Open(path, DefaultOptions().WithPageSize(512))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer eng.Close()

	txn, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	value := bytes.Repeat([]byte{0x11}, 32)
	const n = 200
	for i := 0; i < n; i++ {
		key := []byte(keyN(i))
		if err := txn.Put(key, value, 0); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	if err := txn.Commit(1); err != nil {
		t.Fatalf("commit: %v", err)
	}

	dtxn, err := eng.Begin(false)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 0; i < n-5; i++ {
		key := []byte(keyN(i))
		if err := dtxn.Del(key); err != nil {
			t.Fatalf("del %s: %v", key, err)
		}
	}
	if err := dtxn.Commit(2); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rtxn, err := eng.Begin(true)
	if err != nil {
		t.Fatalf("begin read: %v", err)
	}
	for i := 0; i < n-5; i++ {
		if _, err := rtxn.Get([]byte(keyN(i))); !IsNotFound(err) {
			t.Errorf("get %s err = %v, want NotFound", keyN(i), err)
		}
	}
	for i := n - 5; i < n; i++ {
		if _, err := rtxn.Get([]byte(keyN(i))); err != nil {
			t.Errorf("get %s: %v", keyN(i), err)
		}
	}
}

func TestCloseKeepsDataFile(t *testing.T) {
	path := tempEnginePath(t)
	eng, err := Open(path, DefaultOptions())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("data file missing after close: %v", err)
	}
}
