package barrow

import "testing"

func TestPageCachePutGet(t *testing.T) {
	c := newPageCache(4, 512)
	p := newPage(512)
	p.setPgno(1)
	c.put(1, p)

	cp := c.get(1)
	if cp == nil {
		t.Fatal("expected cache hit for pgno 1")
	}
	if cp.page.pgno() != 1 {
		t.Errorf("cached page pgno = %d, want 1", cp.page.pgno())
	}
	if c.get(2) != nil {
		t.Error("expected cache miss for pgno 2")
	}
}

func TestPageCacheEvictsLRU(t *testing.T) {
	c := newPageCache(2, 512)
	for i := pgno(1); i <= 3; i++ {
		p := newPage(512)
		p.setPgno(i)
		c.put(i, p)
	}
	// capacity 2: pgno 1 (oldest, unpinned) should have been evicted
	// once pgno 3 was admitted.
	if c.get(1) != nil {
		t.Error("pgno 1 should have been evicted")
	}
	if c.get(2) == nil {
		t.Error("pgno 2 should still be resident")
	}
	if c.get(3) == nil {
		t.Error("pgno 3 should be resident")
	}
}

func TestPageCachePinPreventsEviction(t *testing.T) {
	c := newPageCache(2, 512)
	p1 := newPage(512)
	p1.setPgno(1)
	cp1 := c.put(1, p1)
	c.pin(cp1)

	for i := pgno(2); i <= 4; i++ {
		p := newPage(512)
		p.setPgno(i)
		c.put(i, p)
	}

	if c.get(1) == nil {
		t.Error("pinned pgno 1 should not have been evicted")
	}
}

func TestPageCacheRemove(t *testing.T) {
	c := newPageCache(4, 512)
	p := newPage(512)
	p.setPgno(1)
	c.put(1, p)
	c.remove(1)
	if c.get(1) != nil {
		t.Error("pgno 1 should be gone after remove")
	}
	if c.len() != 0 {
		t.Errorf("len = %d, want 0", c.len())
	}
}
