package fastmap

import (
	"math/rand"
	"testing"
)

func TestUint32Map(t *testing.T) {
	m := &Uint32Map[int]{}

	if _, ok := m.Get(1); ok {
		t.Error("expected miss for empty map")
	}

	m.Set(1, 100)
	m.Set(2, 200)

	if v, ok := m.Get(1); !ok || v != 100 {
		t.Error("Get(1) failed")
	}
	if v, ok := m.Get(2); !ok || v != 200 {
		t.Error("Get(2) failed")
	}
	if _, ok := m.Get(3); ok {
		t.Error("Get(3) should miss")
	}

	m.Set(1, 300)
	if v, ok := m.Get(1); !ok || v != 300 {
		t.Error("update failed")
	}

	if m.Len() != 2 {
		t.Errorf("expected len=2, got %d", m.Len())
	}

	m.Delete(1)
	if _, ok := m.Get(1); ok {
		t.Error("Get after delete should miss")
	}
	if m.Len() != 1 {
		t.Errorf("expected len=1 after delete, got %d", m.Len())
	}
	if v, ok := m.Get(2); !ok || v != 200 {
		t.Error("delete disturbed a surviving probe chain")
	}

	m.Clear()
	if m.Len() != 0 {
		t.Error("clear failed")
	}
	if _, ok := m.Get(2); ok {
		t.Error("Get after clear should miss")
	}
}

func TestUint32MapGrowth(t *testing.T) {
	m := &Uint32Map[int]{}

	n := 10000
	for i := 0; i < n; i++ {
		m.Set(uint32(i), i*10)
	}

	if m.Len() != n {
		t.Errorf("expected len=%d, got %d", n, m.Len())
	}

	for i := 0; i < n; i++ {
		v, ok := m.Get(uint32(i))
		if !ok || v != i*10 {
			t.Errorf("Get(%d) failed", i)
		}
	}
}

func TestUint32MapZeroKey(t *testing.T) {
	m := &Uint32Map[int]{}

	m.Set(0, 999)

	if v, ok := m.Get(0); !ok || v != 999 {
		t.Error("zero key failed")
	}
	if m.Len() != 1 {
		t.Error("len should be 1")
	}
}

func TestUint32MapDeleteThenRefill(t *testing.T) {
	m := &Uint32Map[int]{}
	for i := 0; i < 64; i++ {
		m.Set(uint32(i), i)
	}
	for i := 0; i < 64; i += 2 {
		m.Delete(uint32(i))
	}
	if m.Len() != 32 {
		t.Errorf("expected len=32, got %d", m.Len())
	}
	for i := 1; i < 64; i += 2 {
		if v, ok := m.Get(uint32(i)); !ok || v != i {
			t.Errorf("Get(%d) failed after interleaved delete", i)
		}
	}
	for i := 0; i < 64; i += 2 {
		m.Set(uint32(i), i+1000)
	}
	if m.Len() != 64 {
		t.Errorf("expected len=64 after refill, got %d", m.Len())
	}
}

var benchVals []int

func init() {
	benchVals = make([]int, 200000)
	for i := range benchVals {
		benchVals[i] = i
	}
}

func BenchmarkFastMapSeqWrite(b *testing.B) {
	m := &Uint32Map[int]{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Set(uint32(i), benchVals[i%len(benchVals)])
	}
}

func BenchmarkGoMapSeqWrite(b *testing.B) {
	m := make(map[uint32]int)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m[uint32(i)] = benchVals[i%len(benchVals)]
	}
}

func BenchmarkFastMapRandWrite(b *testing.B) {
	m := &Uint32Map[int]{}
	keys := make([]uint32, b.N)
	for i := range keys {
		keys[i] = rand.Uint32()
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Set(keys[i], benchVals[i%len(benchVals)])
	}
}

func BenchmarkGoMapRandWrite(b *testing.B) {
	m := make(map[uint32]int)
	keys := make([]uint32, b.N)
	for i := range keys {
		keys[i] = rand.Uint32()
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m[keys[i]] = benchVals[i%len(benchVals)]
	}
}

func BenchmarkFastMapSeqRead(b *testing.B) {
	m := &Uint32Map[int]{}
	for i := 0; i < 100000; i++ {
		m.Set(uint32(i), benchVals[i])
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Get(uint32(i % 100000))
	}
}

func BenchmarkGoMapSeqRead(b *testing.B) {
	m := make(map[uint32]int)
	for i := 0; i < 100000; i++ {
		m[uint32(i)] = benchVals[i]
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[uint32(i%100000)]
	}
}

func BenchmarkFastMapMixed(b *testing.B) {
	m := &Uint32Map[int]{}
	for i := 0; i < 10000; i++ {
		m.Set(uint32(i), benchVals[i])
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			m.Set(uint32(i), benchVals[i%len(benchVals)])
		} else {
			_, _ = m.Get(uint32(i % 10000))
		}
	}
}

func BenchmarkGoMapMixed(b *testing.B) {
	m := make(map[uint32]int)
	for i := 0; i < 10000; i++ {
		m[uint32(i)] = benchVals[i]
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%10 == 0 {
			m[uint32(i)] = benchVals[i%len(benchVals)]
		} else {
			_ = m[uint32(i%10000)]
		}
	}
}
