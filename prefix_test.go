package barrow

import "testing"

func TestCommonPrefix(t *testing.T) {
	cases := []struct{ a, b, want string }{
		{"alpha", "album", "al"},
		{"alpha", "beta", ""},
		{"", "beta", ""},
		{"same", "same", "same"},
	}
	for _, c := range cases {
		got := commonPrefix([]byte(c.a), []byte(c.b))
		if string(got) != c.want {
			t.Errorf("commonPrefix(%q,%q) = %q, want %q", c.a, c.b, got, c.want)
		}
	}
}

func TestStripExpandRoundTrip(t *testing.T) {
	key := []byte("alphabetical")
	prefix := []byte("alpha")
	stripped := stripPrefix(key, prefix)
	if string(stripped) != "betical" {
		t.Fatalf("stripPrefix = %q, want betical", stripped)
	}
	full := expandKey(stripped, prefix)
	if string(full) != string(key) {
		t.Errorf("expandKey round-trip = %q, want %q", full, key)
	}
}

func TestAdjustPrefixTighten(t *testing.T) {
	stored := [][]byte{[]byte("bet"), []byte("bra")}
	oldPrefix := []byte("al")
	newPrefix := []byte("alb")
	adjusted, err := adjustPrefix(stored, oldPrefix, newPrefix)
	if err != nil {
		t.Fatalf("adjustPrefix: %v", err)
	}
	if string(adjusted[0]) != "et" {
		t.Errorf("adjusted[0] = %q, want et", adjusted[0])
	}
	if string(adjusted[1]) != "ra" {
		t.Errorf("adjusted[1] = %q, want ra", adjusted[1])
	}
}

func TestAdjustPrefixUnderflow(t *testing.T) {
	stored := [][]byte{[]byte("x")}
	oldPrefix := []byte("al")
	newPrefix := []byte("alphabet")
	_, err := adjustPrefix(stored, oldPrefix, newPrefix)
	if err != errPrefixUnderflow {
		t.Fatalf("err = %v, want errPrefixUnderflow", err)
	}
}
