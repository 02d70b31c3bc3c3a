package barrow

import "errors"

// Prefix compression helpers (§3, §4.6, §9). They derive a page's
// common prefix from the tightest enclosing separators on its descent
// path (the parent keys immediately to its left and right in the
// ancestor chain, exactly as the original's find_common_prefix /
// common_prefix do in original_source/.../btree.cpp), strip it from
// keys, and re-express stored keys when it changes. btree.go does not
// call them: pages store full, unstripped keys (see DESIGN.md).
//
// Scope decision (recorded in DESIGN.md): prefixEnabled admits prefix
// compression only in forward-key mode. The original strips a *suffix* for
// REVERSEKEY databases by truncating key length without moving the
// data pointer — a scheme that is easy to get subtly wrong with no
// ability to compile and test against it here — so reverse-key trees
// simply store full keys. A user comparator disables prefix
// compression unconditionally (§4.6, §9): a comparator need not agree
// with byte-lexicographic order, so stripping a byte-lexicographic
// prefix could change comparison outcomes.
//
// errPrefixUnderflow is returned by adjustPrefix when a page's
// existing stored keys cannot be re-expressed against a new prefix
// without underflowing their own storage — the Open Question in
// spec.md §9 about btree_adjust_prefix, resolved here by failing the
// enclosing operation instead of silently mis-storing keys.
var errPrefixUnderflow = errors.New("prefix: stored key would underflow under new prefix")

// commonPrefix returns the longest shared leading byte run of a and b.
// Per the original's common_prefix, an empty bound yields no prefix.
func commonPrefix(a, b []byte) []byte {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	if i == 0 {
		return nil
	}
	return b[:i:i]
}

// stripPrefix removes prefix from key. The caller must already know
// prefix is in fact a leading substring of key (true by construction:
// prefix was derived as commonPrefix of the bounding separators that
// key falls strictly between).
func stripPrefix(key, prefix []byte) []byte {
	if len(prefix) == 0 {
		return key
	}
	return key[len(prefix):]
}

// expandKey reconstructs the full key from a page's stored (stripped)
// key plus its current prefix.
func expandKey(stored, prefix []byte) []byte {
	if len(prefix) == 0 {
		return stored
	}
	full := make([]byte, len(prefix)+len(stored))
	copy(full, prefix)
	copy(full[len(prefix):], stored)
	return full
}

// adjustPrefix re-derives each stored key in storedKeys (currently
// relative to oldPrefix) so that it is relative to newPrefix instead.
// Used after a split/merge/move changes a page's common prefix.
//
// Every storedKeys[i] must, once expanded against oldPrefix, still
// begin with newPrefix — guaranteed by construction since newPrefix
// is derived from the same (possibly tightened) bounding separators —
// and must be at least as long as newPrefix once re-stripped.
// errPrefixUnderflow signals the latter failing, which the caller
// must treat as "retry this operation as a merge instead" per §4.6.
func adjustPrefix(storedKeys [][]byte, oldPrefix, newPrefix []byte) ([][]byte, error) {
	if bytesEqual(oldPrefix, newPrefix) {
		return storedKeys, nil
	}
	out := make([][]byte, len(storedKeys))
	for i, sk := range storedKeys {
		full := expandKey(sk, oldPrefix)
		if len(full) < len(newPrefix) {
			return nil, errPrefixUnderflow
		}
		out[i] = stripPrefix(full, newPrefix)
	}
	return out, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
