package barrow

import "bytes"

// Comparator orders keys. cmp(a, b) follows bytes.Compare conventions:
// negative if a < b, zero if equal, positive if a > b.
//
// The optional user comparator and the two built-in comparators
// (forward and reverse byte order) are the same capability
// {cmp([]byte, []byte) int}. Supplying a user comparator disables
// prefix compression — this is a hard contract, not a heuristic
// (§4.6, §9): a comparator that does not respect lexicographic byte
// order cannot be combined with prefix stripping, since the stripped
// prefix changes what "compare" sees.
type Comparator func(a, b []byte) int

// forwardCmp is the default comparator: plain lexicographic byte
// order.
func forwardCmp(a, b []byte) int { return bytes.Compare(a, b) }

// reverseCmp compares keys in reverse byte order (ReverseKey flag).
func reverseCmp(a, b []byte) int {
	la, lb := len(a), len(b)
	for i := 0; i < la && i < lb; i++ {
		ca, cb := a[la-1-i], b[lb-1-i]
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case la < lb:
		return -1
	case la > lb:
		return 1
	default:
		return 0
	}
}
