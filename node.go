package barrow

import "encoding/binary"

// Node record layout (§3, §6), nodeHeaderSize == 8 bytes:
//
//	offset  size  field
//	0       1     flags
//	1       1     pad
//	2       2     ksize
//	4       4     dsize (leaf)  |  child pgno (branch)
//	8       ...   key bytes
//	8+ksize ...   data bytes (leaf, non-big) | overflow pgno (leaf, big)
//
// Branch nodes carry no data beyond the key; their dsize field holds
// the child page number instead. The leftmost branch node (slot 0)
// has a zero-length key, an implicit minus-infinity separator.

func nodeFlagsAt(rec []byte) nodeFlags { return nodeFlags(rec[0]) }
func nodeKeySizeAt(rec []byte) int     { return int(binary.LittleEndian.Uint16(rec[2:4])) }
func nodeDSizeAt(rec []byte) uint32    { return binary.LittleEndian.Uint32(rec[4:8]) }
func nodeChildPgnoAt(rec []byte) pgno  { return pgno(binary.LittleEndian.Uint32(rec[4:8])) }

func nodeKeyAt(rec []byte) []byte {
	ks := nodeKeySizeAt(rec)
	return rec[nodeHeaderSize : nodeHeaderSize+ks]
}

// nodeDataAt returns the data bytes for a leaf node (either the
// inline value, or the 4-byte overflow head pgno if nodeBig is set).
func nodeDataAt(rec []byte) []byte {
	ks := nodeKeySizeAt(rec)
	return rec[nodeHeaderSize+ks:]
}

func nodeOverflowPgnoAt(rec []byte) pgno {
	d := nodeDataAt(rec)
	return pgno(binary.LittleEndian.Uint32(d[0:4]))
}

// encodeBranchNode builds a branch node record: {flags=0, ksize, child
// pgno, key}.
func encodeBranchNode(key []byte, child pgno) []byte {
	rec := make([]byte, nodeHeaderSize+len(key))
	rec[0] = 0
	binary.LittleEndian.PutUint16(rec[2:4], uint16(len(key)))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(child))
	copy(rec[nodeHeaderSize:], key)
	return rec
}

// encodeLeafNode builds a plain (non-overflow) leaf node record.
func encodeLeafNode(key, value []byte) []byte {
	rec := make([]byte, nodeHeaderSize+len(key)+len(value))
	rec[0] = 0
	binary.LittleEndian.PutUint16(rec[2:4], uint16(len(key)))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(len(value)))
	copy(rec[nodeHeaderSize:], key)
	copy(rec[nodeHeaderSize+len(key):], value)
	return rec
}

// encodeBigLeafNode builds a leaf node whose value lives on an
// overflow chain headed by headPgno; dsize carries the true value
// length so readers know how many bytes to pull off the chain.
func encodeBigLeafNode(key []byte, valueLen int, headPgno pgno) []byte {
	rec := make([]byte, nodeHeaderSize+len(key)+4)
	rec[0] = byte(nodeBig)
	binary.LittleEndian.PutUint16(rec[2:4], uint16(len(key)))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(valueLen))
	copy(rec[nodeHeaderSize:], key)
	binary.LittleEndian.PutUint32(rec[nodeHeaderSize+len(key):], uint32(headPgno))
	return rec
}

// nodeValueLen returns the logical value length of a leaf node,
// whether stored inline or on an overflow chain (dsize always holds
// the true length in both cases).
func nodeValueLen(rec []byte) int { return int(nodeDSizeAt(rec)) }
