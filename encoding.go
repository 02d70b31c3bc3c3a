package barrow

import "encoding/binary"

// Multi-byte fields use a fixed little-endian encoding rather than
// the host byte order the spec's source described (§6): a pinned wire
// format means a data file can move between an amd64 writer and an
// arm64 reader without a format flag, which is worth more than saving
// the (now nonexistent, since Go has no byte-swapping cost on writes
// either way) swap on a big-endian host. See DESIGN.md.
func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putU64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func getU16(b []byte) uint16    { return binary.LittleEndian.Uint16(b) }
func getU32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }
func getU64(b []byte) uint64    { return binary.LittleEndian.Uint64(b) }
