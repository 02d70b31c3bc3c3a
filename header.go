package barrow

// Header page (§3, §6): page 0, written once at create and never
// rewritten afterward. Payload layout starting at pageHeaderSize:
//
//	offset  size  field
//	0       4     magic
//	4       4     formatVersion
//	8       4     pageSize
//	12      4     maxKeySize
const headerPayloadSize = 16

type headerRecord struct {
	magic         uint32
	formatVersion uint32
	pageSize      uint32
	maxKeySize    uint32
}

func (h *headerRecord) encode(p *page) {
	for i := range p.data {
		p.data[i] = 0
	}
	p.setPgno(0)
	p.setFlags(flagHead)
	b := p.data[pageHeaderSize:]
	putU32(b[0:], h.magic)
	putU32(b[4:], h.formatVersion)
	putU32(b[8:], h.pageSize)
	putU32(b[12:], h.maxKeySize)
}

func decodeHeader(p *page) (*headerRecord, error) {
	if !p.isHead() {
		return nil, newErr("openHeader", ErrCodeCorrupt)
	}
	b := p.data[pageHeaderSize:]
	h := &headerRecord{
		magic:         getU32(b[0:]),
		formatVersion: getU32(b[4:]),
		pageSize:      getU32(b[8:]),
		maxKeySize:    getU32(b[12:]),
	}
	if h.magic != headerMagic {
		return nil, newErr("openHeader", ErrCodeCorrupt)
	}
	return h, nil
}
