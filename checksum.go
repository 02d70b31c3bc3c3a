package barrow

import "hash/crc32"

// pageChecksum computes the CRC-32 (IEEE polynomial 0xEDB88320,
// reflected) over a page's populated region: everything except the
// checksum field itself and the free span [lower,upper) between the
// slot array and the node heap (§4.3, §6). hash/crc32's IEEETable is
// generated from exactly this polynomial, so no third-party CRC
// library is wired here — see DESIGN.md.
func pageChecksum(p *page) uint32 {
	h := crc32.NewIEEE()
	h.Write(p.data[0:8])
	h.Write(p.data[12:pageHeaderSize])

	if p.isBranch() || p.isLeaf() {
		lower, upper := int(p.lower()), int(p.upper())
		h.Write(p.data[pageHeaderSize : pageHeaderSize+lower])
		h.Write(p.data[pageHeaderSize+upper:])
	} else {
		// Meta, head, and overflow pages have no free span: the
		// remainder of the page is payload.
		h.Write(p.data[pageHeaderSize:])
	}
	return h.Sum32()
}

// verifyChecksum reports whether the page's stored checksum matches
// its current contents.
func verifyChecksum(p *page) bool {
	return pageChecksum(p) == p.checksum()
}

// stampChecksum recomputes and stores the page's checksum.
func stampChecksum(p *page) {
	p.setChecksum(pageChecksum(p))
}
