package pe

// extent is a byte range of the image file.
type extent struct {
	offset, size uint32
}

func (e extent) end() uint64 { return uint64(e.offset) + uint64(e.size) }

// overlayOffset returns the end of the last structure the image describes: the
// headers, the raw data of a section or a data directory. The security
// directory holds a file offset, not an RVA, and its certificates are the
// usual overlay, so it is skipped. Extents that run past the file are ignored.
func (f *File) overlayOffset() int {
	fileSize := uint64(len(f.data))
	var largest extent
	update := func(e extent) {
		if e.end() <= fileSize && e.end() > largest.end() {
			largest = e
		}
	}

	update(extent{
		offset: f.DOSHeader.AddressOfNewEXEHeader + uint32(len(peSignature)) + FileHeaderSize,
		size:   uint32(f.FileHeader.SizeOfOptionalHeader) + uint32(len(f.Sections))*sectionHeaderSize,
	})
	if f.OptionalHeader != nil {
		update(extent{offset: 0, size: f.OptionalHeader.SizeOfHeaders})
	}
	for _, section := range f.Sections {
		update(extent{offset: section.Offset, size: section.Size})
	}
	if f.OptionalHeader != nil {
		for i, dir := range f.OptionalHeader.DataDirectories {
			if i == ImageDirectoryEntrySecurity || dir.IsZero() {
				continue
			}
			off, err := f.OffsetFromRVA(dir.VirtualAddress)
			if err != nil {
				continue
			}
			update(extent{offset: uint32(off), size: dir.Size})
		}
	}
	return int(largest.end())
}

// Overlay returns the bytes appended after the mapped part of the image, or
// nil when there are none. Installers and signed files often carry one.
func (f *File) Overlay() []byte {
	off := f.overlayOffset()
	if off >= len(f.data) {
		return nil
	}
	return f.data[off:]
}
