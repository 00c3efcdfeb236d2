package pe

import (
	"bytes"
	"sort"
)

type SectionHeader struct {
	Name                 string
	VirtualSize          uint32
	VirtualAddress       uint32
	Size                 uint32
	Offset               uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

type Section struct {
	SectionHeader
}

// cString converts ASCII byte sequence b to string.
// It stops once it finds 0 or reaches end of b.
func cString(b []byte) string {
	i := bytes.IndexByte(b, 0)
	if i == -1 {
		i = len(b)
	}
	return string(b[:i])
}

func (s *Section) Flags() (flags string) {
	if (ImageScnMemRead & s.Characteristics) == ImageScnMemRead {
		flags += "r"
	}
	if (ImageScnMemExecute & s.Characteristics) == ImageScnMemExecute {
		flags += "x"
	}
	if (ImageScnMemWrite & s.Characteristics) == ImageScnMemWrite {
		flags += "w"
	}
	return flags
}

// Contains reports whether rva falls inside the section's virtual range.
func (s *Section) Contains(rva uint32) bool {
	size := s.VirtualSize
	if size == 0 {
		size = s.Size
	}
	return s.VirtualAddress <= rva && uint64(rva) < uint64(s.VirtualAddress)+uint64(size)
}

// byVirtualAddress sorts all sections by Virtual Address.
type byVirtualAddress []*Section

func (s byVirtualAddress) Len() int           { return len(s) }
func (s byVirtualAddress) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s byVirtualAddress) Less(i, j int) bool { return s[i].VirtualAddress < s[j].VirtualAddress }

// readSections decodes the section table that follows the optional header.
// Only the headers are read; they are needed to map RVAs to file offsets.
func (f *File) readSections() error {
	offset := int(f.DOSHeader.AddressOfNewEXEHeader) + len(peSignature) + FileHeaderSize +
		int(f.FileHeader.SizeOfOptionalHeader)

	n := int(f.FileHeader.NumberOfSections)
	if n > maxSections {
		return formatErrorf("section table", offset, ErrTruncated, "%d sections exceeds limit of %d", n, maxSections)
	}

	c := newCursor(f.data, offset).at("section table")
	f.Sections = make([]*Section, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.bytes(8)
		if err != nil {
			return err
		}
		s := &Section{SectionHeader: SectionHeader{Name: cString(name)}}
		r := reader{c: c}
		r.u32(&s.VirtualSize)
		r.u32(&s.VirtualAddress)
		r.u32(&s.Size)
		r.u32(&s.Offset)
		r.u32(&s.PointerToRelocations)
		r.u32(&s.PointerToLineNumbers)
		r.u16(&s.NumberOfRelocations)
		r.u16(&s.NumberOfLineNumbers)
		r.u32(&s.Characteristics)
		if r.err != nil {
			return r.err
		}
		f.Sections = append(f.Sections, s)
	}
	sort.Sort(byVirtualAddress(f.Sections))
	return nil
}

func (f *File) getSectionByRva(rva uint32) *Section {
	for _, section := range f.Sections {
		if section.Contains(rva) {
			return section
		}
	}
	return nil
}

// OffsetFromRVA maps rva to a file offset through the section table. RVAs
// inside the headers map to themselves.
func (f *File) OffsetFromRVA(rva uint32) (int, error) {
	section := f.getSectionByRva(rva)
	if section == nil {
		if f.OptionalHeader != nil && rva < f.OptionalHeader.SizeOfHeaders && int(rva) < len(f.data) {
			return int(rva), nil
		}
		return 0, formatErrorf("rva", 0, ErrRVANotMapped, "rva 0x%x", rva)
	}
	delta := rva - section.VirtualAddress
	if delta >= section.Size {
		return 0, formatErrorf("rva", int(section.Offset), ErrRVANotMapped,
			"rva 0x%x is past the raw data of section %q", rva, section.Name)
	}
	return int(section.Offset) + int(delta), nil
}

// GetData returns length bytes at rva without copying.
func (f *File) GetData(rva, length uint32) ([]byte, error) {
	off, err := f.OffsetFromRVA(rva)
	if err != nil {
		return nil, err
	}
	return newCursor(f.data, off).at("rva data").bytes(int(length))
}
