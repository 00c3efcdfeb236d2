package pe

import (
	"fmt"
)

// Magic selects the optional header layout.
type Magic uint16

const (
	MagicPE32     Magic = 0x10b
	MagicPE32Plus Magic = 0x20b
)

func (m Magic) String() string {
	switch m {
	case MagicPE32:
		return "PE32"
	case MagicPE32Plus:
		return "PE32+"
	}
	return fmt.Sprintf("Magic(0x%x)", uint16(m))
}

// ParseMagic resolves the optional header discriminant.
func ParseMagic(v uint16) (Magic, error) {
	switch m := Magic(v); m {
	case MagicPE32, MagicPE32Plus:
		return m, nil
	}
	return 0, &FormatError{
		Field:  "optional header magic",
		Detail: fmt.Sprintf("0x%x", v),
		Err:    ErrUnknownMagic,
	}
}

// Minimum optional header sizes, i.e. without data directories.
const (
	optionalHeader32MinSize = 96
	optionalHeader64MinSize = 112
	dataDirectorySize       = 8
)

func (m Magic) minOptionalHeaderSize() int {
	if m == MagicPE32Plus {
		return optionalHeader64MinSize
	}
	return optionalHeader32MinSize
}

type StandardFields struct {
	Magic                   Magic
	MajorLinkerVersion      uint8
	MinorLinkerVersion      uint8
	SizeOfCode              uint32
	SizeOfInitializedData   uint32
	SizeOfUninitializedData uint32
	AddressOfEntryPoint     uint32
	BaseOfCode              uint32
	// BaseOfData only exists in PE32 images; it is nil for PE32+.
	BaseOfData *uint32
}

// WindowsFields holds the Windows-specific part of the optional header.
// Fields that are 32 bits wide in PE32 are widened to uint64.
type WindowsFields struct {
	ImageBase                   uint64
	SectionAlignment            uint32
	FileAlignment               uint32
	MajorOperatingSystemVersion uint16
	MinorOperatingSystemVersion uint16
	MajorImageVersion           uint16
	MinorImageVersion           uint16
	MajorSubsystemVersion       uint16
	MinorSubsystemVersion       uint16
	Win32VersionValue           uint32
	SizeOfImage                 uint32
	SizeOfHeaders               uint32
	CheckSum                    uint32
	Subsystem                   uint16
	DllCharacteristics          uint16
	SizeOfStackReserve          uint64
	SizeOfStackCommit           uint64
	SizeOfHeapReserve           uint64
	SizeOfHeapCommit            uint64
	LoaderFlags                 uint32
	NumberOfRvaAndSizes         uint32
}

type DataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

// IsZero reports whether the directory is absent.
func (d DataDirectory) IsZero() bool {
	return d.VirtualAddress == 0 && d.Size == 0
}

type DataDirectories []DataDirectory

// Entry returns directory i, or a zero directory if the table is shorter.
func (dd DataDirectories) Entry(i int) DataDirectory {
	if i < 0 || i >= len(dd) {
		return DataDirectory{}
	}
	return dd[i]
}

// CLIHeader returns the CLI header directory and whether the image has one.
func (dd DataDirectories) CLIHeader() (DataDirectory, bool) {
	d := dd.Entry(ImageDirectoryEntryComDescriptor)
	return d, !d.IsZero()
}

type OptionalHeader struct {
	StandardFields
	WindowsFields
	DataDirectories DataDirectories

	consumed int
}

// Is64 reports whether the header uses the PE32+ layout.
func (oh *OptionalHeader) Is64() bool {
	return oh.Magic == MagicPE32Plus
}

// Consumed is the number of bytes decoded, data directories included.
func (oh *OptionalHeader) Consumed() int {
	return oh.consumed
}

// ParseStandardFields decodes the standard fields at offset and returns the
// rest of the buffer. The magic read first decides whether BaseOfData is
// present; for PE32+ the cursor does not move past it.
func ParseStandardFields(buf []byte, offset int) (*StandardFields, []byte, error) {
	c := newCursor(buf, offset)
	sf, err := parseStandardFields(c)
	if err != nil {
		return nil, nil, err
	}
	return sf, c.Remaining(), nil
}

func parseStandardFields(c *cursor) (*StandardFields, error) {
	start := c.Offset()
	raw, err := c.at("optional header magic").u16()
	if err != nil {
		return nil, err
	}
	magic, err := ParseMagic(raw)
	if err != nil {
		err.(*FormatError).Offset = start
		return nil, err
	}

	sf := &StandardFields{Magic: magic}
	r := reader{c: c.at("standard fields")}
	r.u8(&sf.MajorLinkerVersion)
	r.u8(&sf.MinorLinkerVersion)
	r.u32(&sf.SizeOfCode)
	r.u32(&sf.SizeOfInitializedData)
	r.u32(&sf.SizeOfUninitializedData)
	r.u32(&sf.AddressOfEntryPoint)
	r.u32(&sf.BaseOfCode)
	if magic == MagicPE32 {
		var base uint32
		r.u32(&base)
		sf.BaseOfData = &base
	}
	if r.err != nil {
		return nil, r.err
	}
	return sf, nil
}

func parseWindowsFields(c *cursor, magic Magic) (*WindowsFields, error) {
	wf := &WindowsFields{}
	r := reader{c: c.at("windows fields")}

	// wide reads a field that is 32 bits in PE32 and 64 bits in PE32+.
	wide := func(v *uint64) {
		if magic == MagicPE32Plus {
			r.u64(v)
			return
		}
		var narrow uint32
		r.u32(&narrow)
		*v = uint64(narrow)
	}

	wide(&wf.ImageBase)
	r.u32(&wf.SectionAlignment)
	r.u32(&wf.FileAlignment)
	r.u16(&wf.MajorOperatingSystemVersion)
	r.u16(&wf.MinorOperatingSystemVersion)
	r.u16(&wf.MajorImageVersion)
	r.u16(&wf.MinorImageVersion)
	r.u16(&wf.MajorSubsystemVersion)
	r.u16(&wf.MinorSubsystemVersion)
	r.u32(&wf.Win32VersionValue)
	r.u32(&wf.SizeOfImage)
	r.u32(&wf.SizeOfHeaders)
	r.u32(&wf.CheckSum)
	r.u16(&wf.Subsystem)
	r.u16(&wf.DllCharacteristics)
	wide(&wf.SizeOfStackReserve)
	wide(&wf.SizeOfStackCommit)
	wide(&wf.SizeOfHeapReserve)
	wide(&wf.SizeOfHeapCommit)
	r.u32(&wf.LoaderFlags)
	r.u32(&wf.NumberOfRvaAndSizes)
	if r.err != nil {
		return nil, r.err
	}
	return wf, nil
}

func readDataDirectories(c *cursor, sz int, n uint32) (DataDirectories, error) {
	if n > ImageNumberOfDirectoryEntries || sz != int(n)*dataDirectorySize {
		return nil, formatErrorf("data directories", c.Offset(), ErrOptionalHeaderSize,
			"size of data directories(%d) is inconsistent with number of data directories(%d)", sz, n)
	}

	dd := make(DataDirectories, n)
	r := reader{c: c.at("data directories")}
	for i := range dd {
		r.dir(&dd[i])
	}
	if r.err != nil {
		return nil, r.err
	}
	return dd, nil
}

// ParseOptionalHeader decodes an optional header of size bytes at offset,
// as announced by the COFF file header.
func ParseOptionalHeader(buf []byte, offset int, size uint16) (*OptionalHeader, error) {
	if size < 2 {
		return nil, formatErrorf("optional header", offset, ErrOptionalHeaderSize,
			"optional header size(%d) is less than optional header magic size", size)
	}

	c := newCursor(buf, offset)
	sf, err := parseStandardFields(c)
	if err != nil {
		return nil, err
	}

	minSz := sf.Magic.minOptionalHeaderSize()
	if int(size) < minSz {
		return nil, formatErrorf("optional header", offset, ErrOptionalHeaderSize,
			"optional header size(%d) is less than minimum size(%d) of %s optional header", size, minSz, sf.Magic)
	}

	wf, err := parseWindowsFields(c, sf.Magic)
	if err != nil {
		return nil, err
	}

	dd, err := readDataDirectories(c, int(size)-minSz, wf.NumberOfRvaAndSizes)
	if err != nil {
		return nil, err
	}

	oh := &OptionalHeader{
		StandardFields:  *sf,
		WindowsFields:   *wf,
		DataDirectories: dd,
		consumed:        c.Offset() - offset,
	}
	log().WithField("magic", sf.Magic).WithField("directories", len(dd)).Trace("parsed optional header")
	return oh, nil
}
