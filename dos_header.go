package pe

// DOSStubSize is the size of the fixed MS-DOS stub that precedes a managed
// image's PE signature.
const DOSStubSize = 128

// Offsets of the lfanew field and the trailing stub inside the MS-DOS stub.
const (
	lfanewOffset    = 60
	dosSuffixOffset = lfanewOffset + 4
	dosPrefixLength = lfanewOffset
	dosSuffixLength = DOSStubSize - dosSuffixOffset
)

// dosStubPrefix is the MS-DOS header up to e_lfanew as emitted for CLI images.
var dosStubPrefix = [dosPrefixLength]byte{
	0x4d, 0x5a, 0x90, 0x00, 0x03, 0x00, 0x00, 0x00,
	0x04, 0x00, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00,
	0xb8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

// dosStubSuffix is the real-mode program printing
// "This program cannot be run in DOS mode.".
var dosStubSuffix = [dosSuffixLength]byte{
	0x0e, 0x1f, 0xba, 0x0e, 0x00, 0xb4, 0x09, 0xcd,
	0x21, 0xb8, 0x01, 0x4c, 0xcd, 0x21, 0x54, 0x68,
	0x69, 0x73, 0x20, 0x70, 0x72, 0x6f, 0x67, 0x72,
	0x61, 0x6d, 0x20, 0x63, 0x61, 0x6e, 0x6e, 0x6f,
	0x74, 0x20, 0x62, 0x65, 0x20, 0x72, 0x75, 0x6e,
	0x20, 0x69, 0x6e, 0x20, 0x44, 0x4f, 0x53, 0x20,
	0x6d, 0x6f, 0x64, 0x65, 0x2e, 0x0d, 0x0d, 0x0a,
	0x24, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// DOSStubPrefix returns a copy of the fixed bytes preceding e_lfanew.
func DOSStubPrefix() []byte { return append([]byte(nil), dosStubPrefix[:]...) }

// DOSStubSuffix returns a copy of the fixed bytes following e_lfanew.
func DOSStubSuffix() []byte { return append([]byte(nil), dosStubSuffix[:]...) }

type DOSHeader struct {
	// AddressOfNewEXEHeader is e_lfanew, the file offset of the PE signature.
	AddressOfNewEXEHeader uint32
}

// ValidateDOSStub matches the two constant halves of the MS-DOS stub and
// returns e_lfanew.
func ValidateDOSStub(buf []byte) (uint32, error) {
	if len(buf) < DOSStubSize {
		return 0, formatErrorf("dos stub", len(buf), ErrTruncated, "need %d bytes, have %d", DOSStubSize, len(buf))
	}

	c := newCursor(buf, 0)
	if err := c.at("dos stub prefix").expect(dosStubPrefix[:], ErrInvalidDOSStub); err != nil {
		return 0, err
	}
	lfanew, err := c.at("e_lfanew").u32()
	if err != nil {
		return 0, err
	}
	if err := c.at("dos stub suffix").expect(dosStubSuffix[:], ErrInvalidDOSStub); err != nil {
		return 0, err
	}
	return lfanew, nil
}

func (f *File) readDOSHeader() error {
	lfanew, err := ValidateDOSStub(f.data)
	if err != nil {
		return err
	}

	if lfanew < DOSStubSize || uint64(lfanew)+4 > uint64(len(f.data)) {
		return formatErrorf("e_lfanew", lfanewOffset, ErrInvalidDOSStub,
			"e_lfanew 0x%x outside image of %d bytes", lfanew, len(f.data))
	}
	f.DOSHeader.AddressOfNewEXEHeader = lfanew
	log().WithField("lfanew", lfanew).Trace("parsed MS-DOS stub")
	return nil
}
