// Package testimage writes small, well-formed managed PE images for tests.
// It does not import the parser.
package testimage

import (
	"encoding/binary"
)

// Fixed layout of every built image.
const (
	Lfanew               = 0x80
	FileHeaderOffset     = Lfanew + 4
	OptionalHeaderOffset = FileHeaderOffset + 20

	FileAlignment    = 0x200
	SectionAlignment = 0x2000

	// CLIHeaderRVA and MetadataRVA sit inside the first section.
	CLIHeaderRVA = SectionAlignment + 0x08
	MetadataRVA  = SectionAlignment + 0x50
)

const (
	MagicPE32     = 0x10b
	MagicPE32Plus = 0x20b
)

var dosStub = [128]byte{
	0x4d, 0x5a, 0x90, 0x00, 0x03, 0x00, 0x00, 0x00,
	0x04, 0x00, 0x00, 0x00, 0xff, 0xff, 0x00, 0x00,
	0xb8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00,
	0x0e, 0x1f, 0xba, 0x0e, 0x00, 0xb4, 0x09, 0xcd,
	0x21, 0xb8, 0x01, 0x4c, 0xcd, 0x21, 0x54, 0x68,
	0x69, 0x73, 0x20, 0x70, 0x72, 0x6f, 0x67, 0x72,
	0x61, 0x6d, 0x20, 0x63, 0x61, 0x6e, 0x6e, 0x6f,
	0x74, 0x20, 0x62, 0x65, 0x20, 0x72, 0x75, 0x6e,
	0x20, 0x69, 0x6e, 0x20, 0x44, 0x4f, 0x53, 0x20,
	0x6d, 0x6f, 0x64, 0x65, 0x2e, 0x0d, 0x0d, 0x0a,
	0x24, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// At most three sections fit between a PE32+ optional header and the first
// section's raw data.
var sectionNames = []string{".text", ".rsrc", ".reloc"}

// Options describes the image to build. Start from Default.
type Options struct {
	Magic                uint16
	Machine              uint16
	Characteristics      uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	Sections             int
	ImageBase            uint64

	// Unmanaged leaves the CLI header directory empty.
	Unmanaged bool
	CLIFlags  uint32
	Version   string
}

// Default is an AnyCPU class library: I386, DLL|LARGE_ADDRESS_AWARE|
// EXECUTABLE_IMAGE, three sections, ILONLY, runtime v4.0.30319.
func Default() Options {
	return Options{
		Magic:           MagicPE32,
		Machine:         0x14c,
		Characteristics: 0x2022,
		TimeDateStamp:   0xb669c63c,
		Sections:        3,
		ImageBase:       0x10000000,
		CLIFlags:        0x1,
		Version:         "v4.0.30319",
	}
}

// OptionalHeaderSize returns the size announced in the COFF header for magic.
func OptionalHeaderSize(magic uint16) int {
	if magic == MagicPE32Plus {
		return 112 + 16*8
	}
	return 96 + 16*8
}

// Streams are the metadata streams written after the metadata root header.
var Streams = []struct {
	Name string
	Data []byte
}{
	{"#~", []byte{0, 0, 0, 0, 2, 0, 0, 1}},
	{"#Strings", []byte{0, '<', 'M', 'o', 'd', 'u', 'l', 'e'}},
}

type writer struct {
	b   []byte
	pos int
}

func (w *writer) seek(pos int) *writer {
	w.pos = pos
	return w
}

func (w *writer) u8(v uint8) *writer {
	w.b[w.pos] = v
	w.pos++
	return w
}

func (w *writer) u16(v uint16) *writer {
	binary.LittleEndian.PutUint16(w.b[w.pos:], v)
	w.pos += 2
	return w
}

func (w *writer) u32(v uint32) *writer {
	binary.LittleEndian.PutUint32(w.b[w.pos:], v)
	w.pos += 4
	return w
}

func (w *writer) u64(v uint64) *writer {
	binary.LittleEndian.PutUint64(w.b[w.pos:], v)
	w.pos += 8
	return w
}

func (w *writer) wide(is64 bool, v uint64) *writer {
	if is64 {
		return w.u64(v)
	}
	return w.u32(uint32(v))
}

func (w *writer) raw(p []byte) *writer {
	copy(w.b[w.pos:], p)
	w.pos += len(p)
	return w
}

func align4(n int) int { return (n + 3) &^ 3 }

// Build writes the image described by o.
func Build(o Options) []byte {
	is64 := o.Magic == MagicPE32Plus
	ohSize := OptionalHeaderSize(o.Magic)
	n := o.Sections
	if n < 1 {
		n = 1
	}
	if n > len(sectionNames) {
		n = len(sectionNames)
	}

	w := &writer{b: make([]byte, FileAlignment*(n+1))}
	w.raw(dosStub[:])

	// PE signature and COFF file header.
	w.seek(Lfanew).raw([]byte{'P', 'E', 0, 0})
	w.u16(o.Machine).u16(uint16(n)).u32(o.TimeDateStamp)
	w.u32(o.PointerToSymbolTable).u32(o.NumberOfSymbols)
	w.u16(uint16(ohSize)).u16(o.Characteristics)

	// Standard fields.
	w.u16(o.Magic).u8(8).u8(0)
	w.u32(FileAlignment).u32(FileAlignment * uint32(n-1)).u32(0)
	w.u32(SectionAlignment + 0x100).u32(SectionAlignment)
	if !is64 {
		w.u32(SectionAlignment * 2)
	}

	// Windows fields.
	w.wide(is64, o.ImageBase).u32(SectionAlignment).u32(FileAlignment)
	w.u16(4).u16(0).u16(0).u16(0).u16(4).u16(0)
	w.u32(0).u32(uint32(SectionAlignment * (n + 1))).u32(FileAlignment).u32(0)
	w.u16(3).u16(0x8560)
	w.wide(is64, 0x100000).wide(is64, 0x1000).wide(is64, 0x100000).wide(is64, 0x1000)
	w.u32(0).u32(16)

	// Data directories; only the CLI header (index 14) is populated.
	for i := 0; i < 16; i++ {
		if i == 14 && !o.Unmanaged {
			w.u32(CLIHeaderRVA).u32(72)
			continue
		}
		w.u32(0).u32(0)
	}

	// Section table.
	for i := 0; i < n; i++ {
		var name [8]byte
		copy(name[:], sectionNames[i])
		w.raw(name[:])
		w.u32(FileAlignment).u32(uint32(SectionAlignment * (i + 1)))
		w.u32(FileAlignment).u32(uint32(FileAlignment * (i + 1)))
		w.u32(0).u32(0).u16(0).u16(0)
		if i == 0 {
			w.u32(0x60000020)
		} else {
			w.u32(0x40000040)
		}
	}

	if !o.Unmanaged {
		writeCLI(w, o)
	}
	return w.b
}

func rvaToOffset(rva int) int {
	return rva - SectionAlignment + FileAlignment
}

// MetadataSize is the size of the metadata block Build writes for o.
func MetadataSize(o Options) int {
	size := 16 + align4(len(o.Version)+1) + 4
	for _, s := range Streams {
		size += 8 + align4(len(s.Name)+1) + len(s.Data)
	}
	return size
}

func writeCLI(w *writer, o Options) {
	mdSize := MetadataSize(o)

	w.seek(rvaToOffset(CLIHeaderRVA))
	w.u32(72).u16(2).u16(5)
	w.u32(MetadataRVA).u32(uint32(mdSize))
	w.u32(o.CLIFlags).u32(0x06000001)
	for i := 0; i < 6; i++ {
		w.u32(0).u32(0)
	}

	versionLen := align4(len(o.Version) + 1)
	w.seek(rvaToOffset(MetadataRVA))
	w.u32(0x424A5342).u16(1).u16(1).u32(0).u32(uint32(versionLen))
	version := make([]byte, versionLen)
	copy(version, o.Version)
	w.raw(version)
	w.u16(0).u16(uint16(len(Streams)))

	headers := 0
	for _, s := range Streams {
		headers += 8 + align4(len(s.Name)+1)
	}
	dataOff := 16 + versionLen + 4 + headers
	for _, s := range Streams {
		w.u32(uint32(dataOff)).u32(uint32(len(s.Data)))
		name := make([]byte, align4(len(s.Name)+1))
		copy(name, s.Name)
		w.raw(name)
		dataOff += len(s.Data)
	}
	for _, s := range Streams {
		w.raw(s.Data)
	}
}
