package pe

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CLIHeader is the runtime header (IMAGE_COR20_HEADER) the CLI header data
// directory points at.
type CLIHeader struct {
	Cb                      uint32
	MajorRuntimeVersion     uint16
	MinorRuntimeVersion     uint16
	MetaData                DataDirectory
	Flags                   uint32
	EntryPointToken         uint32
	Resources               DataDirectory
	StrongNameSignature     DataDirectory
	CodeManagerTable        DataDirectory
	VTableFixups            DataDirectory
	ExportAddressTableJumps DataDirectory
	ManagedNativeHeader     DataDirectory
}

// Has reports whether every COMIMAGE_FLAGS bit of flag is set.
func (h *CLIHeader) Has(flag uint32) bool {
	return h.Flags&flag == flag
}

// FlagsString lists the set COMIMAGE_FLAGS.
func (h *CLIHeader) FlagsString() string {
	var names []string
	for _, f := range []struct {
		flag uint32
		name string
	}{
		{ComImageFlagsILOnly, "ILONLY"},
		{ComImageFlags32BitRequired, "32BITREQUIRED"},
		{ComImageFlagsStrongNameSigned, "STRONGNAMESIGNED"},
		{ComImageFlagsNativeEntryPoint, "NATIVE_ENTRYPOINT"},
		{ComImageFlagsTrackDebugData, "TRACKDEBUGDATA"},
		{ComImageFlags32BitPreferred, "32BITPREFERRED"},
	} {
		if h.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

func parseCLIHeader(buf []byte, offset int) (*CLIHeader, error) {
	h := &CLIHeader{}
	r := reader{c: newCursor(buf, offset).at("CLI header")}
	r.u32(&h.Cb)
	r.u16(&h.MajorRuntimeVersion)
	r.u16(&h.MinorRuntimeVersion)
	r.dir(&h.MetaData)
	r.u32(&h.Flags)
	r.u32(&h.EntryPointToken)
	r.dir(&h.Resources)
	r.dir(&h.StrongNameSignature)
	r.dir(&h.CodeManagerTable)
	r.dir(&h.VTableFixups)
	r.dir(&h.ExportAddressTableJumps)
	r.dir(&h.ManagedNativeHeader)
	if r.err != nil {
		return nil, r.err
	}
	if h.Cb < cliHeaderSize {
		return nil, formatErrorf("CLI header", offset, ErrInvalidCLIHeader, "cb %d is less than %d", h.Cb, cliHeaderSize)
	}
	return h, nil
}

// StreamHeader names one metadata stream (#~, #Strings, #US, #GUID, #Blob).
// Offset is relative to the metadata root.
type StreamHeader struct {
	Offset uint32
	Size   uint32
	Name   string
}

// MetadataRoot is the physical metadata header. Only the header and the
// stream directory are decoded; stream contents are left as raw bytes.
type MetadataRoot struct {
	Signature    uint32
	MajorVersion uint16
	MinorVersion uint16
	Reserved     uint32
	Length       uint32
	Version      string
	Flags        uint16
	Streams      []StreamHeader

	// Offset and Size locate the whole metadata block in the file.
	Offset int
	Size   int
}

// Stream returns the header of the named stream.
func (m *MetadataRoot) Stream(name string) (StreamHeader, bool) {
	for _, s := range m.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return StreamHeader{}, false
}

func align4(n int) int { return (n + 3) &^ 3 }

func parseMetadataRoot(buf []byte, offset, size int) (*MetadataRoot, error) {
	m := &MetadataRoot{Offset: offset, Size: size}
	c := newCursor(buf, offset).at("metadata root")
	r := reader{c: c}
	r.u32(&m.Signature)
	if r.err != nil {
		return nil, r.err
	}
	if m.Signature != MetadataSignature {
		return nil, formatErrorf("metadata root", offset, ErrInvalidMetadataSignature, "found 0x%08x", m.Signature)
	}
	r.u16(&m.MajorVersion)
	r.u16(&m.MinorVersion)
	r.u32(&m.Reserved)
	r.u32(&m.Length)
	if r.err != nil {
		return nil, r.err
	}
	if m.Length > 255 || int(m.Length) > size {
		return nil, formatErrorf("metadata root", c.Offset(), ErrInvalidMetadataSignature,
			"version length %d out of range", m.Length)
	}
	version, err := c.bytes(align4(int(m.Length)))
	if err != nil {
		return nil, err
	}
	m.Version = cString(version)

	var streams uint16
	r.u16(&m.Flags)
	r.u16(&streams)
	for i := 0; i < int(streams) && r.err == nil; i++ {
		var s StreamHeader
		r.u32(&s.Offset)
		r.u32(&s.Size)
		if r.err != nil {
			break
		}
		s.Name, r.err = readStreamName(c)
		m.Streams = append(m.Streams, s)
	}
	if r.err != nil {
		return nil, errors.WithMessage(r.err, "failure to read metadata stream headers")
	}
	return m, nil
}

// readStreamName reads a null-terminated name padded to a 4-byte boundary.
// Names are at most 32 characters including the terminator.
func readStreamName(c *cursor) (string, error) {
	rest := c.Remaining()
	if len(rest) > 32 {
		rest = rest[:32]
	}
	n := bytes.IndexByte(rest, 0)
	if n < 0 {
		return "", formatErrorf("stream header", c.Offset(), ErrTruncated, "unterminated stream name")
	}
	name, err := c.bytes(align4(n + 1))
	if err != nil {
		return "", err
	}
	return string(name[:n]), nil
}

// readCLIHeader follows the CLI header directory, if any, to the CLI header
// and the metadata root.
func (f *File) readCLIHeader() error {
	dir, ok := f.OptionalHeader.DataDirectories.CLIHeader()
	if !ok {
		log().WithField("directories", len(f.OptionalHeader.DataDirectories)).Debug("image has no CLI header")
		return nil
	}

	off, err := f.OffsetFromRVA(dir.VirtualAddress)
	if err != nil {
		return errors.WithMessage(err, "failure to locate CLI header")
	}
	h, err := parseCLIHeader(f.data, off)
	if err != nil {
		return err
	}
	f.CLIHeader = h

	mdOff, err := f.OffsetFromRVA(h.MetaData.VirtualAddress)
	if err != nil {
		return errors.WithMessage(err, "failure to locate metadata root")
	}
	root, err := parseMetadataRoot(f.data, mdOff, int(h.MetaData.Size))
	if err != nil {
		return err
	}
	f.MetadataRoot = root

	log().WithFields(logrus.Fields{
		"runtime": root.Version,
		"streams": len(root.Streams),
	}).Debug("parsed CLI header")
	return nil
}
