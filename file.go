package pe

import (
	"os"
)

// File is a parsed image. It references the buffer it was parsed from and
// never modifies it, so a File may be shared between goroutines.
type File struct {
	DOSHeader
	NtHeader
	Sections []*Section

	// CLIHeader and MetadataRoot are nil when the image is not managed.
	CLIHeader    *CLIHeader
	MetadataRoot *MetadataRoot

	data []byte
}

// NewFile reads the whole file at filename and parses it. Failures to read the
// file are returned as *IOError.
func NewFile(filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &IOError{Path: filename, Err: err}
	}
	return Parse(data)
}

// Parse decodes the header chain of the image in data: MS-DOS stub, PE
// signature, COFF file header, optional header, section table and, when
// present, the CLI header and metadata root. data must not be modified while
// the File is in use.
func Parse(data []byte) (*File, error) {
	if len(data) < MinFileSize {
		return nil, ErrInvalidPESize
	}

	file := &File{data: data}
	if err := file.readDOSHeader(); err != nil {
		return nil, err
	}

	if err := file.readNTHeader(); err != nil {
		return nil, err
	}

	if err := file.readSections(); err != nil {
		return nil, err
	}

	if err := file.readCLIHeader(); err != nil {
		return nil, err
	}
	return file, nil
}

func (f *File) GetSize() uint32 {
	return uint32(len(f.data))
}

// Bytes returns the underlying image buffer.
func (f *File) Bytes() []byte {
	return f.data
}

func (f *File) Section(name string) *Section {
	for _, s := range f.Sections {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// IsManaged reports whether the image carries a CLI header.
func (f *File) IsManaged() bool {
	return f.CLIHeader != nil
}

// VersionString returns the runtime version recorded in the metadata root,
// e.g. "v4.0.30319".
func (f *File) VersionString() (string, error) {
	if f.MetadataRoot == nil {
		return "", ErrMissingCLIHeader
	}
	return f.MetadataRoot.Version, nil
}

// MetadataBytes returns the raw metadata block.
func (f *File) MetadataBytes() ([]byte, error) {
	if f.MetadataRoot == nil {
		return nil, ErrMissingCLIHeader
	}
	return newCursor(f.data, f.MetadataRoot.Offset).at("metadata").bytes(f.MetadataRoot.Size)
}

// StreamBytes returns the raw contents of a metadata stream. A stream that
// extends past the metadata block is reported as truncated.
func (f *File) StreamBytes(s StreamHeader) ([]byte, error) {
	root := f.MetadataRoot
	if root == nil {
		return nil, ErrMissingCLIHeader
	}
	start := root.Offset + int(s.Offset)
	if uint64(s.Offset)+uint64(s.Size) > uint64(root.Size) {
		return nil, formatErrorf("stream "+s.Name, start, ErrTruncated,
			"stream of %d bytes at 0x%x runs past metadata of %d bytes", s.Size, s.Offset, root.Size)
	}
	return newCursor(f.data, start).at("stream " + s.Name).bytes(int(s.Size))
}
