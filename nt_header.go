package pe

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FileHeaderSize is the size of the COFF file header.
const FileHeaderSize = 20

var peSignature = []byte{'P', 'E', 0, 0}

type NtHeader struct {
	Signature      uint32
	FileHeader     FileHeader
	OptionalHeader *OptionalHeader
}

type FileHeader struct {
	Machine              Machine
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      Characteristics
}

// Time returns TimeDateStamp as a UTC time.
func (h *FileHeader) Time() time.Time {
	return time.Unix(int64(h.TimeDateStamp), 0).UTC()
}

// ParseFileHeader decodes the 20-byte COFF file header at offset. The symbol
// table pointer and count are read but only checked by ValidateFileHeader.
func ParseFileHeader(buf []byte, offset int) (*FileHeader, error) {
	c := newCursor(buf, offset).at("file header")

	raw, err := c.u16()
	if err != nil {
		return nil, err
	}
	machine, err := ParseMachine(raw)
	if err != nil {
		log().WithField("machine", raw).Warn("invalid machine type")
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Offset = offset
		}
		return nil, err
	}

	h := &FileHeader{Machine: machine}
	var flags uint16
	r := reader{c: c}
	r.u16(&h.NumberOfSections)
	r.u32(&h.TimeDateStamp)
	r.u32(&h.PointerToSymbolTable)
	r.u32(&h.NumberOfSymbols)
	r.u16(&h.SizeOfOptionalHeader)
	r.u16(&flags)
	if r.err != nil {
		return nil, r.err
	}
	h.Characteristics = Characteristics(flags)

	log().WithFields(logrus.Fields{
		"machine":  h.Machine,
		"sections": h.NumberOfSections,
		"flags":    h.Characteristics,
	}).Trace("parsed COFF file header")
	return h, nil
}

func (f *File) readNTHeader() error {
	offset := int(f.DOSHeader.AddressOfNewEXEHeader)
	c := newCursor(f.data, offset).at("PE signature")
	if err := c.expect(peSignature, ErrInvalidPESignature); err != nil {
		return err
	}
	f.Signature = ImageNTHeaderSignature

	fh, err := ParseFileHeader(f.data, c.Offset())
	if err != nil {
		return err
	}
	f.FileHeader = *fh

	oh, err := ParseOptionalHeader(f.data, c.Offset()+FileHeaderSize, fh.SizeOfOptionalHeader)
	if err != nil {
		return err
	}
	f.OptionalHeader = oh
	return nil
}
