package pe

import (
	"bytes"
	"encoding/binary"
)

// cursor reads little-endian fields from an immutable image buffer. It never
// copies; every accessor returns a value or a *FormatError wrapping
// ErrTruncated.
type cursor struct {
	buf   []byte
	off   int
	field string
}

func newCursor(buf []byte, offset int) *cursor {
	return &cursor{buf: buf, off: offset}
}

// at names the structure being decoded, for error messages.
func (c *cursor) at(field string) *cursor {
	c.field = field
	return c
}

func (c *cursor) Offset() int { return c.off }

// Remaining returns the unread tail of the buffer.
func (c *cursor) Remaining() []byte {
	if c.off >= len(c.buf) {
		return nil
	}
	return c.buf[c.off:]
}

func (c *cursor) need(n int) error {
	if n < 0 || c.off < 0 || c.off > len(c.buf) || len(c.buf)-c.off < n {
		return formatErrorf(c.field, c.off, ErrTruncated, "need %d bytes, have %d", n, len(c.Remaining()))
	}
	return nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) skip(n int) error {
	_, err := c.bytes(n)
	return err
}

func (c *cursor) u8() (uint8, error) {
	b, err := c.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) u16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) u32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) u64() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// expect matches lit byte for byte. On mismatch the cursor does not move and
// the error carries the offset of the first differing byte.
func (c *cursor) expect(lit []byte, sentinel error) error {
	if err := c.need(len(lit)); err != nil {
		return err
	}
	got := c.buf[c.off : c.off+len(lit)]
	if !bytes.Equal(got, lit) {
		i := 0
		for got[i] == lit[i] {
			i++
		}
		return formatErrorf(c.field, c.off+i, sentinel, "expected 0x%02x, found 0x%02x", lit[i], got[i])
	}
	c.off += len(lit)
	return nil
}

// reader collects the first error of a run of reads, in the style of
// binary.Read chains: once err is set every later read is a no-op.
type reader struct {
	c   *cursor
	err error
}

func (r *reader) u8(v *uint8) {
	if r.err == nil {
		*v, r.err = r.c.u8()
	}
}

func (r *reader) u16(v *uint16) {
	if r.err == nil {
		*v, r.err = r.c.u16()
	}
}

func (r *reader) u32(v *uint32) {
	if r.err == nil {
		*v, r.err = r.c.u32()
	}
}

func (r *reader) u64(v *uint64) {
	if r.err == nil {
		*v, r.err = r.c.u64()
	}
}

func (r *reader) dir(d *DataDirectory) {
	r.u32(&d.VirtualAddress)
	r.u32(&d.Size)
}
