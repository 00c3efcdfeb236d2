package pe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanglei-coder/clrmeta/internal/testimage"
)

func buildWithMagic(magic uint16) []byte {
	o := testimage.Default()
	o.Magic = magic
	return testimage.Build(o)
}

func TestParseStandardFieldsWidth(t *testing.T) {
	pe32 := buildWithMagic(testimage.MagicPE32)
	pe64 := buildWithMagic(testimage.MagicPE32Plus)
	require.Equal(t, len(pe32), len(pe64))

	sf32, rest32, err := ParseStandardFields(pe32, testimage.OptionalHeaderOffset)
	require.NoError(t, err)
	assert.Equal(t, MagicPE32, sf32.Magic)
	require.NotNil(t, sf32.BaseOfData)
	assert.Equal(t, uint32(testimage.SectionAlignment*2), *sf32.BaseOfData)

	sf64, rest64, err := ParseStandardFields(pe64, testimage.OptionalHeaderOffset)
	require.NoError(t, err)
	assert.Equal(t, MagicPE32Plus, sf64.Magic)
	assert.Nil(t, sf64.BaseOfData)

	assert.Equal(t, 4, len(rest64)-len(rest32), "PE32 consumes BaseOfData, PE32+ does not")
	assert.Equal(t, sf32.AddressOfEntryPoint, sf64.AddressOfEntryPoint)
	assert.Equal(t, uint32(testimage.SectionAlignment), sf64.BaseOfCode)
}

func TestParseStandardFieldsUnknownMagic(t *testing.T) {
	for _, magic := range []uint16{0x0000, 0x0107, 0x010c, 0x020a, 0xffff} {
		img := buildWithMagic(testimage.MagicPE32)
		img[testimage.OptionalHeaderOffset] = byte(magic)
		img[testimage.OptionalHeaderOffset+1] = byte(magic >> 8)

		_, _, err := ParseStandardFields(img, testimage.OptionalHeaderOffset)
		require.ErrorIs(t, err, ErrUnknownMagic, "magic 0x%x", magic)
		var fe *FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, testimage.OptionalHeaderOffset, fe.Offset)

		_, err = Parse(img)
		assert.ErrorIs(t, err, ErrUnknownMagic)
	}
}

func TestParseOptionalHeader(t *testing.T) {
	tests := []struct {
		name  string
		magic uint16
		is64  bool
	}{
		{"PE32", testimage.MagicPE32, false},
		{"PE32+", testimage.MagicPE32Plus, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := buildWithMagic(tt.magic)
			size := testimage.OptionalHeaderSize(tt.magic)

			oh, err := ParseOptionalHeader(img, testimage.OptionalHeaderOffset, uint16(size))
			require.NoError(t, err)
			assert.Equal(t, tt.is64, oh.Is64())
			assert.Equal(t, size, oh.Consumed())
			assert.Equal(t, uint64(0x10000000), oh.ImageBase)
			assert.Equal(t, uint32(testimage.SectionAlignment), oh.SectionAlignment)
			assert.Equal(t, uint32(testimage.FileAlignment), oh.FileAlignment)
			assert.Equal(t, uint64(0x100000), oh.SizeOfStackReserve)
			assert.Equal(t, uint64(0x1000), oh.SizeOfHeapCommit)
			assert.Equal(t, uint32(ImageNumberOfDirectoryEntries), oh.NumberOfRvaAndSizes)
			require.Len(t, oh.DataDirectories, ImageNumberOfDirectoryEntries)

			dir, ok := oh.DataDirectories.CLIHeader()
			require.True(t, ok)
			assert.Equal(t, DataDirectory{VirtualAddress: testimage.CLIHeaderRVA, Size: 72}, dir)
			assert.True(t, oh.DataDirectories.Entry(ImageDirectoryEntryImport).IsZero())
		})
	}
}

func TestParseOptionalHeaderWideImageBase(t *testing.T) {
	o := testimage.Default()
	o.Magic = testimage.MagicPE32Plus
	o.ImageBase = 0x140000000
	img := testimage.Build(o)

	oh, err := ParseOptionalHeader(img, testimage.OptionalHeaderOffset, uint16(testimage.OptionalHeaderSize(o.Magic)))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x140000000), oh.ImageBase)
}

func TestParseOptionalHeaderSizeMismatch(t *testing.T) {
	img := buildWithMagic(testimage.MagicPE32)

	_, err := ParseOptionalHeader(img, testimage.OptionalHeaderOffset, 1)
	require.ErrorIs(t, err, ErrOptionalHeaderSize)

	_, err = ParseOptionalHeader(img, testimage.OptionalHeaderOffset, 90)
	require.ErrorIs(t, err, ErrOptionalHeaderSize)

	// 16 directories announced but only room for 15.
	_, err = ParseOptionalHeader(img, testimage.OptionalHeaderOffset,
		uint16(testimage.OptionalHeaderSize(testimage.MagicPE32)-8))
	require.ErrorIs(t, err, ErrOptionalHeaderSize)
}

func TestDataDirectoriesEntryOutOfRange(t *testing.T) {
	var dd DataDirectories
	assert.True(t, dd.Entry(ImageDirectoryEntryComDescriptor).IsZero())
	_, ok := dd.CLIHeader()
	assert.False(t, ok)
	assert.Equal(t, "PE32+", MagicPE32Plus.String())
}
