package pe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanglei-coder/clrmeta/internal/testimage"
)

func parseImage(t *testing.T, o testimage.Options) *File {
	t.Helper()
	f, err := Parse(testimage.Build(o))
	require.NoError(t, err)
	return f
}

func TestMergeErrors(t *testing.T) {
	a := validationErrorf("a", "first")
	b := validationErrorf("b", "second")
	c := validationErrorf("c", "third")

	assert.NoError(t, mergeErrors(nil, nil))
	assert.Equal(t, []string{"first"}, Messages(mergeErrors(a, nil)))
	assert.Equal(t, []string{"second"}, Messages(mergeErrors(nil, b)))
	assert.Equal(t, []string{"first", "second"}, Messages(mergeErrors(a, b)))

	left := Messages(mergeErrors(mergeErrors(a, b), c))
	right := Messages(mergeErrors(a, mergeErrors(b, c)))
	assert.Equal(t, []string{"first", "second", "third"}, left)
	assert.Equal(t, left, right)

	assert.Empty(t, Messages(nil))
}

func TestValidateFileHeader(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*testimage.Options)
		want   []string
	}{
		{
			name:   "valid",
			modify: func(*testimage.Options) {},
		},
		{
			name:   "symbol table pointer",
			modify: func(o *testimage.Options) { o.PointerToSymbolTable = 0x400 },
			want:   []string{"unexpected pointer to symbol table: 0x400"},
		},
		{
			name: "symbols and not executable",
			modify: func(o *testimage.Options) {
				o.NumberOfSymbols = 5
				o.Characteristics = 0x2020
			},
			want: []string{
				"unexpected number of symbols: 5",
				"unexpected file characteristic: EXECUTABLE_IMAGE expected set",
			},
		},
		{
			name:   "relocs stripped",
			modify: func(o *testimage.Options) { o.Characteristics |= 0x0001 },
			want:   []string{"unexpected file characteristic: RELOCS_STRIPPED expected clear"},
		},
		{
			name:   "reserved bit",
			modify: func(o *testimage.Options) { o.Characteristics |= 0x0040 },
			want:   []string{"reserved file characteristics set: 0x0040"},
		},
		{
			name:   "machine",
			modify: func(o *testimage.Options) { o.Machine = 0x8664 },
			want:   []string{"unexpected machine value: 0x8664 (x64)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testimage.Default()
			tt.modify(&o)
			f := parseImage(t, o)

			err := ValidateFileHeader(&f.FileHeader)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, Messages(err))

			var ve *ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestValidatorRelocsStripped(t *testing.T) {
	f := parseImage(t, testimage.Default())
	err := Validator{RelocsStripped: true}.ValidateImage(f)
	assert.Equal(t, []string{"unexpected file characteristic: RELOCS_STRIPPED expected set"}, Messages(err))

	o := testimage.Default()
	o.Characteristics |= 0x0001
	assert.NoError(t, Validator{RelocsStripped: true}.ValidateImage(parseImage(t, o)))
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(parseImage(t, testimage.Default())))

	o := testimage.Default()
	o.Unmanaged = true
	assert.Equal(t, []string{"missing CLI header data directory"}, Messages(ValidateImage(parseImage(t, o))))

	o = testimage.Default()
	o.ImageBase = 0x10001000
	o.NumberOfSymbols = 1
	assert.Equal(t, []string{
		"unexpected number of symbols: 1",
		"image base 0x10001000 not aligned to 64 K",
	}, Messages(ValidateImage(parseImage(t, o))))
}

func TestValidate32BitRequired(t *testing.T) {
	o := testimage.Default()
	o.CLIFlags = ComImageFlagsILOnly | ComImageFlags32BitRequired
	err := ValidateImage(parseImage(t, o))
	assert.Equal(t, []string{
		"IMAGE_FILE_32BIT_MACHINE is clear but COMIMAGE_FLAGS_32BITREQUIRED is set",
	}, Messages(err))

	o.Characteristics |= uint16(ImageFile32BitMachine)
	assert.NoError(t, ValidateImage(parseImage(t, o)))

	o = testimage.Default()
	o.Characteristics |= uint16(ImageFile32BitMachine)
	assert.Len(t, Messages(ValidateImage(parseImage(t, o))), 1)
}
