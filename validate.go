package pe

import (
	"go.uber.org/multierr"
)

// Validator checks a parsed image against the rules ECMA-335 §II.25 places on
// managed images. Every check runs; failures are collected, never
// short-circuited.
type Validator struct {
	// RelocsStripped is the expected value of IMAGE_FILE_RELOCS_STRIPPED.
	RelocsStripped bool
}

// mergeErrors combines two check results, left before right. It is
// associative and nil is its identity.
func mergeErrors(left, right error) error {
	return multierr.Append(left, right)
}

func foldErrors(errs ...error) error {
	var out error
	for _, err := range errs {
		out = mergeErrors(out, err)
	}
	return out
}

// Messages flattens a validation result into its messages, in check order.
func Messages(err error) []string {
	var msgs []string
	for _, e := range multierr.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	return msgs
}

// ValidateImage runs every check against f.
func (v Validator) ValidateImage(f *File) error {
	return foldErrors(
		v.ValidateFileHeader(&f.FileHeader),
		validateOptionalHeader(f.OptionalHeader),
		validateCLIHeader(f),
	)
}

// ValidateImage validates f with the default expectations.
func ValidateImage(f *File) error {
	return Validator{}.ValidateImage(f)
}

// ValidateFileHeader checks the COFF file header fields of a managed image.
func (v Validator) ValidateFileHeader(h *FileHeader) error {
	return foldErrors(
		validateMachine(h.Machine),
		validateSymbolPtr(h.PointerToSymbolTable),
		validateSymbolNum(h.NumberOfSymbols),
		v.validateFileCharacteristics(h.Characteristics),
	)
}

// ValidateFileHeader checks h with the default expectations.
func ValidateFileHeader(h *FileHeader) error {
	return Validator{}.ValidateFileHeader(h)
}

func validateMachine(m Machine) error {
	// ECMA-335 §II.25.2.2 requires 0x14c; 64-bit images built by newer tool
	// chains carry other values and are reported, not rejected.
	if m != ImageFileMachineI386 {
		return validationErrorf("machine", "unexpected machine value: 0x%x (%s)", uint16(m), m)
	}
	return nil
}

func validateSymbolPtr(ptr uint32) error {
	if ptr != 0 {
		return validationErrorf("symbol table", "unexpected pointer to symbol table: 0x%x", ptr)
	}
	return nil
}

func validateSymbolNum(num uint32) error {
	if num != 0 {
		return validationErrorf("symbol count", "unexpected number of symbols: %d", num)
	}
	return nil
}

func (v Validator) validateFileCharacteristics(flags Characteristics) error {
	var relocs Characteristics
	if v.RelocsStripped {
		relocs = ImageFileRelocsStripped
	}
	return foldErrors(
		validateFlag(flags, ImageFileRelocsStripped, relocs),
		validateFlag(flags, ImageFileExecutableImage, ImageFileExecutableImage),
		validateKnownFlags(flags),
	)
}

// validateFlag checks that the bits of flags at position equal expectation.
func validateFlag(flags, position, expectation Characteristics) error {
	if flags&position != expectation {
		return validationErrorf("characteristics", "unexpected file characteristic: %s expected %s",
			position, onOff(expectation != 0))
	}
	return nil
}

func validateKnownFlags(flags Characteristics) error {
	if u := flags.Unknown(); u != 0 {
		return validationErrorf("characteristics", "reserved file characteristics set: 0x%04x", uint16(u))
	}
	return nil
}

func onOff(set bool) string {
	if set {
		return "set"
	}
	return "clear"
}

func validateOptionalHeader(oh *OptionalHeader) error {
	if oh == nil {
		return validationErrorf("optional header", "missing optional header")
	}

	var errs []error
	if oh.ImageBase%0x10000 != 0 {
		errs = append(errs, validationErrorf("image base", "image base 0x%x not aligned to 64 K", oh.ImageBase))
	}
	if n := len(oh.DataDirectories); n != ImageNumberOfDirectoryEntries {
		errs = append(errs, validationErrorf("data directories",
			"unexpected number of data directories: %d", n))
	}
	if _, ok := oh.DataDirectories.CLIHeader(); !ok {
		errs = append(errs, validationErrorf("cli header", "missing CLI header data directory"))
	}
	return foldErrors(errs...)
}

// validateCLIHeader checks that IMAGE_FILE_32BIT_MACHINE is set if and only if
// the runtime header requires a 32-bit process.
func validateCLIHeader(f *File) error {
	if f.CLIHeader == nil {
		return nil
	}
	required := f.CLIHeader.Has(ComImageFlags32BitRequired)
	machine32 := f.FileHeader.Characteristics.Has(ImageFile32BitMachine)
	if required != machine32 {
		return validationErrorf("32bit", "IMAGE_FILE_32BIT_MACHINE is %s but COMIMAGE_FLAGS_32BITREQUIRED is %s",
			onOff(machine32), onOff(required))
	}
	return nil
}
