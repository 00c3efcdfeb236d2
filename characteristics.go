package pe

import (
	"fmt"
	"strings"
)

// Characteristics is the COFF file header flags field.
type Characteristics uint16

const (
	ImageFileRelocsStripped       Characteristics = 0x0001
	ImageFileExecutableImage      Characteristics = 0x0002
	ImageFileLineNumsStripped     Characteristics = 0x0004
	ImageFileLocalSymsStripped    Characteristics = 0x0008
	ImageFileAggressiveWsTrim     Characteristics = 0x0010
	ImageFileLargeAddressAware    Characteristics = 0x0020
	ImageFileBytesReversedLo      Characteristics = 0x0080
	ImageFile32BitMachine         Characteristics = 0x0100
	ImageFileDebugStripped        Characteristics = 0x0200
	ImageFileRemovableRunFromSwap Characteristics = 0x0400
	ImageFileNetRunFromSwap       Characteristics = 0x0800
	ImageFileSystem               Characteristics = 0x1000
	ImageFileDLL                  Characteristics = 0x2000
	ImageFileUpSystemOnly         Characteristics = 0x4000
	ImageFileBytesReversedHi      Characteristics = 0x8000
)

var characteristicNames = []struct {
	flag Characteristics
	name string
}{
	{ImageFileRelocsStripped, "RELOCS_STRIPPED"},
	{ImageFileExecutableImage, "EXECUTABLE_IMAGE"},
	{ImageFileLineNumsStripped, "LINE_NUMS_STRIPPED"},
	{ImageFileLocalSymsStripped, "LOCAL_SYMS_STRIPPED"},
	{ImageFileAggressiveWsTrim, "AGGRESSIVE_WS_TRIM"},
	{ImageFileLargeAddressAware, "LARGE_ADDRESS_AWARE"},
	{ImageFileBytesReversedLo, "BYTES_REVERSED_LO"},
	{ImageFile32BitMachine, "32BIT_MACHINE"},
	{ImageFileDebugStripped, "DEBUG_STRIPPED"},
	{ImageFileRemovableRunFromSwap, "REMOVABLE_RUN_FROM_SWAP"},
	{ImageFileNetRunFromSwap, "NET_RUN_FROM_SWAP"},
	{ImageFileSystem, "SYSTEM"},
	{ImageFileDLL, "DLL"},
	{ImageFileUpSystemOnly, "UP_SYSTEM_ONLY"},
	{ImageFileBytesReversedHi, "BYTES_REVERSED_HI"},
}

var knownCharacteristics = func() Characteristics {
	var all Characteristics
	for _, c := range characteristicNames {
		all |= c.flag
	}
	return all
}()

// Has reports whether every bit of flag is set.
func (c Characteristics) Has(flag Characteristics) bool {
	return c&flag == flag
}

// Unknown returns the reserved bits that are set. They are kept, not dropped.
func (c Characteristics) Unknown() Characteristics {
	return c &^ knownCharacteristics
}

// Known reports whether only defined flags are set.
func (c Characteristics) Known() bool {
	return c.Unknown() == 0
}

func (c Characteristics) String() string {
	var names []string
	for _, n := range characteristicNames {
		if c.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if u := c.Unknown(); u != 0 {
		names = append(names, fmt.Sprintf("UNRECOGNIZED(0x%04X)", uint16(u)))
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}
