package pe

// MinFileSize On Windows XP (x32) the smallest PE executable is 97 bytes.
const MinFileSize = 97

const ImageNTHeaderSignature = 0x00004550

// IMAGE_DIRECTORY_ENTRY constants
const (
	ImageDirectoryEntryExport        = 0
	ImageDirectoryEntryImport        = 1
	ImageDirectoryEntryResource      = 2
	ImageDirectoryEntryException     = 3
	ImageDirectoryEntrySecurity      = 4
	ImageDirectoryEntryBaseReLoc     = 5
	ImageDirectoryEntryDebug         = 6
	ImageDirectoryEntryArchitecture  = 7
	ImageDirectoryEntryGlobalPtr     = 8
	ImageDirectoryEntryTls           = 9
	ImageDirectoryEntryLoadConfig    = 10
	ImageDirectoryEntryBoundImport   = 11
	ImageDirectoryEntryIat           = 12
	ImageDirectoryEntryDelayImport   = 13
	ImageDirectoryEntryComDescriptor = 14
)

// ImageNumberOfDirectoryEntries is the size of the data directory table.
const ImageNumberOfDirectoryEntries = 16

var directoryNames = [ImageNumberOfDirectoryEntries]string{
	"Export Table",
	"Import Table",
	"Resource Table",
	"Exception Table",
	"Certificate Table",
	"Base Relocation Table",
	"Debug",
	"Architecture",
	"Global Ptr",
	"TLS Table",
	"Load Config Table",
	"Bound Import",
	"IAT",
	"Delay Import Descriptor",
	"CLI Header",
	"Reserved",
}

// DirectoryName returns the conventional name of data directory i.
func DirectoryName(i int) string {
	if i < 0 || i >= len(directoryNames) {
		return "Unknown"
	}
	return directoryNames[i]
}

const (
	ImageScnCntCode              = 0x00000020
	ImageScnCntInitializedData   = 0x00000040
	ImageScnCntUninitializedData = 0x00000080
	ImageScnMemExecute           = 0x20000000
	ImageScnMemRead              = 0x40000000
	ImageScnMemWrite             = 0x80000000
)

// COMIMAGE_FLAGS from the CLI header.
const (
	ComImageFlagsILOnly           = 0x00000001
	ComImageFlags32BitRequired    = 0x00000002
	ComImageFlagsStrongNameSigned = 0x00000008
	ComImageFlagsNativeEntryPoint = 0x00000010
	ComImageFlagsTrackDebugData   = 0x00010000
	ComImageFlags32BitPreferred   = 0x00020000
)

const (
	// MetadataSignature is "BSJB" read as a little-endian uint32.
	MetadataSignature = 0x424A5342
	cliHeaderSize     = 72
	sectionHeaderSize = 40
	maxSections       = 96
)
