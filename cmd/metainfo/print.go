package main

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	pe "github.com/wanglei-coder/clrmeta"
	"github.com/wanglei-coder/clrmeta/md"
)

type printer struct {
	w     io.Writer
	flags *Flags
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// num formats v in decimal, with hex appended under --hex.
func (p *printer) num(v uint64) string {
	if p.flags.Hex {
		return fmt.Sprintf("%d (0x%x)", v, v)
	}
	return strconv.FormatUint(v, 10)
}

func (p *printer) table(header []string, rows [][]string) {
	t := tablewriter.NewWriter(p.w)
	t.SetHeader(header)
	t.SetBorder(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.AppendBulk(rows)
	t.Render()
}

func (p *printer) logo() {
	p.printf("metainfo %s - .NET metadata header dumper\n\n", version)
}

func (p *printer) dump(path string, f *pe.File) error {
	p.printf("File %s\n", path)
	if p.flags.Assem {
		return p.assembly(f)
	}

	p.summary(f)
	if p.flags.Header {
		if p.flags.CSV {
			if err := p.headerCSV(f); err != nil {
				return err
			}
		} else {
			p.headers(f)
		}
	}
	if p.flags.Schema {
		p.schema(f)
	}
	if p.flags.Raw {
		if err := p.raw(f); err != nil {
			return err
		}
	}
	if p.flags.Validate {
		p.validate(f)
	}
	p.printf("\n")
	return nil
}

func (p *printer) summary(f *pe.File) {
	fh := f.FileHeader
	oh := f.OptionalHeader
	p.printf("  Machine:          %s (0x%04x)\n", fh.Machine, uint16(fh.Machine))
	p.printf("  Sections:         %s\n", p.num(uint64(fh.NumberOfSections)))
	p.printf("  TimeDateStamp:    %s (%s)\n", p.num(uint64(fh.TimeDateStamp)), fh.Time().Format(time.RFC3339))
	p.printf("  Characteristics:  %s\n", fh.Characteristics)
	p.printf("  Optional header:  %s, %s bytes\n", oh.Magic, p.num(uint64(fh.SizeOfOptionalHeader)))
	p.printf("  Entry point RVA:  %s\n", p.num(uint64(oh.AddressOfEntryPoint)))
	if runtime, err := f.VersionString(); err == nil {
		p.printf("  Runtime version:  %s\n", runtime)
	} else {
		p.printf("  Runtime version:  none (%v)\n", err)
	}
}

type headerSize struct {
	name   string
	offset int
	size   int
}

func headerSizes(f *pe.File) []headerSize {
	lfanew := int(f.DOSHeader.AddressOfNewEXEHeader)
	sizes := []headerSize{
		{"MS-DOS stub", 0, pe.DOSStubSize},
		{"PE signature", lfanew, 4},
		{"COFF file header", lfanew + 4, pe.FileHeaderSize},
		{"Optional header", lfanew + 4 + pe.FileHeaderSize, int(f.FileHeader.SizeOfOptionalHeader)},
	}
	if f.CLIHeader != nil {
		if off, err := f.OffsetFromRVA(f.OptionalHeader.DataDirectories.Entry(pe.ImageDirectoryEntryComDescriptor).VirtualAddress); err == nil {
			sizes = append(sizes, headerSize{"CLI header", off, int(f.CLIHeader.Cb)})
		}
	}
	if root := f.MetadataRoot; root != nil {
		sizes = append(sizes, headerSize{"Metadata", root.Offset, root.Size})
		for _, s := range root.Streams {
			sizes = append(sizes, headerSize{s.Name, root.Offset + int(s.Offset), int(s.Size)})
		}
	}
	if overlay := f.Overlay(); len(overlay) > 0 {
		sizes = append(sizes, headerSize{"Overlay", len(f.Bytes()) - len(overlay), len(overlay)})
	}
	return sizes
}

func (p *printer) headers(f *pe.File) {
	p.printf("\nHeaders:\n")
	var rows [][]string
	for _, h := range headerSizes(f) {
		rows = append(rows, []string{h.name, p.num(uint64(h.offset)), p.num(uint64(h.size))})
	}
	p.table([]string{"Header", "Offset", "Size"}, rows)

	oh := f.OptionalHeader
	p.printf("\nOptional header:\n")
	p.printf("  Linker version:     %d.%d\n", oh.MajorLinkerVersion, oh.MinorLinkerVersion)
	p.printf("  Size of code:       %s\n", p.num(uint64(oh.SizeOfCode)))
	p.printf("  Base of code:       %s\n", p.num(uint64(oh.BaseOfCode)))
	if oh.BaseOfData != nil {
		p.printf("  Base of data:       %s\n", p.num(uint64(*oh.BaseOfData)))
	}
	p.printf("  Image base:         %s\n", p.num(oh.ImageBase))
	p.printf("  Section alignment:  %s\n", p.num(uint64(oh.SectionAlignment)))
	p.printf("  File alignment:     %s\n", p.num(uint64(oh.FileAlignment)))
	p.printf("  Size of image:      %s\n", p.num(uint64(oh.SizeOfImage)))
	p.printf("  Subsystem:          %d\n", oh.Subsystem)

	var dirs [][]string
	for i, d := range oh.DataDirectories {
		if d.IsZero() {
			continue
		}
		dirs = append(dirs, []string{pe.DirectoryName(i), p.num(uint64(d.VirtualAddress)), p.num(uint64(d.Size))})
	}
	p.printf("\nData directories:\n")
	p.table([]string{"Directory", "RVA", "Size"}, dirs)

	if h := f.CLIHeader; h != nil {
		p.printf("\nCLI header:\n")
		p.printf("  Runtime version:    %d.%d\n", h.MajorRuntimeVersion, h.MinorRuntimeVersion)
		p.printf("  Flags:              %s\n", h.FlagsString())
		p.printf("  Entry point token:  %s\n", md.Token(h.EntryPointToken))
	}
}

func (p *printer) headerCSV(f *pe.File) error {
	w := csv.NewWriter(p.w)
	if err := w.Write([]string{"header", "offset", "size"}); err != nil {
		return err
	}
	for _, h := range headerSizes(f) {
		if err := w.Write([]string{h.name, strconv.Itoa(h.offset), strconv.Itoa(h.size)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (p *printer) assembly(f *pe.File) error {
	imp, err := md.NewImporter(f, nil)
	if err != nil {
		return err
	}
	runtime, err := imp.VersionString()
	if err != nil {
		return err
	}
	p.printf("  Runtime version:    %s\n", runtime)
	p.printf("  CLI header version: %d.%d\n", f.CLIHeader.MajorRuntimeVersion, f.CLIHeader.MinorRuntimeVersion)
	p.printf("  Flags:              %s\n", f.CLIHeader.FlagsString())
	p.printf("  Entry point token:  %s\n", md.Token(f.CLIHeader.EntryPointToken))
	if sn := f.CLIHeader.StrongNameSignature; !sn.IsZero() {
		p.printf("  Strong name:        %s bytes at RVA %s\n", p.num(uint64(sn.Size)), p.num(uint64(sn.VirtualAddress)))
	}
	return nil
}

func (p *printer) schema(f *pe.File) {
	root := f.MetadataRoot
	if root == nil {
		p.printf("\nNo metadata.\n")
		return
	}
	p.printf("\nMetadata root: version %d.%d, %s, %d streams\n",
		root.MajorVersion, root.MinorVersion, root.Version, len(root.Streams))
	var rows [][]string
	for _, s := range root.Streams {
		rows = append(rows, []string{s.Name, p.num(uint64(s.Offset)), p.num(uint64(s.Size))})
	}
	p.table([]string{"Stream", "Offset", "Size"}, rows)
}

func (p *printer) raw(f *pe.File) error {
	data, err := f.MetadataBytes()
	if err != nil {
		return err
	}
	p.printf("\nMetadata (%d bytes):\n%s", len(data), hex.Dump(data))
	if !p.flags.Heaps {
		return nil
	}
	for _, s := range f.MetadataRoot.Streams {
		b, err := f.StreamBytes(s)
		if err != nil {
			return err
		}
		p.printf("\nStream %s (%d bytes):\n%s", s.Name, len(b), hex.Dump(b))
	}
	return nil
}

func (p *printer) validate(f *pe.File) {
	err := pe.ValidateImage(f)
	if err == nil {
		p.printf("\nValidation: no problems found\n")
		return
	}
	msgs := pe.Messages(err)
	p.printf("\nValidation: %d problem(s)\n", len(msgs))
	for _, m := range msgs {
		p.printf("  - %s\n", m)
	}
}
