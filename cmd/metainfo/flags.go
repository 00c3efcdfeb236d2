package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Flags are the dumper's command-line options.
type Flags struct {
	Hex      bool
	Header   bool
	CSV      bool
	Unsat    bool
	Assem    bool
	Schema   bool
	Raw      bool
	Heaps    bool
	Names    bool
	Validate bool
	NoLogo   bool
	Obj      string
	LogLevel string
}

func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.Hex, "hex", "x", false, "Prints more things in hex as well as words.")
	fs.BoolVarP(&f.Header, "header", "H", false, "Prints MetaData header information and sizes.")
	fs.BoolVarP(&f.CSV, "csv", "c", false, "Prints the header sizes in Comma Separated format.")
	fs.BoolVarP(&f.Unsat, "unsat", "u", false, "Prints unresolved externals.")
	fs.BoolVarP(&f.Assem, "assem", "a", false, "Prints only the Assembly information.")
	fs.BoolVarP(&f.Schema, "schema", "s", false, "Prints the MetaData schema information.")
	fs.BoolVarP(&f.Raw, "raw", "r", false, "Prints the raw MetaData tables.")
	fs.BoolVarP(&f.Heaps, "heaps", "p", false, "Prints the raw heaps (only if -raw).")
	fs.BoolVarP(&f.Names, "names", "n", false, "Prints string columns (only if -raw).")
	fs.BoolVarP(&f.Validate, "validate", "v", false, "Validate the consistency of the metadata.")
	fs.BoolVarP(&f.NoLogo, "nologo", "q", false, "Do not display the logo and MVID.")
	fs.StringVarP(&f.Obj, "obj", "o", "", "Prints the MetaData for the specified obj file in the given archive(.lib)")
	fs.StringVar(&f.LogLevel, "log-level", "warning", "Log level (trace, debug, info, warning, error)")
}

// check rejects options that need the metadata tables decoded.
func (f *Flags) check() error {
	for _, o := range []struct {
		set  bool
		name string
	}{
		{f.Unsat, "unsat"},
		{f.Names, "names"},
		{f.Obj != "", "obj"},
	} {
		if o.set {
			return errors.Errorf("--%s requires decoding the metadata tables, which metainfo does not support", o.name)
		}
	}
	if f.Heaps && !f.Raw {
		return errors.New("--heaps is only valid with --raw")
	}
	return nil
}
