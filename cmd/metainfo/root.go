package main

import (
	"io"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	pe "github.com/wanglei-coder/clrmeta"
	"github.com/wanglei-coder/clrmeta/md"
	"go.uber.org/multierr"
)

const version = "0.1.0"

// NewMetainfoCmd returns the root command.
func NewMetainfoCmd() *cobra.Command {
	flags := &Flags{}
	cmd := &cobra.Command{
		Use:   "metainfo [flags] <input>",
		Short: "Dump the PE and CLI headers of .NET assemblies",
		Long: `metainfo parses the PE/COFF header chain of a managed image, locates the CLI
header and metadata root, and prints what it finds.

<input> is a file name or a pattern such as 'bin/**/*.dll'.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), flags, args[0])
		},
	}
	flags.Register(cmd.Flags())
	return cmd
}

func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse --log-level")
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	return logger, nil
}

func run(stdout, stderr io.Writer, flags *Flags, input string) error {
	if err := flags.check(); err != nil {
		return err
	}
	logger, err := newLogger(stderr, flags.LogLevel)
	if err != nil {
		return err
	}
	pe.SetLogger(logger)
	md.SetLogger(logger)
	defer pe.SetLogger(nil)
	defer md.SetLogger(nil)

	files, err := expandInput(input)
	if err != nil {
		return err
	}

	p := &printer{w: stdout, flags: flags}
	if !flags.NoLogo {
		p.logo()
	}

	var errs error
	for _, path := range files {
		logger.WithField("file", path).Debug("dumping")
		if err := dumpFile(p, path); err != nil {
			errs = multierr.Append(errs, errors.WithMessage(err, path))
		}
	}
	return errs
}

// expandInput resolves a file name or doublestar pattern. A name that matches
// nothing is returned as is so the read error names it.
func expandInput(input string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(input)
	if err != nil {
		return nil, errors.Wrapf(err, "bad input pattern %q", input)
	}
	if len(matches) == 0 {
		return []string{input}, nil
	}
	return matches, nil
}

func dumpFile(p *printer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &pe.IOError{Path: path, Err: err}
	}
	if !filetype.Is(data, "exe") {
		kind, _ := filetype.Match(data)
		detected := "unknown data"
		if kind != filetype.Unknown {
			detected = kind.MIME.Value
		}
		return errors.Errorf("not a PE image (detected %s)", detected)
	}

	f, err := pe.Parse(data)
	if err != nil {
		return err
	}
	return p.dump(path, f)
}
