package md

import (
	"fmt"

	"github.com/pkg/errors"
	pe "github.com/wanglei-coder/clrmeta"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrCorruptMetadata = errors.New("corrupt metadata")
	ErrNoImage         = errors.New("importer needs an image")
)

// ErrMissingCLIHeader is returned by VersionString for unmanaged images.
var ErrMissingCLIHeader = pe.ErrMissingCLIHeader

// LookupError is a failed name lookup. Err is ErrNotFound for an ordinary
// miss and ErrCorruptMetadata when the name is defined more than once.
type LookupError struct {
	Name  string
	Scope string
	Err   error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("type %q in %s: %v", e.Name, e.Scope, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
