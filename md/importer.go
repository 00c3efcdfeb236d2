package md

import (
	"iter"
	"sync"

	"github.com/sirupsen/logrus"
	pe "github.com/wanglei-coder/clrmeta"
)

// TypeResolver finds types by name.
type TypeResolver interface {
	FindTypeDef(name string, enclosing TypeHandle) (*TypeDef, error)
	FindTypeRef(scope ResolutionScope, name string) *TypeRef
}

// VersionSource reports the runtime version an image was built against.
type VersionSource interface {
	VersionString() (string, error)
}

// TypeEnumerator produces restartable sequences of a scope's types.
type TypeEnumerator interface {
	TypeDefs() iter.Seq[*TypeDef]
	TypeRefs() iter.Seq[*TypeRef]
}

// MetaDataImporter is the read side of a metadata scope.
type MetaDataImporter interface {
	TypeResolver
	VersionSource
	TypeEnumerator
}

var _ MetaDataImporter = (*Importer)(nil)

type typeRefKey struct {
	scope ResolutionScope
	name  string
}

// Importer answers queries against a parsed image and its module. Queries may
// run concurrently; only the type reference table is shared mutable state.
type Importer struct {
	image  *pe.File
	module *Module

	mu       sync.Mutex
	typeRefs map[typeRefKey]*TypeRef
	refOrder []*TypeRef
}

// NewImporter returns an importer over image, which the caller has parsed and
// validated, and the definitions in module. Both must outlive the importer.
func NewImporter(image *pe.File, module *Module) (*Importer, error) {
	if image == nil {
		return nil, ErrNoImage
	}
	if module == nil {
		module = NewModuleBuilder("").Build()
	}
	return &Importer{
		image:    image,
		module:   module,
		typeRefs: make(map[typeRefKey]*TypeRef),
	}, nil
}

func (i *Importer) Module() *Module { return i.module }

// FindTypeDef finds the definition with full name name. With a nil enclosing
// type only top-level types match; otherwise only types nested directly in
// enclosing do. A *TypeDef enclosing type must belong to this module. A
// *TypeRef enclosing type is first resolved against this module.
func (i *Importer) FindTypeDef(name string, enclosing TypeHandle) (*TypeDef, error) {
	var (
		candidates []*TypeDef
		scope      = "module " + i.module.name
	)
	switch e := enclosing.(type) {
	case nil:
		candidates = i.module.topLevel
	case *TypeDef:
		if e == nil {
			candidates = i.module.topLevel
			break
		}
		if e.module != i.module {
			return nil, &LookupError{Name: name, Scope: "type " + e.FullName() + " of another module", Err: ErrNotFound}
		}
		candidates, scope = e.nested, "type "+e.FullName()
	case *TypeRef:
		if e == nil {
			candidates = i.module.topLevel
			break
		}
		outer, err := i.resolveLocal(e)
		if err != nil {
			return nil, err
		}
		candidates, scope = outer.nested, "type "+outer.FullName()
	}

	t, err := findByName(candidates, name, scope)
	log().WithFields(logrus.Fields{"name": name, "scope": scope, "found": err == nil}).Trace("FindTypeDef")
	return t, err
}

func findByName(candidates []*TypeDef, name, scope string) (*TypeDef, error) {
	var found *TypeDef
	for _, t := range candidates {
		if t.FullName() != name {
			continue
		}
		if found != nil {
			return nil, &LookupError{Name: name, Scope: scope, Err: ErrCorruptMetadata}
		}
		found = t
	}
	if found == nil {
		return nil, &LookupError{Name: name, Scope: scope, Err: ErrNotFound}
	}
	return found, nil
}

// resolveLocal maps a type reference that points into this module to its
// definition. References into other modules or assemblies cannot be resolved
// from this image.
func (i *Importer) resolveLocal(ref *TypeRef) (*TypeDef, error) {
	switch s := ref.scope.(type) {
	case nil:
		return findByName(i.module.topLevel, ref.name, "module "+i.module.name)
	case *ModuleRef:
		if s.name != i.module.name {
			return nil, &LookupError{Name: ref.name, Scope: scopeName(s), Err: ErrNotFound}
		}
		return findByName(i.module.topLevel, ref.name, scopeName(s))
	case *AssemblyRef:
		return nil, &LookupError{Name: ref.name, Scope: scopeName(s), Err: ErrNotFound}
	case *TypeRef:
		outer, err := i.resolveLocal(s)
		if err != nil {
			return nil, err
		}
		return findByName(outer.nested, ref.name, "type "+outer.FullName())
	}
	return nil, &LookupError{Name: ref.name, Scope: scopeName(ref.scope), Err: ErrNotFound}
}

// FindTypeRef returns the reference to the type name in scope, creating it on
// first use. The same (scope, name) pair always yields the same *TypeRef. The
// referenced type is not looked up.
func (i *Importer) FindTypeRef(scope ResolutionScope, name string) *TypeRef {
	key := typeRefKey{scope: scope, name: name}

	i.mu.Lock()
	defer i.mu.Unlock()
	if ref, ok := i.typeRefs[key]; ok {
		return ref
	}
	ref := &TypeRef{
		token: NewToken(TableTypeRef, uint32(len(i.refOrder)+1)),
		scope: scope,
		name:  name,
	}
	i.typeRefs[key] = ref
	i.refOrder = append(i.refOrder, ref)
	log().WithFields(logrus.Fields{"name": name, "scope": scopeName(scope), "token": ref.token}).Trace("new TypeRef")
	return ref
}

// VersionString returns the runtime version from the image's metadata root.
func (i *Importer) VersionString() (string, error) {
	return i.image.VersionString()
}

func (i *Importer) TypeDefs() iter.Seq[*TypeDef] {
	return i.module.TypeDefs()
}

// TypeRefs yields the references created so far, in creation order. The
// sequence reflects the table at the time each iteration starts.
func (i *Importer) TypeRefs() iter.Seq[*TypeRef] {
	return func(yield func(*TypeRef) bool) {
		i.mu.Lock()
		refs := append([]*TypeRef(nil), i.refOrder...)
		i.mu.Unlock()
		for _, r := range refs {
			if !yield(r) {
				return
			}
		}
	}
}
