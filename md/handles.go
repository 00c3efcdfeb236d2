package md

import (
	"iter"
	"strings"
)

// TypeHandle is either a *TypeDef or a *TypeRef.
type TypeHandle interface {
	Token() Token
	typeHandle()
}

// ResolutionScope is the context a type name is resolved in: a *ModuleRef, an
// *AssemblyRef, or a *TypeRef for nested types.
type ResolutionScope interface {
	Token() Token
	resolutionScope()
}

// Member is a *Field, *Method or *Event of a TypeDef.
type Member interface {
	Token() Token
	Name() string
	DeclaringType() *TypeDef
	member()
}

// MemberEnumerator produces restartable sequences of a type's members.
type MemberEnumerator interface {
	Fields() iter.Seq[*Field]
	Methods() iter.Seq[*Method]
	Events() iter.Seq[*Event]
	Members() iter.Seq[Member]
}

var (
	_ TypeHandle       = (*TypeDef)(nil)
	_ TypeHandle       = (*TypeRef)(nil)
	_ ResolutionScope  = (*ModuleRef)(nil)
	_ ResolutionScope  = (*AssemblyRef)(nil)
	_ ResolutionScope  = (*TypeRef)(nil)
	_ MemberEnumerator = (*TypeDef)(nil)
	_ Member           = (*Field)(nil)
	_ Member           = (*Method)(nil)
	_ Member           = (*Event)(nil)
)

// TypeDef is a type defined in the current module. It is immutable once its
// Module is built.
type TypeDef struct {
	module    *Module
	token     Token
	namespace string
	name      string
	enclosing *TypeDef
	nested    []*TypeDef
	fields    []*Field
	methods   []*Method
	events    []*Event
}

func (t *TypeDef) typeHandle() {}

func (t *TypeDef) Token() Token { return t.token }

func (t *TypeDef) Namespace() string { return t.namespace }

func (t *TypeDef) Name() string { return t.name }

// FullName is Namespace.Name, or Name when the namespace is empty.
func (t *TypeDef) FullName() string { return joinName(t.namespace, t.name) }

// Enclosing returns the type t is nested in, or nil for a top-level type.
func (t *TypeDef) Enclosing() *TypeDef { return t.enclosing }

// Nested returns the types nested directly in t.
func (t *TypeDef) Nested() iter.Seq[*TypeDef] { return seq(t.nested) }

func (t *TypeDef) Fields() iter.Seq[*Field] { return seq(t.fields) }

func (t *TypeDef) Methods() iter.Seq[*Method] { return seq(t.methods) }

func (t *TypeDef) Events() iter.Seq[*Event] { return seq(t.events) }

// Members yields fields, then methods, then events.
func (t *TypeDef) Members() iter.Seq[Member] {
	return func(yield func(Member) bool) {
		for _, f := range t.fields {
			if !yield(f) {
				return
			}
		}
		for _, m := range t.methods {
			if !yield(m) {
				return
			}
		}
		for _, e := range t.events {
			if !yield(e) {
				return
			}
		}
	}
}

// TypeRef records that a type named Name is expected to exist in Scope. It is
// not resolved to a definition.
type TypeRef struct {
	token Token
	scope ResolutionScope
	name  string
}

func (t *TypeRef) typeHandle() {}

func (t *TypeRef) resolutionScope() {}

func (t *TypeRef) Token() Token { return t.token }

// Name is the full name the reference was created with.
func (t *TypeRef) Name() string { return t.name }

// Scope is nil for references without a resolution scope.
func (t *TypeRef) Scope() ResolutionScope { return t.scope }

type ModuleRef struct {
	token Token
	name  string
}

func (m *ModuleRef) resolutionScope() {}

func (m *ModuleRef) Token() Token { return m.token }

func (m *ModuleRef) Name() string { return m.name }

type AssemblyRef struct {
	token   Token
	name    string
	version string
}

func (a *AssemblyRef) resolutionScope() {}

func (a *AssemblyRef) Token() Token { return a.token }

func (a *AssemblyRef) Name() string { return a.name }

func (a *AssemblyRef) Version() string { return a.version }

type Field struct {
	token Token
	owner *TypeDef
	name  string
}

func (f *Field) member()                 {}
func (f *Field) Token() Token            { return f.token }
func (f *Field) Name() string            { return f.name }
func (f *Field) DeclaringType() *TypeDef { return f.owner }

type Method struct {
	token Token
	owner *TypeDef
	name  string
}

func (m *Method) member()                 {}
func (m *Method) Token() Token            { return m.token }
func (m *Method) Name() string            { return m.name }
func (m *Method) DeclaringType() *TypeDef { return m.owner }

type Event struct {
	token Token
	owner *TypeDef
	name  string
}

func (e *Event) member()                 {}
func (e *Event) Token() Token            { return e.token }
func (e *Event) Name() string            { return e.name }
func (e *Event) DeclaringType() *TypeDef { return e.owner }

func joinName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// SplitName splits a full type name at its last dot.
func SplitName(full string) (namespace, name string) {
	i := strings.LastIndexByte(full, '.')
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}

func seq[T any](items []T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}

// scopeName describes a resolution scope for messages.
func scopeName(s ResolutionScope) string {
	switch s := s.(type) {
	case nil:
		return "<no scope>"
	case *ModuleRef:
		return "module " + s.name
	case *AssemblyRef:
		return "assembly " + s.name
	case *TypeRef:
		return "type " + s.name
	}
	return "<unknown scope>"
}
