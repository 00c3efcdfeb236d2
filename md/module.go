package md

import "iter"

// Module is the set of definitions of one metadata scope. It is built once by
// a ModuleBuilder and never changes afterwards.
type Module struct {
	name         string
	typeDefs     []*TypeDef
	topLevel     []*TypeDef
	moduleRefs   []*ModuleRef
	assemblyRefs []*AssemblyRef
}

func (m *Module) Name() string { return m.name }

// TypeDefs yields every type definition in token order.
func (m *Module) TypeDefs() iter.Seq[*TypeDef] { return seq(m.typeDefs) }

func (m *Module) ModuleRefs() iter.Seq[*ModuleRef] { return seq(m.moduleRefs) }

func (m *Module) AssemblyRefs() iter.Seq[*AssemblyRef] { return seq(m.assemblyRefs) }

// ModuleBuilder assembles a Module. Names are not checked for uniqueness: the
// rows may come from damaged metadata, and lookups report duplicates as
// corruption. A builder must not be used after Build.
type ModuleBuilder struct {
	m       *Module
	fields  uint32
	methods uint32
	events  uint32
}

func NewModuleBuilder(name string) *ModuleBuilder {
	return &ModuleBuilder{m: &Module{name: name}}
}

// DefineType adds a type. A nil enclosing defines a top-level type.
func (b *ModuleBuilder) DefineType(namespace, name string, enclosing *TypeDef) *TypeDef {
	t := &TypeDef{
		module:    b.m,
		token:     NewToken(TableTypeDef, uint32(len(b.m.typeDefs)+1)),
		namespace: namespace,
		name:      name,
		enclosing: enclosing,
	}
	b.m.typeDefs = append(b.m.typeDefs, t)
	if enclosing == nil {
		b.m.topLevel = append(b.m.topLevel, t)
	} else {
		enclosing.nested = append(enclosing.nested, t)
	}
	return t
}

func (b *ModuleBuilder) DefineField(owner *TypeDef, name string) *Field {
	b.fields++
	f := &Field{token: NewToken(TableField, b.fields), owner: owner, name: name}
	owner.fields = append(owner.fields, f)
	return f
}

func (b *ModuleBuilder) DefineMethod(owner *TypeDef, name string) *Method {
	b.methods++
	m := &Method{token: NewToken(TableMethodDef, b.methods), owner: owner, name: name}
	owner.methods = append(owner.methods, m)
	return m
}

func (b *ModuleBuilder) DefineEvent(owner *TypeDef, name string) *Event {
	b.events++
	e := &Event{token: NewToken(TableEvent, b.events), owner: owner, name: name}
	owner.events = append(owner.events, e)
	return e
}

func (b *ModuleBuilder) DefineModuleRef(name string) *ModuleRef {
	r := &ModuleRef{token: NewToken(TableModuleRef, uint32(len(b.m.moduleRefs)+1)), name: name}
	b.m.moduleRefs = append(b.m.moduleRefs, r)
	return r
}

func (b *ModuleBuilder) DefineAssemblyRef(name, version string) *AssemblyRef {
	r := &AssemblyRef{
		token:   NewToken(TableAssemblyRef, uint32(len(b.m.assemblyRefs)+1)),
		name:    name,
		version: version,
	}
	b.m.assemblyRefs = append(b.m.assemblyRefs, r)
	return r
}

func (b *ModuleBuilder) Build() *Module {
	m := b.m
	b.m = nil
	return m
}
