package md

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pe "github.com/wanglei-coder/clrmeta"
	"github.com/wanglei-coder/clrmeta/internal/testimage"
)

type fixture struct {
	imp      *Importer
	outer    *TypeDef
	inner    *TypeDef
	topInner *TypeDef
	nested   *TypeDef
	self     *ModuleRef
	other    *ModuleRef
	mscorlib *AssemblyRef
}

func parseDefault(t *testing.T, o testimage.Options) *pe.File {
	t.Helper()
	f, err := pe.Parse(testimage.Build(o))
	require.NoError(t, err)
	return f
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := NewModuleBuilder("lib.dll")
	fx := &fixture{}
	fx.outer = b.DefineType("N", "Outer", nil)
	fx.topInner = b.DefineType("", "Inner", nil)
	fx.inner = b.DefineType("", "Inner", fx.outer)
	fx.nested = b.DefineType("", "OnlyNested", fx.outer)
	fx.self = b.DefineModuleRef("lib.dll")
	fx.other = b.DefineModuleRef("native.dll")
	fx.mscorlib = b.DefineAssemblyRef("mscorlib", "4.0.0.0")

	imp, err := NewImporter(parseDefault(t, testimage.Default()), b.Build())
	require.NoError(t, err)
	fx.imp = imp
	return fx
}

func TestNewImporter(t *testing.T) {
	_, err := NewImporter(nil, nil)
	require.ErrorIs(t, err, ErrNoImage)

	imp, err := NewImporter(parseDefault(t, testimage.Default()), nil)
	require.NoError(t, err)
	assert.Empty(t, slices.Collect(imp.TypeDefs()))
	assert.Equal(t, "", imp.Module().Name())
}

func TestFindTypeDefScoping(t *testing.T) {
	fx := newFixture(t)

	top, err := fx.imp.FindTypeDef("Inner", nil)
	require.NoError(t, err)
	assert.Same(t, fx.topInner, top)

	nested, err := fx.imp.FindTypeDef("Inner", fx.outer)
	require.NoError(t, err)
	assert.Same(t, fx.inner, nested)
	assert.NotSame(t, top, nested)

	outer, err := fx.imp.FindTypeDef("N.Outer", nil)
	require.NoError(t, err)
	assert.Same(t, fx.outer, outer)

	var nilDef *TypeDef
	top, err = fx.imp.FindTypeDef("Inner", nilDef)
	require.NoError(t, err)
	assert.Same(t, fx.topInner, top)
}

func TestFindTypeDefForeignEnclosingType(t *testing.T) {
	fx := newFixture(t)

	b := NewModuleBuilder("other.dll")
	foreignOuter := b.DefineType("X", "Outer", nil)
	b.DefineType("", "Inner", foreignOuter)
	b.Build()

	got, err := fx.imp.FindTypeDef("Inner", foreignOuter)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, got)
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "Inner", le.Name)

	// The importer's own enclosing type still resolves.
	got, err = fx.imp.FindTypeDef("Inner", fx.outer)
	require.NoError(t, err)
	assert.Same(t, fx.inner, got)
}

func TestFindTypeDefNotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.imp.FindTypeDef("OnlyNested", nil)
	require.ErrorIs(t, err, ErrNotFound)
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "OnlyNested", le.Name)
	assert.Equal(t, "module lib.dll", le.Scope)

	_, err = fx.imp.FindTypeDef("N.Outer", fx.outer)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "type N.Outer", le.Scope)

	_, err = fx.imp.FindTypeDef("Outer", nil)
	assert.ErrorIs(t, err, ErrNotFound, "lookups use the full name")
}

func TestFindTypeDefDuplicate(t *testing.T) {
	b := NewModuleBuilder("lib.dll")
	b.DefineType("N", "Dup", nil)
	b.DefineType("N", "Dup", nil)
	imp, err := NewImporter(parseDefault(t, testimage.Default()), b.Build())
	require.NoError(t, err)

	_, err = imp.FindTypeDef("N.Dup", nil)
	require.ErrorIs(t, err, ErrCorruptMetadata)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFindTypeDefThroughTypeRef(t *testing.T) {
	fx := newFixture(t)

	for _, scope := range []ResolutionScope{nil, fx.self} {
		ref := fx.imp.FindTypeRef(scope, "N.Outer")
		got, err := fx.imp.FindTypeDef("Inner", ref)
		require.NoError(t, err)
		assert.Same(t, fx.inner, got)
	}

	// Nested reference chain: Outer/Inner has no nested types.
	outerRef := fx.imp.FindTypeRef(fx.self, "N.Outer")
	innerRef := fx.imp.FindTypeRef(outerRef, "Inner")
	_, err := fx.imp.FindTypeDef("Anything", innerRef)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, scope := range []ResolutionScope{fx.other, fx.mscorlib} {
		ref := fx.imp.FindTypeRef(scope, "N.Outer")
		_, err := fx.imp.FindTypeDef("Inner", ref)
		assert.ErrorIs(t, err, ErrNotFound)
	}

	missing := fx.imp.FindTypeRef(fx.self, "N.Missing")
	_, err = fx.imp.FindTypeDef("Inner", missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindTypeRefInterning(t *testing.T) {
	fx := newFixture(t)

	a := fx.imp.FindTypeRef(fx.mscorlib, "System.Object")
	b := fx.imp.FindTypeRef(fx.mscorlib, "System.Object")
	c := fx.imp.FindTypeRef(fx.mscorlib, "System.String")
	d := fx.imp.FindTypeRef(fx.other, "System.Object")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.NotSame(t, a, d)
	assert.Equal(t, NewToken(TableTypeRef, 1), a.Token())
	assert.Equal(t, NewToken(TableTypeRef, 2), c.Token())
	assert.Equal(t, NewToken(TableTypeRef, 3), d.Token())
	assert.Equal(t, "System.Object", a.Name())
	assert.Equal(t, ResolutionScope(fx.mscorlib), a.Scope())

	assert.Equal(t, []*TypeRef{a, c, d}, slices.Collect(fx.imp.TypeRefs()))
}

func TestFindTypeRefConcurrent(t *testing.T) {
	fx := newFixture(t)

	const workers = 16
	refs := make([]*TypeRef, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i] = fx.imp.FindTypeRef(fx.mscorlib, "System.Object")
			_, _ = fx.imp.FindTypeDef("Inner", fx.outer)
		}(i)
	}
	wg.Wait()

	for _, r := range refs {
		assert.Same(t, refs[0], r)
	}
	assert.Len(t, slices.Collect(fx.imp.TypeRefs()), 1)
}

func TestImporterVersionString(t *testing.T) {
	fx := newFixture(t)
	v, err := fx.imp.VersionString()
	require.NoError(t, err)
	assert.Equal(t, "v4.0.30319", v)

	o := testimage.Default()
	o.Unmanaged = true
	imp, err := NewImporter(parseDefault(t, o), nil)
	require.NoError(t, err)
	_, err = imp.VersionString()
	assert.ErrorIs(t, err, ErrMissingCLIHeader)
}

func TestImporterTypeDefs(t *testing.T) {
	fx := newFixture(t)
	var names []string
	for td := range fx.imp.TypeDefs() {
		names = append(names, td.FullName())
	}
	assert.Equal(t, []string{"N.Outer", "Inner", "Inner", "OnlyNested"}, names)
}
