package walker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/taproot/internal/symtab"
	"github.com/jward/taproot/internal/syntax"
)

func declareSrc(t *testing.T, srcs ...string) (*symtab.Table, *Bindings) {
	t.Helper()
	tbl := symtab.NewTable()
	var files []*syntax.File
	for i, src := range srcs {
		path := "test.rb"
		if i > 0 {
			path = "extra.rb"
		}
		f, err := syntax.ParseFile(context.Background(), path, []byte(src))
		require.NoError(t, err)
		files = append(files, f)
	}
	return tbl, Declare(tbl, files)
}

func TestDeclareBuiltins(t *testing.T) {
	tbl, _ := declareSrc(t)
	for _, name := range builtinClasses {
		id, ok := tbl.Member(tbl.Root(), name)
		require.True(t, ok, "builtin %s", name)
		assert.False(t, tbl.Get(id).Loc.Exists(), "builtin locations are synthetic")
	}
}

func TestDeclareNestedAndQualified(t *testing.T) {
	src := "module App\nend\n\nclass App::Worker\n  def run\n  end\nend\n"
	tbl, b := declareSrc(t, src)

	app, ok := tbl.Member(tbl.Root(), "App")
	require.True(t, ok)
	assert.Equal(t, symtab.KindModule, tbl.Get(app).Kind)

	worker, ok := tbl.Member(app, "Worker")
	require.True(t, ok)
	assert.Equal(t, symtab.KindClass, tbl.Get(worker).Kind)
	assert.Equal(t, "App::Worker", tbl.FullName(worker))

	run, ok := tbl.Member(worker, "run")
	require.True(t, ok)
	assert.Equal(t, symtab.KindMethod, tbl.Get(run).Kind)
	assert.Len(t, b.Methods, 1)
}

func TestDeclareStubsUnknownNamespace(t *testing.T) {
	tbl, _ := declareSrc(t, "class Missing::Thing\nend\n")

	missing, ok := tbl.Member(tbl.Root(), "Missing")
	require.True(t, ok, "unknown qualifier gets a stub module")
	assert.Equal(t, symtab.KindModule, tbl.Get(missing).Kind)
	_, ok = tbl.Member(missing, "Thing")
	assert.True(t, ok)
}

func TestLinkSuperclassAcrossFiles(t *testing.T) {
	base := "class Base\n  def shared\n  end\nend\n"
	child := "class Child < Base\nend\n"
	// Child parses first; the link pass still finds Base.
	tbl, _ := declareSrc(t, child, base)

	childSym, ok := tbl.Member(tbl.Root(), "Child")
	require.True(t, ok)
	baseSym, ok := tbl.Member(tbl.Root(), "Base")
	require.True(t, ok)
	assert.Equal(t, baseSym, tbl.Get(childSym).Superclass)

	_, ok = tbl.FindMemberTransitive(childSym, "shared")
	assert.True(t, ok)
}

func TestDefaultSuperclassIsObject(t *testing.T) {
	tbl, _ := declareSrc(t, "class Lone\nend\n")
	lone, _ := tbl.Member(tbl.Root(), "Lone")
	object, _ := tbl.Member(tbl.Root(), "Object")
	assert.Equal(t, object, tbl.Get(lone).Superclass)
}

func TestLinkConstantsAndAliases(t *testing.T) {
	src := "class Target\nend\n\nLIMIT = 10\nShortcut = Target\n"
	tbl, _ := declareSrc(t, src)

	limit, ok := tbl.Member(tbl.Root(), "LIMIT")
	require.True(t, ok)
	assert.Equal(t, symtab.KindConstant, tbl.Get(limit).Kind)
	ct, ok := tbl.Get(limit).ResultType.(symtab.ClassType)
	require.True(t, ok)
	integer, _ := tbl.Member(tbl.Root(), "Integer")
	assert.Equal(t, integer, ct.Symbol)

	shortcut, ok := tbl.Member(tbl.Root(), "Shortcut")
	require.True(t, ok)
	assert.Equal(t, symtab.KindAlias, tbl.Get(shortcut).Kind)
	target, _ := tbl.Member(tbl.Root(), "Target")
	assert.Equal(t, target, tbl.Dealias(shortcut))
}

func TestDeclareSingletonMethodAndFields(t *testing.T) {
	src := "class Store\n  def self.open\n    @handle = 1\n  end\n\n  def read\n    @buf = 2\n  end\nend\n"
	tbl, _ := declareSrc(t, src)

	store, _ := tbl.Member(tbl.Root(), "Store")
	sing, ok := tbl.SingletonClass(store)
	require.True(t, ok)

	_, ok = tbl.Member(sing, "open")
	assert.True(t, ok, "singleton methods live on the singleton class")
	_, ok = tbl.Member(store, "read")
	assert.True(t, ok)

	_, ok = tbl.Member(sing, "@handle")
	assert.True(t, ok, "singleton-method ivars live on the singleton class")
	_, ok = tbl.Member(store, "@buf")
	assert.True(t, ok, "instance-method ivars live on the class")
}
