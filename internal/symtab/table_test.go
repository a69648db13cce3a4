package symtab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc(file string, start, end int) Loc {
	return Loc{File: file, Start: start, End: end}
}

func TestLocExistsAndOverlaps(t *testing.T) {
	real := loc("a.rb", 4, 10)
	assert.True(t, real.Exists())
	assert.False(t, Loc{}.Exists())

	// Half-open ranges: [4,10) and [10,12) share nothing.
	assert.False(t, real.Overlaps(loc("a.rb", 10, 12)))
	assert.True(t, real.Overlaps(loc("a.rb", 9, 12)))
	assert.True(t, real.Overlaps(loc("a.rb", 0, 5)))
	assert.False(t, real.Overlaps(loc("b.rb", 4, 10)))
	assert.False(t, real.Overlaps(Loc{}))
	assert.False(t, Loc{}.Overlaps(real))
}

func TestEnterAndMemberLookup(t *testing.T) {
	tbl := NewTable()
	cls := tbl.EnterClass(tbl.Root(), "Widget", loc("w.rb", 0, 12))
	m := tbl.EnterMethod(cls, "render", loc("w.rb", 14, 28), nil)

	got, ok := tbl.Member(cls, "render")
	require.True(t, ok)
	assert.Equal(t, m, got)
	assert.Equal(t, "Widget::render", tbl.FullName(m))
	assert.Equal(t, KindMethod, tbl.Get(m).Kind)

	// Reopening the class returns the original symbol.
	again := tbl.EnterClass(tbl.Root(), "Widget", loc("w2.rb", 0, 12))
	assert.Equal(t, cls, again)
	assert.Equal(t, "w.rb", tbl.Get(cls).Loc.File)
}

func TestFindMemberTransitive(t *testing.T) {
	tbl := NewTable()
	base := tbl.EnterClass(tbl.Root(), "Base", loc("b.rb", 0, 10))
	child := tbl.EnterClass(tbl.Root(), "Child", loc("c.rb", 0, 10))
	tbl.SetSuperclass(child, base)
	m := tbl.EnterMethod(base, "greet", loc("b.rb", 12, 22), nil)

	got, ok := tbl.FindMemberTransitive(child, "greet")
	require.True(t, ok)
	assert.Equal(t, m, got)

	_, ok = tbl.FindMemberTransitive(child, "missing")
	assert.False(t, ok)
}

func TestFindMemberTransitiveCyclePanics(t *testing.T) {
	tbl := NewTable()
	a := tbl.EnterClass(tbl.Root(), "A", loc("a.rb", 0, 1))
	b := tbl.EnterClass(tbl.Root(), "B", loc("a.rb", 2, 3))
	tbl.SetSuperclass(a, b)
	tbl.SetSuperclass(b, a)

	assert.Panics(t, func() { tbl.FindMemberTransitive(a, "missing") })
}

func TestDealias(t *testing.T) {
	tbl := NewTable()
	cls := tbl.EnterClass(tbl.Root(), "Target", loc("t.rb", 0, 10))
	a1 := tbl.EnterAlias(tbl.Root(), "Alias1", loc("t.rb", 12, 18), cls)
	a2 := tbl.EnterAlias(tbl.Root(), "Alias2", loc("t.rb", 20, 26), a1)

	assert.Equal(t, cls, tbl.Dealias(a2))
	assert.Equal(t, cls, tbl.Dealias(a1))
	assert.Equal(t, cls, tbl.Dealias(cls))
}

func TestSingletonClass(t *testing.T) {
	tbl := NewTable()
	cls := tbl.EnterClass(tbl.Root(), "Widget", loc("w.rb", 0, 10))

	sing := tbl.SingletonClassOf(cls)
	require.True(t, tbl.Exists(sing))
	assert.Equal(t, sing, tbl.SingletonClassOf(cls), "singleton class is created once")

	att, ok := tbl.AttachedClass(sing)
	require.True(t, ok)
	assert.Equal(t, cls, att)

	_, ok = tbl.AttachedClass(cls)
	assert.False(t, ok, "ordinary classes have no attached class")

	// Singleton class locations are synthetic.
	assert.False(t, tbl.Get(sing).Loc.Exists())
}

func TestSingletonHierarchyMirrorsAttached(t *testing.T) {
	tbl := NewTable()
	base := tbl.EnterClass(tbl.Root(), "Base", loc("b.rb", 0, 10))
	child := tbl.EnterClass(tbl.Root(), "Child", loc("c.rb", 0, 10))
	tbl.SetSuperclass(child, base)

	classMethod := tbl.EnterMethod(tbl.SingletonClassOf(base), "build", loc("b.rb", 12, 22), nil)

	got, ok := tbl.FindMemberTransitive(tbl.SingletonClassOf(child), "build")
	require.True(t, ok)
	assert.Equal(t, classMethod, got)
}

// The attached-class relation must be acyclic: every chain of attached
// edges terminates. The walk in the resolution pass relies on this.
func TestAttachedChainTerminates(t *testing.T) {
	tbl := NewTable()
	cls := tbl.EnterClass(tbl.Root(), "Deep", loc("d.rb", 0, 10))

	// Stack several singleton levels and walk them back down.
	cur := cls
	for i := 0; i < 4; i++ {
		cur = tbl.SingletonClassOf(cur)
	}

	seen := map[SymbolID]bool{}
	for {
		require.False(t, seen[cur], "attached-class chain revisited %d", cur)
		seen[cur] = true
		att, ok := tbl.AttachedClass(cur)
		if !ok {
			break
		}
		cur = att
	}
	assert.Equal(t, cls, cur)
}

func TestLocContains(t *testing.T) {
	outer := loc("a.rb", 4, 20)
	assert.True(t, outer.Contains(loc("a.rb", 4, 20)))
	assert.True(t, outer.Contains(loc("a.rb", 8, 12)))
	assert.False(t, outer.Contains(loc("a.rb", 2, 12)))
	assert.False(t, outer.Contains(loc("a.rb", 8, 22)))
	assert.False(t, outer.Contains(loc("b.rb", 8, 12)))
	assert.False(t, outer.Contains(Loc{}))
	assert.False(t, Loc{}.Contains(outer))
}

func TestMembers(t *testing.T) {
	tbl := NewTable()
	cls := tbl.EnterClass(tbl.Root(), "Widget", loc("w.rb", 0, 12))
	render := tbl.EnterMethod(cls, "render", loc("w.rb", 14, 28), nil)
	resize := tbl.EnterMethod(cls, "resize", loc("w.rb", 30, 44), nil)

	assert.ElementsMatch(t, []SymbolID{render, resize}, tbl.Members(cls))
	assert.Nil(t, tbl.Members(NoSymbol))
}
