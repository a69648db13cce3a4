package lsquery

import (
	"testing"

	"github.com/jward/taproot/internal/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc(file string, start, end int) symtab.Loc {
	return symtab.Loc{File: file, Start: start, End: end}
}

func TestZeroQueryMatchesNothing(t *testing.T) {
	tbl := symtab.NewTable()
	sym := tbl.EnterClass(tbl.Root(), "Widget", loc("w.rb", 0, 10))

	var q Query
	assert.False(t, q.Active())
	assert.False(t, q.MatchesLoc(loc("w.rb", 0, 10)))
	assert.False(t, q.MatchesSymbol(tbl, sym))
}

func TestByLocationMatching(t *testing.T) {
	q := ByLocation(loc("a.rb", 10, 14))
	require.True(t, q.Active())

	assert.True(t, q.MatchesLoc(loc("a.rb", 10, 14)))
	assert.True(t, q.MatchesLoc(loc("a.rb", 0, 11)), "overlap on one character")
	assert.True(t, q.MatchesLoc(loc("a.rb", 13, 30)))
	assert.False(t, q.MatchesLoc(loc("a.rb", 14, 20)), "half-open ranges do not touch")
	assert.False(t, q.MatchesLoc(loc("b.rb", 10, 14)), "different file")
	assert.False(t, q.MatchesLoc(symtab.Loc{}), "synthetic locations never match")

	// Exactly one predicate is meaningful per query.
	tbl := symtab.NewTable()
	sym := tbl.EnterClass(tbl.Root(), "Widget", loc("a.rb", 10, 14))
	assert.False(t, q.MatchesSymbol(tbl, sym))
}

func TestBySymbolMatchingDealiases(t *testing.T) {
	tbl := symtab.NewTable()
	cls := tbl.EnterClass(tbl.Root(), "Target", loc("t.rb", 0, 10))
	alias := tbl.EnterAlias(tbl.Root(), "Shortcut", loc("t.rb", 12, 20), cls)
	other := tbl.EnterClass(tbl.Root(), "Other", loc("t.rb", 22, 30))

	q := BySymbol(cls)
	assert.True(t, q.MatchesSymbol(tbl, cls))
	assert.True(t, q.MatchesSymbol(tbl, alias), "aliases match their target")
	assert.False(t, q.MatchesSymbol(tbl, other))
	assert.False(t, q.MatchesSymbol(tbl, symtab.NoSymbol))
	assert.False(t, q.MatchesLoc(loc("t.rb", 0, 10)), "symbol mode never matches locations")
}

func TestCollectorOrder(t *testing.T) {
	c := NewCollector()
	assert.True(t, c.Empty())
	_, ok := c.First()
	assert.False(t, ok)

	first := NewIdentResponse(loc("a.rb", 4, 5), "x", symtab.TypeAndOrigins{}, symtab.NoSymbol)
	second := NewSendResponse(loc("a.rb", 8, 11), "foo", nil)
	c.Push(first)
	c.Push(second)

	got, ok := c.First()
	require.True(t, ok)
	assert.Equal(t, KindIdent, got.Kind)
	assert.Len(t, c.Responses(), 2)
	assert.Equal(t, KindSend, c.Responses()[1].Kind)
}
