// Package lsquery defines the query predicate, the tagged response records
// emitted by the resolution pass, and the per-run response collector that
// together answer "where is this defined" and "where is this used".
package lsquery

import "github.com/jward/taproot/internal/symtab"

type queryMode uint8

const (
	modeNone queryMode = iota
	modeLoc
	modeSymbol
)

// Query is an immutable predicate over either a source range or a symbol
// identity. Exactly one of the two predicates is meaningful per instance;
// the other always reports false. The zero Query matches nothing, which
// makes the traversal hooks no-ops on ordinary compile runs.
type Query struct {
	mode queryMode
	loc  symtab.Loc
	sym  symtab.SymbolID
}

// ByLocation builds a location-mode query targeting loc.
func ByLocation(loc symtab.Loc) Query {
	return Query{mode: modeLoc, loc: loc}
}

// BySymbol builds a symbol-mode query targeting sym.
func BySymbol(sym symtab.SymbolID) Query {
	return Query{mode: modeSymbol, sym: sym}
}

// Active reports whether the query can match anything at all.
func (q Query) Active() bool {
	return q.mode != modeNone
}

// MatchesLoc reports whether loc is a real location overlapping the
// query's target range. Always false for symbol-mode and inactive
// queries, and for synthetic locations.
func (q Query) MatchesLoc(loc symtab.Loc) bool {
	return q.mode == modeLoc && loc.Exists() && q.loc.Overlaps(loc)
}

// MatchesSymbol reports whether sym, after dealiasing in tbl, is the
// query's target symbol. Always false for location-mode and inactive
// queries.
func (q Query) MatchesSymbol(tbl *symtab.Table, sym symtab.SymbolID) bool {
	if q.mode != modeSymbol || !tbl.Exists(sym) {
		return false
	}
	return tbl.Dealias(sym) == q.sym
}
