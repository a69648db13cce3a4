package taproot

import (
	"fmt"
	"sort"

	"github.com/jward/taproot/internal/lsquery"
	"github.com/jward/taproot/internal/symtab"
	"github.com/jward/taproot/internal/syntax"
	"github.com/jward/taproot/internal/walker"
)

// Program is an immutable snapshot of the indexed tree: every file parsed,
// every symbol declared and linked. Query operations are read-only and safe
// for concurrent use.
type Program struct {
	tbl      *symtab.Table
	bindings *walker.Bindings
	files    []*syntax.File // sorted by path
	byPath   map[string]*syntax.File
}

// DefinitionAt finds the definition(s) of whatever sits at the given
// position. A position on a reference jumps to its declaration; a position
// on a declaration returns the declaration itself. Returns an empty list
// when nothing resolvable sits there.
func (p *Program) DefinitionAt(file string, line, col int) ([]Location, error) {
	resp, ok, err := p.responseAt(file, line, col)
	if err != nil || !ok {
		return nil, err
	}
	return p.definitionLocs(resp), nil
}

// definitionLocs maps one response to the definition locations it names.
// Dispatch components whose target does not exist are dropped; the rest
// keep their resolution order.
func (p *Program) definitionLocs(resp lsquery.Response) []Location {
	var locs []Location
	switch resp.Kind {
	case lsquery.KindIdent:
		// A local: its definition sites are the type's origins.
		for _, origin := range resp.Retype.Origins {
			locs = p.appendLocIfExists(locs, origin)
		}
	case lsquery.KindDefinition:
		locs = p.appendLocIfExists(locs, resp.Loc)
	case lsquery.KindField, lsquery.KindConstant:
		if p.tbl.Exists(resp.Symbol) {
			locs = p.appendLocIfExists(locs, p.tbl.Get(resp.Symbol).Loc)
		}
	case lsquery.KindSend:
		for _, comp := range resp.Dispatch {
			if p.tbl.Exists(comp.Method) {
				locs = p.appendLocIfExists(locs, p.tbl.Get(comp.Method).Loc)
			}
		}
	default:
		panic(fmt.Sprintf("taproot: unhandled response kind %s", resp.Kind))
	}
	return locs
}

// ReferencesAt identifies the symbol at the given position and returns
// every location that references it, including its declaration. Positions
// on local variables return an empty list: locals are scoped to one body
// and are not tracked in the symbol table.
func (p *Program) ReferencesAt(file string, line, col int) ([]Location, error) {
	sym, err := p.symbolAt(file, line, col)
	if err != nil {
		return nil, err
	}
	if sym == symtab.NoSymbol {
		return nil, nil
	}
	return p.ReferencesTo(sym), nil
}

// ReferencesTo returns every location referencing the given symbol,
// including its declaration, sorted by file path and position.
func (p *Program) ReferencesTo(sym SymbolID) []Location {
	if !p.tbl.Exists(sym) {
		return nil
	}
	q := lsquery.BySymbol(sym)

	var locs []Location
	for _, f := range p.files {
		c := lsquery.NewCollector()
		walker.Run(p.tbl, p.bindings, f, q, c)
		for _, resp := range c.Responses() {
			locs = p.appendLocIfExists(locs, resp.Loc)
		}
	}
	return sortLocations(locs)
}

// SymbolAt identifies the table symbol at the given position. Returns
// NoSymbol for positions on locals or on nothing resolvable.
func (p *Program) SymbolAt(file string, line, col int) (SymbolID, error) {
	return p.symbolAt(file, line, col)
}

// responseAt runs a by-location query at the given position and returns the
// first response. ok=false means nothing there matched.
func (p *Program) responseAt(file string, line, col int) (lsquery.Response, bool, error) {
	f, ok := p.byPath[file]
	if !ok {
		return lsquery.Response{}, false, fmt.Errorf("taproot: file not indexed: %s", file)
	}
	off, err := f.OffsetFor(line, col)
	if err != nil {
		return lsquery.Response{}, false, fmt.Errorf("taproot: %s: %w", file, err)
	}

	// Widen the point to a one-byte range so overlap matching works.
	q := lsquery.ByLocation(symtab.Loc{File: f.Path, Start: off, End: off + 1})
	c := lsquery.NewCollector()
	walker.Run(p.tbl, p.bindings, f, q, c)

	resp, ok := c.First()
	return resp, ok, nil
}

func (p *Program) symbolAt(file string, line, col int) (symtab.SymbolID, error) {
	resp, ok, err := p.responseAt(file, line, col)
	if err != nil || !ok {
		return symtab.NoSymbol, err
	}

	switch resp.Kind {
	case lsquery.KindDefinition, lsquery.KindField, lsquery.KindConstant:
		return resp.Symbol, nil
	case lsquery.KindSend:
		for _, comp := range resp.Dispatch {
			if p.tbl.Exists(comp.Method) {
				return comp.Method, nil
			}
		}
		return symtab.NoSymbol, nil
	case lsquery.KindIdent:
		return symtab.NoSymbol, nil
	default:
		panic(fmt.Sprintf("taproot: unhandled response kind %s", resp.Kind))
	}
}

// appendLocIfExists converts a symbol-table location to file coordinates
// and appends it. Non-existent locations (builtins, synthetic symbols) are
// dropped silently.
func (p *Program) appendLocIfExists(locs []Location, loc symtab.Loc) []Location {
	if !loc.Exists() {
		return locs
	}
	f, ok := p.byPath[loc.File]
	if !ok {
		return locs
	}
	sl, sc, el, ec := f.RangeFor(loc)
	return append(locs, Location{
		File:      loc.File,
		StartLine: sl,
		StartCol:  sc,
		EndLine:   el,
		EndCol:    ec,
	})
}

// sortLocations orders locations by file path then start position and
// drops duplicates. Ranges sharing a start are ordered larger-first, so a
// containing range sorts before the ranges inside it.
func sortLocations(locs []Location) []Location {
	sort.Slice(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.StartCol != b.StartCol {
			return a.StartCol < b.StartCol
		}
		if a.EndLine != b.EndLine {
			return a.EndLine > b.EndLine
		}
		return a.EndCol > b.EndCol
	})

	out := locs[:0]
	for i, l := range locs {
		if i > 0 && l == locs[i-1] {
			continue
		}
		out = append(out, l)
	}
	return out
}
