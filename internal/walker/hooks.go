package walker

import (
	"fmt"

	"github.com/jward/taproot/internal/lsquery"
	"github.com/jward/taproot/internal/symtab"
	"github.com/jward/taproot/internal/syntax"
)

// The hooks in this file are the query instrumentation riding the
// resolution pass. Each one tests the run's query against a node the
// pass was resolving anyway and, on a match, appends a response. Every
// hook emits at most one response per node it inspects, except the
// constant-chain hook, which may emit once per matched segment.

// methodDefHook matches a method declaration, preferring a parameter
// match over the declaration as a whole: a parameter is strictly more
// specific, so at most one response is emitted.
func (r *resolver) methodDefHook(m *syntax.MethodDef, sym symtab.SymbolID) {
	if !r.q.Active() {
		return
	}
	if !r.q.MatchesLoc(m.DeclLoc) && !r.q.MatchesSymbol(r.tbl, sym) {
		return
	}

	data := r.tbl.Get(sym)
	// The declare pass records exactly one argument slot per declared
	// parameter. A mismatch means the table is corrupt.
	if len(m.Params) != len(data.Arguments) {
		panic(fmt.Sprintf("walker: method %s has %d parameters but %d recorded argument slots",
			data.Name, len(m.Params), len(data.Arguments)))
	}

	for i := range m.Params {
		p := &m.Params[i]
		if r.q.MatchesLoc(p.Span) {
			tp := symtab.TypeAndOrigins{
				Type:    data.Arguments[i].Type,
				Origins: []symtab.Loc{p.Span},
			}
			r.c.Push(lsquery.NewIdentResponse(p.Span, p.Name, tp, sym))
			return
		}
	}

	tp := symtab.TypeAndOrigins{Type: data.ResultType, Origins: []symtab.Loc{m.DeclLoc}}
	r.c.Push(lsquery.NewDefinitionResponse(sym, m.DeclLoc, m.Name, tp))
}

// identHook matches a local-variable or parameter reference. tp carries
// the binding's type; its origins are the binding sites.
func (r *resolver) identHook(sc *scopeCtx, loc symtab.Loc, name string, tp symtab.TypeAndOrigins) {
	if !r.q.Active() || !r.q.MatchesLoc(loc) {
		return
	}
	r.c.Push(lsquery.NewIdentResponse(loc, name, tp, sc.method))
}

// varRefHook resolves an instance- or class-variable reference against
// its owner class and emits a Field response on a match. It returns the
// field's type for the surrounding inference.
func (r *resolver) varRefHook(sc *scopeCtx, v *syntax.VarRef) symtab.TypeAndOrigins {
	var owner symtab.SymbolID
	if v.Kind == syntax.VarInstance {
		// Instance references bind on the method's enclosing class;
		// at class level or in a singleton method they bind on the
		// singleton class, mirroring where the declare pass put them.
		owner = sc.owner
		if sc.method == symtab.NoSymbol || sc.singleton {
			if sing, ok := r.tbl.SingletonClass(sc.owner); ok {
				owner = sing
			}
		}
	} else {
		// Class variables: walk the attached-class relation upward
		// until no further attached class exists. The relation is
		// acyclic by construction; a walk longer than the table is a
		// corrupt table, not an input error.
		owner = sc.owner
		if sc.singleton {
			if sing, ok := r.tbl.SingletonClass(sc.owner); ok {
				owner = sing
			}
		}
		steps := 0
		for {
			att, ok := r.tbl.AttachedClass(owner)
			if !ok {
				break
			}
			owner = att
			steps++
			if steps > r.tbl.Len() {
				panic("walker: cyclic attached-class chain")
			}
		}
	}

	sym, ok := r.tbl.FindMemberTransitive(owner, v.Name)
	if !ok {
		return r.untyped(sc)
	}

	data := r.tbl.Get(sym)
	tp := symtab.TypeAndOrigins{Type: data.ResultType}
	if tp.Type == nil {
		tp.Type = symtab.Untyped(sym)
	}
	tp = tp.WithOrigin(data.Loc)

	if r.q.Active() && (r.q.MatchesSymbol(r.tbl, sym) || r.q.MatchesLoc(v.Span)) {
		r.c.Push(lsquery.NewFieldResponse(sym, v.Span, v.Name, tp))
	}
	return tp
}

// constantChainHook resolves a constant reference and walks outward
// through its qualifier chain, dealiasing at each hop, so that a query
// on any segment of `A::B::C` matches. Returns the (undealiased) symbol
// the innermost segment resolved to.
func (r *resolver) constantChainHook(sc *scopeCtx, ref *syntax.ConstantRef) symtab.SymbolID {
	resolved := ResolveConstant(r.tbl, sc.stack, ref)
	if !r.q.Active() {
		return resolved
	}

	lit := ref
	sym := r.tbl.Dealias(resolved)
	for lit != nil && r.tbl.Exists(sym) {
		if r.q.MatchesLoc(lit.Span) || r.q.MatchesSymbol(r.tbl, sym) {
			data := r.tbl.Get(sym)
			tp := symtab.TypeAndOrigins{Origins: []symtab.Loc{data.Loc}}
			switch {
			case data.IsClassOrModule():
				tp.Type = symtab.SingletonType{Symbol: sym}
			case data.ResultType != nil:
				tp.Type = data.ResultType
			default:
				tp.Type = symtab.Untyped(sym)
			}
			r.c.Push(lsquery.NewConstantResponse(sym, lit.Span, data.Name, tp))
		}
		lit = lit.Scope
		if lit != nil {
			sym = r.tbl.Dealias(ResolveConstant(r.tbl, sc.stack, lit))
		}
	}
	return resolved
}

// dispatchRecv resolves a message send against the receiver type,
// emitting a Send response when the call site (or a resolved target)
// matches the query. Unresolvable targets still contribute a dispatch
// component so the resolver can report "considered but missing".
func (r *resolver) dispatchRecv(sc *scopeCtx, recvTp symtab.TypeAndOrigins, name string, nameLoc symtab.Loc) symtab.TypeAndOrigins {
	target := symtab.NoSymbol
	switch t := recvTp.Type.(type) {
	case symtab.ClassType:
		if id, ok := r.tbl.FindMemberTransitive(t.Symbol, name); ok {
			target = id
		}
	case symtab.SingletonType:
		if sing, ok := r.tbl.SingletonClass(t.Symbol); ok {
			if id, ok := r.tbl.FindMemberTransitive(sing, name); ok {
				target = id
			}
		}
	}
	comps := []lsquery.DispatchComponent{{Receiver: recvTp.Type, Method: target}}

	if r.q.Active() {
		match := r.q.MatchesLoc(nameLoc)
		if !match {
			for _, comp := range comps {
				if r.q.MatchesSymbol(r.tbl, comp.Method) {
					match = true
					break
				}
			}
		}
		if match {
			r.c.Push(lsquery.NewSendResponse(nameLoc, name, comps))
		}
	}

	// Constructing an instance is the one send whose result type is
	// known without a declared return type.
	if name == "new" {
		if st, ok := recvTp.Type.(symtab.SingletonType); ok {
			return symtab.TypeAndOrigins{
				Type:    symtab.ClassType{Symbol: st.Symbol},
				Origins: []symtab.Loc{nameLoc},
			}
		}
	}
	if target != symtab.NoSymbol {
		data := r.tbl.Get(target)
		tp := symtab.TypeAndOrigins{Origins: []symtab.Loc{data.Loc}}
		if data.ResultType != nil {
			tp.Type = data.ResultType
		} else {
			tp.Type = symtab.Untyped(target)
		}
		return tp
	}
	return r.untyped(sc)
}
