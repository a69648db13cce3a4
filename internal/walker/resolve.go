package walker

import (
	"github.com/jward/taproot/internal/lsquery"
	"github.com/jward/taproot/internal/symtab"
	"github.com/jward/taproot/internal/syntax"
)

// Run performs the resolution pass over one file. The pass resolves
// names and simple types against the (read-only) table; when q is active
// the query hooks append match records to c in visitation order. Both q
// and c are private to this run.
func Run(tbl *symtab.Table, b *Bindings, f *syntax.File, q lsquery.Query, c *lsquery.Collector) {
	r := &resolver{tbl: tbl, b: b, q: q, c: c}
	sc := &scopeCtx{
		stack:  []symtab.SymbolID{tbl.Root()},
		owner:  tbl.Root(),
		locals: make(map[string]symtab.TypeAndOrigins),
	}
	r.stmts(sc, f.Nodes)
}

// scopeCtx is the walk state for one lexical scope.
type scopeCtx struct {
	stack     []symtab.SymbolID // lexical namespaces, outermost first
	owner     symtab.SymbolID   // innermost enclosing class/module
	method    symtab.SymbolID   // enclosing method, or NoSymbol
	singleton bool              // singleton-method body
	locals    map[string]symtab.TypeAndOrigins
}

type resolver struct {
	tbl *symtab.Table
	b   *Bindings
	q   lsquery.Query
	c   *lsquery.Collector
}

func (r *resolver) stmts(sc *scopeCtx, nodes []syntax.Node) {
	for _, n := range nodes {
		r.expr(sc, n)
	}
}

func (r *resolver) untyped(sc *scopeCtx) symtab.TypeAndOrigins {
	blame := sc.method
	if blame == symtab.NoSymbol {
		blame = sc.owner
	}
	return symtab.TypeAndOrigins{Type: symtab.Untyped(blame)}
}

// expr resolves one node and returns its type. Hooks fire as a side
// effect when the run's query matches.
func (r *resolver) expr(sc *scopeCtx, n syntax.Node) symtab.TypeAndOrigins {
	switch n := n.(type) {
	case *syntax.ClassDef:
		r.constantChainHook(sc, n.Name)
		if n.Superclass != nil {
			r.constantChainHook(sc, n.Superclass)
		}
		cls := r.b.Classes[n]
		r.stmts(&scopeCtx{
			stack:  append(sc.stack, cls),
			owner:  cls,
			locals: make(map[string]symtab.TypeAndOrigins),
		}, n.Body)
		return r.untyped(sc)

	case *syntax.ModuleDef:
		r.constantChainHook(sc, n.Name)
		mod := r.b.Modules[n]
		r.stmts(&scopeCtx{
			stack:  append(sc.stack, mod),
			owner:  mod,
			locals: make(map[string]symtab.TypeAndOrigins),
		}, n.Body)
		return r.untyped(sc)

	case *syntax.MethodDef:
		return r.methodDef(sc, n)

	case *syntax.Assign:
		return r.assign(sc, n)

	case *syntax.Ident:
		if tp, ok := sc.locals[n.Name]; ok {
			r.identHook(sc, n.Span, n.Name, tp)
			return tp
		}
		// Not a local: an implicit-self send with no arguments.
		return r.dispatchRecv(sc, r.selfType(sc), n.Name, n.Span)

	case *syntax.VarRef:
		return r.varRefHook(sc, n)

	case *syntax.ConstantRef:
		sym := r.constantChainHook(sc, n)
		return r.constantType(sym)

	case *syntax.Send:
		return r.send(sc, n)

	case *syntax.Literal:
		if cls, ok := r.tbl.Member(r.tbl.Root(), n.ClassName); ok {
			return symtab.TypeAndOrigins{
				Type:    symtab.ClassType{Symbol: cls},
				Origins: []symtab.Loc{n.Span},
			}
		}
		return r.untyped(sc)

	case *syntax.SelfRef:
		return r.selfType(sc)

	case *syntax.Other:
		r.stmts(sc, n.Children)
		return r.untyped(sc)
	}
	return r.untyped(sc)
}

func (r *resolver) methodDef(sc *scopeCtx, m *syntax.MethodDef) symtab.TypeAndOrigins {
	sym := r.b.Methods[m]
	r.methodDefHook(m, sym)

	data := r.tbl.Get(sym)
	locals := make(map[string]symtab.TypeAndOrigins, len(m.Params))
	for i, p := range m.Params {
		locals[p.Name] = symtab.TypeAndOrigins{
			Type:    data.Arguments[i].Type,
			Origins: []symtab.Loc{p.Span},
		}
	}
	r.stmts(&scopeCtx{
		stack:     sc.stack,
		owner:     sc.owner,
		method:    sym,
		singleton: m.Singleton,
		locals:    locals,
	}, m.Body)
	return r.untyped(sc)
}

func (r *resolver) assign(sc *scopeCtx, a *syntax.Assign) symtab.TypeAndOrigins {
	valTp := r.untyped(sc)
	if a.Value != nil {
		valTp = r.expr(sc, a.Value)
	}
	switch target := a.Target.(type) {
	case *syntax.Ident:
		tp := symtab.TypeAndOrigins{Type: valTp.Type, Origins: []symtab.Loc{target.Span}}
		sc.locals[target.Name] = tp
		r.identHook(sc, target.Span, target.Name, tp)
	case *syntax.VarRef:
		r.varRefHook(sc, target)
	case *syntax.ConstantRef:
		r.constantChainHook(sc, target)
	}
	return valTp
}

func (r *resolver) send(sc *scopeCtx, s *syntax.Send) symtab.TypeAndOrigins {
	var recvTp symtab.TypeAndOrigins
	if s.Receiver == nil {
		recvTp = r.selfType(sc)
	} else {
		recvTp = r.expr(sc, s.Receiver)
	}
	for _, arg := range s.Args {
		r.expr(sc, arg)
	}
	return r.dispatchRecv(sc, recvTp, s.Name, s.NameLoc)
}

// selfType is the type of the implicit receiver in the current scope.
func (r *resolver) selfType(sc *scopeCtx) symtab.TypeAndOrigins {
	if sc.owner == r.tbl.Root() {
		return r.untyped(sc)
	}
	if sc.method != symtab.NoSymbol && !sc.singleton {
		return symtab.TypeAndOrigins{Type: symtab.ClassType{Symbol: sc.owner}}
	}
	return symtab.TypeAndOrigins{Type: symtab.SingletonType{Symbol: sc.owner}}
}

// constantType is the type of an expression naming sym: the singleton
// type when sym denotes a class or module, else its declared result type.
func (r *resolver) constantType(sym symtab.SymbolID) symtab.TypeAndOrigins {
	sym = r.tbl.Dealias(sym)
	if !r.tbl.Exists(sym) {
		return symtab.TypeAndOrigins{Type: symtab.Untyped(symtab.NoSymbol)}
	}
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
	return tp
}
