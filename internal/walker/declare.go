// Package walker compiles parsed files into the symbol table (declare and
// link passes) and runs the resolution pass that answers queries. Query
// hooks ride the resolution pass directly: there is no separate query
// traversal, and with an inactive query the hooks cost a nil check.
package walker

import (
	"github.com/jward/taproot/internal/symtab"
	"github.com/jward/taproot/internal/syntax"
)

// builtinClasses are predeclared at the root scope so literal types have
// symbols to point at. Their locations are synthetic.
var builtinClasses = []string{
	"Object", "Integer", "Float", "String", "Symbol",
	"TrueClass", "FalseClass", "NilClass",
}

// Bindings decorates AST nodes with the symbols the declare pass created
// for them. The resolution pass reads these; it never re-derives them.
type Bindings struct {
	Methods map[*syntax.MethodDef]symtab.SymbolID
	Classes map[*syntax.ClassDef]symtab.SymbolID
	Modules map[*syntax.ModuleDef]symtab.SymbolID
}

// Declare populates tbl from the given files and returns the node
// bindings. It runs two sub-passes: the first enters classes, modules,
// methods, and fields; the second links superclasses and resolves
// constant assignments (values and aliases), which may forward-reference
// symbols declared later or in other files.
func Declare(tbl *symtab.Table, files []*syntax.File) *Bindings {
	b := &Bindings{
		Methods: make(map[*syntax.MethodDef]symtab.SymbolID),
		Classes: make(map[*syntax.ClassDef]symtab.SymbolID),
		Modules: make(map[*syntax.ModuleDef]symtab.SymbolID),
	}
	d := &declarer{tbl: tbl, b: b}

	object := tbl.EnterClass(tbl.Root(), "Object", symtab.Loc{})
	for _, name := range builtinClasses[1:] {
		cls := tbl.EnterClass(tbl.Root(), name, symtab.Loc{})
		tbl.SetSuperclass(cls, object)
	}

	for _, f := range files {
		d.declareStmts(tbl.Root(), ctxClassBody, f.Nodes)
	}
	for _, f := range files {
		d.linkStmts([]symtab.SymbolID{tbl.Root()}, f.Nodes)
	}
	return b
}

// bodyCtx says what kind of body the declarer is walking; it decides
// where instance and class variables land.
type bodyCtx uint8

const (
	ctxClassBody bodyCtx = iota
	ctxInstanceMethod
	ctxSingletonMethod
)

type declarer struct {
	tbl *symtab.Table
	b   *Bindings
}

func (d *declarer) declareStmts(owner symtab.SymbolID, ctx bodyCtx, nodes []syntax.Node) {
	for _, n := range nodes {
		d.declareNode(owner, ctx, n)
	}
}

func (d *declarer) declareNode(owner symtab.SymbolID, ctx bodyCtx, n syntax.Node) {
	switch n := n.(type) {
	case *syntax.ClassDef:
		ns := d.ensureNamespace(owner, n.Name.Scope)
		cls := d.tbl.EnterClass(ns, n.Name.Name, n.Name.Span)
		d.b.Classes[n] = cls
		d.declareStmts(cls, ctxClassBody, n.Body)

	case *syntax.ModuleDef:
		ns := d.ensureNamespace(owner, n.Name.Scope)
		mod := d.tbl.EnterModule(ns, n.Name.Name, n.Name.Span)
		d.b.Modules[n] = mod
		d.declareStmts(mod, ctxClassBody, n.Body)

	case *syntax.MethodDef:
		methodOwner := owner
		methodCtx := ctxInstanceMethod
		if n.Singleton {
			methodOwner = d.tbl.SingletonClassOf(owner)
			methodCtx = ctxSingletonMethod
		}
		args := make([]symtab.ArgInfo, 0, len(n.Params))
		for _, p := range n.Params {
			args = append(args, symtab.ArgInfo{Name: p.Name, Loc: p.Span})
		}
		sym := d.tbl.EnterMethod(methodOwner, n.Name, n.DeclLoc, args)
		d.b.Methods[n] = sym
		d.declareStmts(owner, methodCtx, n.Body)

	case *syntax.Assign:
		switch target := n.Target.(type) {
		case *syntax.VarRef:
			d.declareVar(owner, ctx, target)
		}
		if n.Value != nil {
			d.declareNode(owner, ctx, n.Value)
		}

	case *syntax.Send:
		if n.Receiver != nil {
			d.declareNode(owner, ctx, n.Receiver)
		}
		d.declareStmts(owner, ctx, n.Args)

	case *syntax.Other:
		d.declareStmts(owner, ctx, n.Children)
	}
}

// declareVar enters a field symbol on first assignment. Instance
// variables in instance methods live on the class; instance variables in
// class bodies and singleton methods live on the singleton class; class
// variables always live on the class itself.
func (d *declarer) declareVar(owner symtab.SymbolID, ctx bodyCtx, v *syntax.VarRef) {
	fieldOwner := owner
	if v.Kind == syntax.VarInstance && ctx != ctxInstanceMethod {
		fieldOwner = d.tbl.SingletonClassOf(owner)
	}
	d.tbl.EnterField(fieldOwner, v.Name, v.Span)
}

// ensureNamespace resolves the qualifier chain of a definition name
// (`class A::B` needs A), entering stub modules for segments that do not
// exist yet.
func (d *declarer) ensureNamespace(owner symtab.SymbolID, scope *syntax.ConstantRef) symtab.SymbolID {
	if scope == nil {
		return owner
	}
	ns := d.ensureNamespace(owner, scope.Scope)
	if id, ok := d.tbl.Member(ns, scope.Name); ok {
		return d.tbl.Dealias(id)
	}
	return d.tbl.EnterModule(ns, scope.Name, scope.Span)
}

// --- link pass ---

// linkStmts resolves superclass references and constant assignments once
// every class in every file has a symbol.
func (d *declarer) linkStmts(stack []symtab.SymbolID, nodes []syntax.Node) {
	for _, n := range nodes {
		d.linkNode(stack, n)
	}
}

func (d *declarer) linkNode(stack []symtab.SymbolID, n syntax.Node) {
	tbl := d.tbl
	switch n := n.(type) {
	case *syntax.ClassDef:
		cls := d.b.Classes[n]
		if tbl.Get(cls).Superclass == symtab.NoSymbol {
			super := symtab.NoSymbol
			if n.Superclass != nil {
				super = tbl.Dealias(ResolveConstant(tbl, stack, n.Superclass))
			}
			if super == symtab.NoSymbol {
				// Default superclass, as for any Ruby class.
				super, _ = tbl.Member(tbl.Root(), "Object")
			}
			if super != cls {
				tbl.SetSuperclass(cls, super)
			}
		}
		d.linkStmts(append(stack, cls), n.Body)

	case *syntax.ModuleDef:
		d.linkStmts(append(stack, d.b.Modules[n]), n.Body)

	case *syntax.MethodDef:
		d.linkStmts(stack, n.Body)

	case *syntax.Assign:
		if target, ok := n.Target.(*syntax.ConstantRef); ok {
			d.linkConstantAssign(stack, target, n.Value)
		}

	case *syntax.Other:
		d.linkStmts(stack, n.Children)
	}
}

// linkConstantAssign declares `NAME = value` as either an alias (when the
// value is a resolvable constant reference) or a value constant typed by
// its literal, if any. The first assignment wins.
func (d *declarer) linkConstantAssign(stack []symtab.SymbolID, target *syntax.ConstantRef, value syntax.Node) {
	tbl := d.tbl
	ns := stack[len(stack)-1]
	if target.Scope != nil {
		ns = tbl.Dealias(ResolveConstant(tbl, stack, target.Scope))
		if !tbl.Exists(ns) {
			return
		}
	}
	if _, ok := tbl.Member(ns, target.Name); ok {
		return
	}

	switch value := value.(type) {
	case *syntax.ConstantRef:
		if resolved := ResolveConstant(tbl, stack, value); tbl.Exists(resolved) {
			tbl.EnterAlias(ns, target.Name, target.Span, resolved)
			return
		}
		tbl.EnterConstant(ns, target.Name, target.Span, nil)
	case *syntax.Literal:
		tbl.EnterConstant(ns, target.Name, target.Span, d.literalType(value))
	default:
		tbl.EnterConstant(ns, target.Name, target.Span, nil)
	}
}

func (d *declarer) literalType(lit *syntax.Literal) symtab.Type {
	if cls, ok := d.tbl.Member(d.tbl.Root(), lit.ClassName); ok {
		return symtab.ClassType{Symbol: cls}
	}
	return nil
}

// ResolveConstant resolves a constant reference segment chain against a
// lexical scope stack (outermost first). Qualified segments look through
// their dealiased qualifier's ancestors; unqualified segments search the
// scope stack innermost first. Returns NoSymbol when unresolved.
func ResolveConstant(tbl *symtab.Table, stack []symtab.SymbolID, ref *syntax.ConstantRef) symtab.SymbolID {
	if ref == nil {
		return symtab.NoSymbol
	}
	if ref.Scope != nil {
		base := tbl.Dealias(ResolveConstant(tbl, stack, ref.Scope))
		if !tbl.Exists(base) {
			return symtab.NoSymbol
		}
		if id, ok := tbl.FindMemberTransitive(base, ref.Name); ok {
			return id
		}
		return symtab.NoSymbol
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if id, ok := tbl.FindMemberTransitive(stack[i], ref.Name); ok {
			return id
		}
	}
	return symtab.NoSymbol
}
