// Package syntax parses Ruby source with tree-sitter into the small
// decorated AST the resolution pass walks. Only the node shapes the
// resolver cares about are modeled; everything else is preserved as an
// opaque container so references inside it are still visited.
package syntax

import "github.com/jward/taproot/internal/symtab"

// Node is one AST node. Every node knows its source range.
type Node interface {
	Loc() symtab.Loc
}

// ClassDef is a `class Name ... end` body.
type ClassDef struct {
	Name       *ConstantRef
	Superclass *ConstantRef // nil when none
	Body       []Node
	Span       symtab.Loc
}

// ModuleDef is a `module Name ... end` body.
type ModuleDef struct {
	Name *ConstantRef
	Body []Node
	Span symtab.Loc
}

// MethodDef is a `def name(params) ... end` declaration. DeclLoc covers
// the declaration header (from `def` through the parameter list), not the
// body, so a query inside the body never matches the declaration itself.
type MethodDef struct {
	Name      string
	NameLoc   symtab.Loc
	DeclLoc   symtab.Loc
	Params    []Param
	Body      []Node
	Singleton bool // def self.name
	Span      symtab.Loc
}

// Param is one declared parameter and the range of its binding name.
type Param struct {
	Name string
	Span symtab.Loc
}

// Ident is a bare lower-case identifier: a local-variable read if a
// binding is in scope, otherwise an implicit-self send. The resolver
// decides which.
type Ident struct {
	Name string
	Span symtab.Loc
}

// VarKind distinguishes instance (`@x`) from class (`@@x`) variables.
type VarKind uint8

const (
	VarInstance VarKind = iota + 1
	VarClass
)

// VarRef is an instance- or class-variable reference. It is "unresolved"
// in the sense that binding it to a field symbol happens during the
// resolution pass, not at parse time.
type VarRef struct {
	Name string
	Kind VarKind
	Span symtab.Loc
}

// ConstantRef is one segment of a (possibly qualified) constant
// reference. For `A::B::C` the parser yields the C segment with Scope
// pointing at B, which in turn points at A. Span covers only the
// segment's own name token.
type ConstantRef struct {
	Name  string
	Scope *ConstantRef // qualifier, nil for the innermost segment
	Span  symtab.Loc
}

// Send is a message send. Receiver is nil for implicit self. NameLoc
// covers the method-name token; Span covers the whole call.
type Send struct {
	Receiver Node
	Name     string
	NameLoc  symtab.Loc
	Args     []Node
	Span     symtab.Loc
}

// Assign is `target = value` where target is an Ident, VarRef, or
// ConstantRef.
type Assign struct {
	Target Node
	Value  Node
	Span   symtab.Loc
}

// Literal is a literal value tagged with the name of the Ruby class it
// instantiates.
type Literal struct {
	ClassName string
	Span      symtab.Loc
}

// SelfRef is the `self` keyword.
type SelfRef struct {
	Span symtab.Loc
}

// Other wraps expression forms the resolver does not analyze. Its
// children are still traversed so references inside them are resolved.
type Other struct {
	Children []Node
	Span     symtab.Loc
}

func (n *ClassDef) Loc() symtab.Loc    { return n.Span }
func (n *ModuleDef) Loc() symtab.Loc   { return n.Span }
func (n *MethodDef) Loc() symtab.Loc   { return n.Span }
func (n *Ident) Loc() symtab.Loc       { return n.Span }
func (n *VarRef) Loc() symtab.Loc      { return n.Span }
func (n *ConstantRef) Loc() symtab.Loc { return n.Span }
func (n *Send) Loc() symtab.Loc        { return n.Span }
func (n *Assign) Loc() symtab.Loc      { return n.Span }
func (n *Literal) Loc() symtab.Loc     { return n.Span }
func (n *SelfRef) Loc() symtab.Loc     { return n.Span }
func (n *Other) Loc() symtab.Loc       { return n.Span }
