package symtab

import "fmt"

// Type is the resolved type of an expression or symbol. The set of shapes
// is deliberately small: instances of a class, the class object itself
// (its singleton), and an untyped sentinel blaming the symbol that failed
// to produce anything better.
type Type interface {
	typeNode()
	String() string
}

// ClassType is "an instance of Symbol".
type ClassType struct {
	Symbol SymbolID
}

// SingletonType is "the class object denoted by Symbol", the type of a
// constant reference that names a class or module.
type SingletonType struct {
	Symbol SymbolID
}

// UntypedType is the sentinel for expressions with no computed type.
// Blame records which symbol the untypedness originates from.
type UntypedType struct {
	Blame SymbolID
}

func (ClassType) typeNode()     {}
func (SingletonType) typeNode() {}
func (UntypedType) typeNode()   {}

func (t ClassType) String() string     { return fmt.Sprintf("instance(#%d)", t.Symbol) }
func (t SingletonType) String() string { return fmt.Sprintf("singleton(#%d)", t.Symbol) }
func (t UntypedType) String() string   { return "untyped" }

// Untyped returns the untyped sentinel blaming the given symbol.
func Untyped(blame SymbolID) Type {
	return UntypedType{Blame: blame}
}

// TypeAndOrigins pairs a type with the source locations that contributed
// to it. A type synthesized by merging control-flow branches carries one
// origin per contributing branch, so Origins may hold several entries.
type TypeAndOrigins struct {
	Type    Type
	Origins []Loc
}

// WithOrigin returns a copy with loc appended to the origin list.
func (tp TypeAndOrigins) WithOrigin(loc Loc) TypeAndOrigins {
	origins := make([]Loc, 0, len(tp.Origins)+1)
	origins = append(origins, tp.Origins...)
	origins = append(origins, loc)
	return TypeAndOrigins{Type: tp.Type, Origins: origins}
}
