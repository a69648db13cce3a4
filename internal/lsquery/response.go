package lsquery

import "github.com/jward/taproot/internal/symtab"

// ResponseKind discriminates the closed set of response shapes. Every
// consumer must handle all kinds; an unhandled kind is a programming
// error, not a recoverable condition.
type ResponseKind uint8

const (
	// KindIdent is a matched local-variable or parameter reference.
	KindIdent ResponseKind = iota + 1
	// KindDefinition is a matched method declaration.
	KindDefinition
	// KindField is a matched instance/class-variable reference.
	KindField
	// KindConstant is a matched segment of a constant reference.
	KindConstant
	// KindSend is a matched call site with its dispatch candidates.
	KindSend
)

func (k ResponseKind) String() string {
	switch k {
	case KindIdent:
		return "ident"
	case KindDefinition:
		return "definition"
	case KindField:
		return "field"
	case KindConstant:
		return "constant"
	case KindSend:
		return "send"
	}
	return "unknown"
}

// DispatchComponent names one concretely resolved candidate method for a
// call site. Method may be NoSymbol when dispatch considered a target
// that does not exist; such components are filtered at resolution time.
type DispatchComponent struct {
	Receiver symtab.Type
	Method   symtab.SymbolID
}

// Response is one match record. Kind selects which fields are meaningful:
//
//	Ident      - Loc, Name, Retype (origins = binding sites), Owner
//	Definition - Symbol (the method), Loc (decl site), Name, Retype
//	Field      - Symbol (the variable), Loc (reference site), Name, Retype
//	Constant   - Symbol, Loc (segment site), Name, Retype
//	Send       - Loc (call site), Name (message), Dispatch
//
// Responses are created by the constructors below during one traversal
// run and never mutated afterwards. Symbol references point into the
// run's symbol table snapshot and must not outlive it.
type Response struct {
	Kind     ResponseKind
	Loc      symtab.Loc
	Symbol   symtab.SymbolID
	Name     string
	Retype   symtab.TypeAndOrigins
	Dispatch []DispatchComponent
}

// NewIdentResponse records a matched local reference. owner is the
// enclosing method.
func NewIdentResponse(loc symtab.Loc, name string, tp symtab.TypeAndOrigins, owner symtab.SymbolID) Response {
	return Response{Kind: KindIdent, Loc: loc, Name: name, Retype: tp, Symbol: owner}
}

// NewDefinitionResponse records a matched method declaration.
func NewDefinitionResponse(method symtab.SymbolID, declLoc symtab.Loc, name string, tp symtab.TypeAndOrigins) Response {
	return Response{Kind: KindDefinition, Loc: declLoc, Name: name, Retype: tp, Symbol: method}
}

// NewFieldResponse records a matched instance/class-variable reference.
func NewFieldResponse(field symtab.SymbolID, refLoc symtab.Loc, name string, tp symtab.TypeAndOrigins) Response {
	return Response{Kind: KindField, Loc: refLoc, Name: name, Retype: tp, Symbol: field}
}

// NewConstantResponse records a matched constant-reference segment.
func NewConstantResponse(sym symtab.SymbolID, refLoc symtab.Loc, name string, tp symtab.TypeAndOrigins) Response {
	return Response{Kind: KindConstant, Loc: refLoc, Name: name, Retype: tp, Symbol: sym}
}

// NewSendResponse records a matched call site and its dispatch
// candidates, in resolution order.
func NewSendResponse(callLoc symtab.Loc, name string, dispatch []DispatchComponent) Response {
	return Response{Kind: KindSend, Loc: callLoc, Name: name, Dispatch: dispatch}
}
