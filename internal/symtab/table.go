// Package symtab holds the in-memory symbol table the resolution pass
// builds and the query engine reads. The table is append-only while the
// program snapshot is being compiled and strictly read-only afterwards:
// query runs never mutate it.
package symtab

// SymbolID names a symbol in a Table. The zero value is "no symbol".
type SymbolID int32

// NoSymbol is the absent-symbol sentinel.
const NoSymbol SymbolID = 0

// Kind classifies a symbol.
type Kind uint8

const (
	KindClass Kind = iota + 1
	KindModule
	KindMethod
	KindField    // instance or class variable
	KindConstant // value constant (X = 1)
	KindAlias    // constant alias to another symbol (B = A)
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindModule:
		return "module"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindConstant:
		return "constant"
	case KindAlias:
		return "alias"
	}
	return "unknown"
}

// ArgInfo records one declared parameter of a method: its name, the
// location of the binding in the parameter list, and its declared type.
type ArgInfo struct {
	Name string
	Loc  Loc
	Type Type
}

// Symbol is one entry in the table. Members is owned by the table and
// must not be mutated outside it.
type Symbol struct {
	Name       string
	Kind       Kind
	Owner      SymbolID
	Loc        Loc // declaration site
	ResultType Type
	Arguments  []ArgInfo // methods only
	AliasTo    SymbolID  // KindAlias only
	Superclass SymbolID  // KindClass only

	members map[string]SymbolID
}

// IsClassOrModule reports whether the symbol denotes a type.
func (s *Symbol) IsClassOrModule() bool {
	return s.Kind == KindClass || s.Kind == KindModule
}

// Table is the symbol table for one compiled program snapshot. Index 0 is
// a sentinel so that NoSymbol is never a valid entry.
type Table struct {
	symbols []Symbol

	// singleton maps a class to its singleton class; attached is the
	// inverse edge. Both are populated together in SingletonClassOf, so
	// the attached relation forms a forest and cannot cycle.
	singleton map[SymbolID]SymbolID
	attached  map[SymbolID]SymbolID

	root SymbolID
}

// NewTable creates a table containing only the synthetic root scope.
func NewTable() *Table {
	t := &Table{
		symbols:   make([]Symbol, 1), // sentinel at index 0
		singleton: make(map[SymbolID]SymbolID),
		attached:  make(map[SymbolID]SymbolID),
	}
	t.root = t.enter(Symbol{Name: "<root>", Kind: KindModule})
	return t
}

// Root returns the synthetic root scope symbol.
func (t *Table) Root() SymbolID {
	return t.root
}

// Exists reports whether id names a real entry in the table.
func (t *Table) Exists(id SymbolID) bool {
	return id > NoSymbol && int(id) < len(t.symbols)
}

// Get returns the symbol for id. id must exist.
func (t *Table) Get(id SymbolID) *Symbol {
	return &t.symbols[id]
}

// Len returns the number of symbols, including the root scope.
func (t *Table) Len() int {
	return len(t.symbols) - 1
}

func (t *Table) enter(s Symbol) SymbolID {
	if s.members == nil {
		s.members = make(map[string]SymbolID)
	}
	t.symbols = append(t.symbols, s)
	id := SymbolID(len(t.symbols) - 1)
	if s.Owner != NoSymbol {
		t.symbols[s.Owner].members[s.Name] = id
	}
	return id
}

// EnterClass declares a class named name under owner, or returns the
// existing one (reopened class bodies share a symbol; the first
// declaration site wins).
func (t *Table) EnterClass(owner SymbolID, name string, loc Loc) SymbolID {
	if id, ok := t.Member(owner, name); ok && t.Get(id).Kind == KindClass {
		return id
	}
	return t.enter(Symbol{Name: name, Kind: KindClass, Owner: owner, Loc: loc})
}

// EnterModule declares a module named name under owner, or returns the
// existing one.
func (t *Table) EnterModule(owner SymbolID, name string, loc Loc) SymbolID {
	if id, ok := t.Member(owner, name); ok && t.Get(id).Kind == KindModule {
		return id
	}
	return t.enter(Symbol{Name: name, Kind: KindModule, Owner: owner, Loc: loc})
}

// EnterMethod declares a method under owner. Redefinition replaces the
// previous entry's binding in the member map; the new symbol wins.
func (t *Table) EnterMethod(owner SymbolID, name string, loc Loc, args []ArgInfo) SymbolID {
	id := t.enter(Symbol{Name: name, Kind: KindMethod, Owner: owner, Loc: loc, Arguments: args})
	t.symbols[id].ResultType = Untyped(id)
	for i := range t.symbols[id].Arguments {
		if t.symbols[id].Arguments[i].Type == nil {
			t.symbols[id].Arguments[i].Type = Untyped(id)
		}
	}
	return id
}

// EnterField declares an instance or class variable under owner, or
// returns the existing one. The first assignment site is the declaration.
func (t *Table) EnterField(owner SymbolID, name string, loc Loc) SymbolID {
	if id, ok := t.Member(owner, name); ok && t.Get(id).Kind == KindField {
		return id
	}
	return t.enter(Symbol{Name: name, Kind: KindField, Owner: owner, Loc: loc})
}

// EnterConstant declares a value constant under owner.
func (t *Table) EnterConstant(owner SymbolID, name string, loc Loc, result Type) SymbolID {
	return t.enter(Symbol{Name: name, Kind: KindConstant, Owner: owner, Loc: loc, ResultType: result})
}

// EnterAlias declares a constant alias under owner pointing at target.
func (t *Table) EnterAlias(owner SymbolID, name string, loc Loc, target SymbolID) SymbolID {
	return t.enter(Symbol{Name: name, Kind: KindAlias, Owner: owner, Loc: loc, AliasTo: target})
}

// SetSuperclass links a class to its superclass.
func (t *Table) SetSuperclass(class, super SymbolID) {
	t.symbols[class].Superclass = super
}

// SetResultType records the computed result type of a symbol.
func (t *Table) SetResultType(id SymbolID, typ Type) {
	t.symbols[id].ResultType = typ
}

// Member looks up name directly in owner's member set.
func (t *Table) Member(owner SymbolID, name string) (SymbolID, bool) {
	if !t.Exists(owner) {
		return NoSymbol, false
	}
	id, ok := t.symbols[owner].members[name]
	return id, ok
}

// Members returns owner's direct member ids. The slice is freshly
// allocated; order is unspecified.
func (t *Table) Members(owner SymbolID) []SymbolID {
	if !t.Exists(owner) {
		return nil
	}
	out := make([]SymbolID, 0, len(t.symbols[owner].members))
	for _, id := range t.symbols[owner].members {
		out = append(out, id)
	}
	return out
}

// FindMemberTransitive looks up name in owner's member set, then up the
// superclass chain. The chain walk is bounded by the table size: a longer
// walk means the upstream pass built a cyclic hierarchy, which is a bug,
// not an input error.
func (t *Table) FindMemberTransitive(owner SymbolID, name string) (SymbolID, bool) {
	steps := 0
	for t.Exists(owner) {
		if id, ok := t.Member(owner, name); ok {
			return id, true
		}
		owner = t.symbols[owner].Superclass
		steps++
		if steps > t.Len() {
			panic("symtab: cyclic superclass chain")
		}
	}
	return NoSymbol, false
}

// Dealias resolves alias symbols to their ultimate target. Non-alias
// symbols dealias to themselves. Alias chains are finite because an
// alias can only point at a symbol that existed before it was entered.
func (t *Table) Dealias(id SymbolID) SymbolID {
	steps := 0
	for t.Exists(id) && t.symbols[id].Kind == KindAlias {
		id = t.symbols[id].AliasTo
		steps++
		if steps > t.Len() {
			panic("symtab: cyclic alias chain")
		}
	}
	return id
}

// SingletonClassOf returns the singleton class of class, creating it on
// first use. The singleton's attached class is class itself.
func (t *Table) SingletonClassOf(class SymbolID) SymbolID {
	if id, ok := t.singleton[class]; ok {
		return id
	}
	name := "<singleton:" + t.symbols[class].Name + ">"
	id := t.enter(Symbol{Name: name, Kind: KindClass, Owner: t.symbols[class].Owner})
	// Singleton hierarchy mirrors the attached hierarchy so that class
	// methods inherit.
	if super := t.symbols[class].Superclass; super != NoSymbol {
		t.symbols[id].Superclass = t.SingletonClassOf(super)
	}
	t.singleton[class] = id
	t.attached[id] = class
	return id
}

// SingletonClass returns the already-created singleton class of class
// without creating one. Query runs use this: they may not mutate the
// table.
func (t *Table) SingletonClass(class SymbolID) (SymbolID, bool) {
	id, ok := t.singleton[class]
	return id, ok
}

// AttachedClass returns the class a singleton class is attached to, or
// false if id is not a singleton class.
func (t *Table) AttachedClass(id SymbolID) (SymbolID, bool) {
	a, ok := t.attached[id]
	return a, ok
}

// FullName renders the owner-qualified name of a symbol, for diagnostics.
func (t *Table) FullName(id SymbolID) string {
	if !t.Exists(id) {
		return "<none>"
	}
	s := t.Get(id)
	if s.Owner == NoSymbol || s.Owner == t.root {
		return s.Name
	}
	return t.FullName(s.Owner) + "::" + s.Name
}
