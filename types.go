package taproot

import (
	"github.com/jward/taproot/internal/store"
	"github.com/jward/taproot/internal/symtab"
)

// Public type aliases for internal types used in the Engine and Program
// APIs. These are Go type aliases (=), identical to the internal types at
// compile time, so no conversion is needed.

type Store = store.Store
type File = store.File
type Definition = store.Definition
type SymbolID = symtab.SymbolID

// Location is a source range in file coordinates. Lines and columns are
// zero-based; the end position is exclusive.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}
