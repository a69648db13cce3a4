package symtab

import "fmt"

// Loc identifies a half-open character range [Start, End) within a source
// file. The zero Loc is synthetic: it names no file and fails Exists.
type Loc struct {
	File  string
	Start int
	End   int
}

// Exists reports whether the location points at real source text.
// Synthesized symbols (the root scope, implicit singleton classes) carry
// the zero Loc and are filtered out of user-facing answers.
func (l Loc) Exists() bool {
	return l.File != ""
}

// Overlaps reports whether two real locations in the same file share at
// least one character. Both ranges are half-open.
func (l Loc) Overlaps(o Loc) bool {
	if !l.Exists() || !o.Exists() || l.File != o.File {
		return false
	}
	return l.Start < o.End && o.Start < l.End
}

// Contains reports whether o falls entirely within l.
func (l Loc) Contains(o Loc) bool {
	if !l.Exists() || !o.Exists() || l.File != o.File {
		return false
	}
	return l.Start <= o.Start && o.End <= l.End
}

func (l Loc) String() string {
	if !l.Exists() {
		return "<synthetic>"
	}
	return fmt.Sprintf("%s:%d-%d", l.File, l.Start, l.End)
}
