// Package assertions parses position annotations out of Ruby fixtures.
// An annotation is a comment on the line after its target, either pointing
// at a column range with carets or claiming the whole line:
//
//	def bark
//	#   ^^^^ def: bark
//	helper
//	# usage: helper
//
// `def:` marks where a symbol is declared; `usage:` marks a reference to
// it. Labels with other keywords are ignored, so fixtures can carry
// annotations for more than one tool.
package assertions

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Range is a half-open source range in zero-based (line, col) coordinates.
type Range struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// Assertion is one parsed annotation.
type Assertion struct {
	File  string
	Kind  string // "def" or "usage"
	Label string
	Range Range

	// WholeLine is set for annotations without carets; their range covers
	// the target line's content and reported locations need only fall
	// inside it.
	WholeLine bool
}

var annotationRe = regexp.MustCompile(`^(\s*#\s*)(\^*)\s*([a-zA-Z-]+):\s*(\S+)\s*$`)

// Parse extracts the def and usage assertions from one annotated source.
func Parse(file string, src []byte) ([]Assertion, error) {
	lines := strings.Split(string(src), "\n")
	var asserts []Assertion

	// targetLine[i] is the nearest preceding line that is not itself an
	// annotation, so stacked annotations share a target.
	lastTarget := -1
	for i, line := range lines {
		m := annotationRe.FindStringSubmatch(line)
		if m == nil {
			if strings.TrimSpace(line) != "" {
				lastTarget = i
			}
			continue
		}
		kind, label := m[3], m[4]
		if kind != "def" && kind != "usage" {
			continue
		}
		if lastTarget < 0 {
			return nil, fmt.Errorf("%s:%d: annotation has no target line", file, i+1)
		}

		a := Assertion{File: file, Kind: kind, Label: label}
		if carets := m[2]; carets == "" {
			target := lines[lastTarget]
			start := len(target) - len(strings.TrimLeft(target, " \t"))
			a.WholeLine = true
			a.Range = Range{
				StartLine: lastTarget, StartCol: start,
				EndLine: lastTarget, EndCol: len(target),
			}
		} else {
			col := strings.Index(line, "^")
			a.Range = Range{
				StartLine: lastTarget, StartCol: col,
				EndLine: lastTarget, EndCol: col + len(carets),
			}
		}
		asserts = append(asserts, a)
	}
	return asserts, nil
}

// Oracle is the collected expectation set for a fixture tree: the unique
// definition of each label plus every usage of it.
type Oracle struct {
	Defs   map[string]Assertion
	Usages map[string][]Assertion
}

// Collect parses every file and cross-checks the result: each label has
// exactly one def, and every usage names a label that has one.
func Collect(files map[string][]byte) (*Oracle, error) {
	o := &Oracle{
		Defs:   make(map[string]Assertion),
		Usages: make(map[string][]Assertion),
	}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		asserts, err := Parse(path, files[path])
		if err != nil {
			return nil, err
		}
		for _, a := range asserts {
			switch a.Kind {
			case "def":
				if dup, ok := o.Defs[a.Label]; ok {
					return nil, fmt.Errorf("%s:%d: duplicate def for %q (first at %s:%d)",
						a.File, a.Range.StartLine+1, a.Label, dup.File, dup.Range.StartLine+1)
				}
				o.Defs[a.Label] = a
			case "usage":
				o.Usages[a.Label] = append(o.Usages[a.Label], a)
			}
		}
	}

	for label, usages := range o.Usages {
		if _, ok := o.Defs[label]; !ok {
			u := usages[0]
			return nil, fmt.Errorf("%s:%d: usage of %q has no def annotation",
				u.File, u.Range.StartLine+1, label)
		}
	}
	return o, nil
}

// Labels returns every annotated label, sorted.
func (o *Oracle) Labels() []string {
	labels := make([]string, 0, len(o.Defs))
	for label := range o.Defs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Expected returns the full expectation for a label: its def plus all
// usages, sorted by file then position. This is the reference answer for a
// find-references query on the label's symbol.
func (o *Oracle) Expected(label string) []Assertion {
	out := []Assertion{o.Defs[label]}
	out = append(out, o.Usages[label]...)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Range.StartLine != b.Range.StartLine {
			return a.Range.StartLine < b.Range.StartLine
		}
		return a.Range.StartCol < b.Range.StartCol
	})
	return out
}

// Satisfies reports whether a reported range fulfills the assertion.
// Answers often cover a whole defining statement while the carets
// underline just the name token, so a caret assertion is met when the
// reported range contains it. A whole-line assertion accepts any range
// starting on the target line.
func (a Assertion) Satisfies(reported Range) bool {
	if a.WholeLine {
		return reported.StartLine == a.Range.StartLine
	}
	return rangeIsSubset(a.Range, reported)
}

// Describe renders the assertion's target line with a caret underline
// beneath the asserted range, for readable failure messages.
func (a Assertion) Describe(src []byte) string {
	lines := strings.Split(string(src), "\n")
	if a.Range.StartLine >= len(lines) {
		return fmt.Sprintf("%s:%s", a.File, a.Range)
	}
	line := lines[a.Range.StartLine]
	width := a.Range.EndCol - a.Range.StartCol
	if width < 1 {
		width = 1
	}
	underline := strings.Repeat(" ", a.Range.StartCol) + strings.Repeat("^", width)
	return fmt.Sprintf("%s:%d:\n%s\n%s", a.File, a.Range.StartLine+1, line, underline)
}

// rangeIsSubset reports whether sub lies entirely within sup.
func rangeIsSubset(sub, sup Range) bool {
	if sub.StartLine < sup.StartLine || sub.EndLine > sup.EndLine {
		return false
	}
	if sub.StartLine == sup.StartLine && sub.StartCol < sup.StartCol {
		return false
	}
	if sub.EndLine == sup.EndLine && sub.EndCol > sup.EndCol {
		return false
	}
	return true
}
