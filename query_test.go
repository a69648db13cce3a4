package taproot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jward/taproot/internal/lsquery"
	"github.com/jward/taproot/internal/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotFromSources writes the given sources to a temp tree, indexes
// them, and returns the resulting Program plus the tree root.
func snapshotFromSources(t *testing.T, sources map[string]string) (*Program, string) {
	t.Helper()
	root := t.TempDir()
	var paths []string
	for name, src := range sources {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
		paths = append(paths, p)
	}

	e, err := New(filepath.Join(root, "taproot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	ctx := context.Background()
	require.NoError(t, e.IndexFiles(ctx, paths))
	p, err := e.Snapshot(ctx)
	require.NoError(t, err)
	return p, root
}

// pos returns the zero-based (line, col) of the nth occurrence of needle.
func pos(t *testing.T, src, needle string, n int) (int, int) {
	t.Helper()
	idx := -1
	for i := 0; i < n; i++ {
		j := strings.Index(src[idx+1:], needle)
		require.GreaterOrEqual(t, j, 0, "occurrence %d of %q not found", n, needle)
		idx = idx + 1 + j
	}
	line := strings.Count(src[:idx], "\n")
	col := idx - (strings.LastIndex(src[:idx], "\n") + 1)
	return line, col
}

// span builds the Location covering the nth occurrence of needle. The
// needle must not span lines.
func span(t *testing.T, file, src, needle string, n int) Location {
	t.Helper()
	line, col := pos(t, src, needle, n)
	return Location{
		File:      file,
		StartLine: line,
		StartCol:  col,
		EndLine:   line,
		EndCol:    col + len(needle),
	}
}

func TestDefinitionAtParameter(t *testing.T) {
	src := "def greet(name)\n  name\nend\n"
	p, root := snapshotFromSources(t, map[string]string{"greet.rb": src})
	file := filepath.Join(root, "greet.rb")

	want := []Location{span(t, file, src, "name", 1)}

	// From the body reference.
	line, col := pos(t, src, "name", 2)
	locs, err := p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, want, locs)

	// From the parameter itself.
	line, col = pos(t, src, "name", 1)
	locs, err = p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, want, locs)
}

func TestDefinitionAtMethodHeader(t *testing.T) {
	src := "def greet(name)\n  name\nend\n"
	p, root := snapshotFromSources(t, map[string]string{"greet.rb": src})
	file := filepath.Join(root, "greet.rb")

	line, col := pos(t, src, "greet", 1)
	locs, err := p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{span(t, file, src, "def greet(name)", 1)}, locs)
}

func TestDefinitionAtSend(t *testing.T) {
	src := `class Dog
  def bark
    "woof"
  end
end

dog = Dog.new
dog.bark
`
	p, root := snapshotFromSources(t, map[string]string{"dog.rb": src})
	file := filepath.Join(root, "dog.rb")

	line, col := pos(t, src, "bark", 2)
	locs, err := p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{span(t, file, src, "def bark", 1)}, locs)
}

func TestDefinitionAtLocalFromAssignment(t *testing.T) {
	src := `class Dog
  def bark
  end
end

dog = Dog.new
dog.bark
`
	p, root := snapshotFromSources(t, map[string]string{"dog.rb": src})
	file := filepath.Join(root, "dog.rb")

	// `dog` in `dog.bark` resolves to its assignment.
	line, col := pos(t, src, "dog.bark", 1)
	locs, err := p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{span(t, file, src, "dog", 1)}, locs)
}

func TestDefinitionAtConstantSegments(t *testing.T) {
	src := `module Outer
  module Inner
    LIMIT = 5
  end
end

Outer::Inner::LIMIT
`
	p, root := snapshotFromSources(t, map[string]string{"limits.rb": src})
	file := filepath.Join(root, "limits.rb")

	// The leaf segment jumps to the constant.
	line, col := pos(t, src, "LIMIT", 2)
	locs, err := p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{span(t, file, src, "LIMIT", 1)}, locs)

	// A middle segment jumps to the module it names.
	line, col = pos(t, src, "Inner", 2)
	locs, err = p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{span(t, file, src, "Inner", 1)}, locs)
}

func TestDefinitionAtAlias(t *testing.T) {
	src := `class Target
end

Shortcut = Target
Shortcut
`
	p, root := snapshotFromSources(t, map[string]string{"alias.rb": src})
	file := filepath.Join(root, "alias.rb")

	// The alias use site jumps through to the aliased class.
	line, col := pos(t, src, "Shortcut", 2)
	locs, err := p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{span(t, file, src, "Target", 1)}, locs)
}

func TestReferencesAtMethod(t *testing.T) {
	src := `class Dog
  def bark
  end
end

a = Dog.new
a.bark
b = Dog.new
b.bark
`
	p, root := snapshotFromSources(t, map[string]string{"dog.rb": src})
	file := filepath.Join(root, "dog.rb")

	line, col := pos(t, src, "bark", 1)
	locs, err := p.ReferencesAt(file, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{
		span(t, file, src, "def bark", 1),
		span(t, file, src, "bark", 2),
		span(t, file, src, "bark", 3),
	}, locs)
}

func TestReferencesAtLocalIsEmpty(t *testing.T) {
	src := `class Dog
  def bark
  end
end

a = Dog.new
a.bark
`
	p, root := snapshotFromSources(t, map[string]string{"dog.rb": src})
	file := filepath.Join(root, "dog.rb")

	line, col := pos(t, src, "a.bark", 1)
	locs, err := p.ReferencesAt(file, line, col)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestReferencesAcrossFiles(t *testing.T) {
	dogSrc := `class Dog
  def bark
  end
end
`
	mainSrc := `dog = Dog.new
dog.bark
`
	p, root := snapshotFromSources(t, map[string]string{
		"dog.rb":  dogSrc,
		"main.rb": mainSrc,
	})
	dogFile := filepath.Join(root, "dog.rb")
	mainFile := filepath.Join(root, "main.rb")

	// References to the class, queried from the use site in main.rb.
	line, col := pos(t, mainSrc, "Dog", 1)
	locs, err := p.ReferencesAt(mainFile, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{
		span(t, dogFile, dogSrc, "Dog", 1),
		span(t, mainFile, mainSrc, "Dog", 1),
	}, locs)

	// go-to-definition across files.
	line, col = pos(t, mainSrc, "bark", 1)
	defs, err := p.DefinitionAt(mainFile, line, col)
	require.NoError(t, err)
	assert.Equal(t, []Location{span(t, dogFile, dogSrc, "def bark", 1)}, defs)
}

func TestDefinitionAtNothingThere(t *testing.T) {
	src := "x = 1\n"
	p, root := snapshotFromSources(t, map[string]string{"x.rb": src})
	file := filepath.Join(root, "x.rb")

	// Position on the `=` resolves to nothing. Not an error.
	locs, err := p.DefinitionAt(file, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestDefinitionAtErrors(t *testing.T) {
	src := "x = 1\n"
	p, root := snapshotFromSources(t, map[string]string{"x.rb": src})
	file := filepath.Join(root, "x.rb")

	_, err := p.DefinitionAt(filepath.Join(root, "missing.rb"), 0, 0)
	assert.ErrorContains(t, err, "not indexed")

	_, err = p.DefinitionAt(file, 99, 0)
	assert.Error(t, err)
}

func TestSymbolAt(t *testing.T) {
	src := `class Dog
  def bark
  end
end
`
	p, root := snapshotFromSources(t, map[string]string{"dog.rb": src})
	file := filepath.Join(root, "dog.rb")

	line, col := pos(t, src, "bark", 1)
	sym, err := p.SymbolAt(file, line, col)
	require.NoError(t, err)
	require.NotZero(t, sym)
	assert.Equal(t, "bark", p.tbl.Get(sym).Name)

	refs := p.ReferencesTo(sym)
	assert.Equal(t, []Location{span(t, file, src, "def bark", 1)}, refs)
}

func TestDefinitionAtMissingMethod(t *testing.T) {
	src := `class Dog
  def bark
  end
end
dog = Dog.new
dog.meow
`
	p, root := snapshotFromSources(t, map[string]string{"dog.rb": src})
	file := filepath.Join(root, "dog.rb")

	line, col := pos(t, src, "meow", 1)
	locs, err := p.DefinitionAt(file, line, col)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestSendDispatchSkipsMissingTargets(t *testing.T) {
	src := `class A
  def m1
  end
end
class B
  def m3
  end
end
`
	p, root := snapshotFromSources(t, map[string]string{"ab.rb": src})
	file := filepath.Join(root, "ab.rb")

	line, col := pos(t, src, "m1", 1)
	m1, err := p.SymbolAt(file, line, col)
	require.NoError(t, err)
	require.NotZero(t, m1)

	line, col = pos(t, src, "m3", 1)
	m3, err := p.SymbolAt(file, line, col)
	require.NoError(t, err)
	require.NotZero(t, m3)

	// A call site whose dispatch considered three candidates, the middle
	// one unresolved. Only the resolved targets survive, in order.
	resp := lsquery.NewSendResponse(symtab.Loc{}, "m", []lsquery.DispatchComponent{
		{Method: m1},
		{Method: symtab.NoSymbol},
		{Method: m3},
	})
	locs := p.definitionLocs(resp)
	want := []Location{
		span(t, file, src, "def m1", 1),
		span(t, file, src, "def m3", 1),
	}
	assert.Equal(t, want, locs)
}
