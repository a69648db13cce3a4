package syntax

import (
	"fmt"
	"sort"

	"github.com/jward/taproot/internal/symtab"
)

// File is one parsed source file: its path, raw bytes, top-level AST
// nodes, and a line index for offset/position conversion.
type File struct {
	Path  string
	Src   []byte
	Nodes []Node

	// lineStarts[i] is the byte offset of line i (0-based).
	lineStarts []int
}

func newFile(path string, src []byte, nodes []Node) *File {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &File{Path: path, Src: src, Nodes: nodes, lineStarts: starts}
}

// LineCount returns the number of lines in the file.
func (f *File) LineCount() int {
	return len(f.lineStarts)
}

// Line returns the text of the 0-based line, without its newline.
func (f *File) Line(line int) string {
	if line < 0 || line >= f.LineCount() {
		return ""
	}
	start := f.lineStarts[line]
	end := len(f.Src)
	if line+1 < len(f.lineStarts) {
		end = f.lineStarts[line+1] - 1
	}
	return string(f.Src[start:end])
}

// OffsetFor converts a 0-based line/column position to a byte offset.
// Columns past the end of the line are rejected: a malformed position is
// a bad request, caught before any traversal starts.
func (f *File) OffsetFor(line, col int) (int, error) {
	if line < 0 || col < 0 || line >= f.LineCount() {
		return 0, fmt.Errorf("position %d:%d out of range in %s", line, col, f.Path)
	}
	off := f.lineStarts[line] + col
	lineEnd := len(f.Src)
	if line+1 < len(f.lineStarts) {
		lineEnd = f.lineStarts[line+1]
	}
	if off > lineEnd {
		return 0, fmt.Errorf("column %d past end of line %d in %s", col, line, f.Path)
	}
	return off, nil
}

// PositionFor converts a byte offset to a 0-based line/column pair.
func (f *File) PositionFor(offset int) (line, col int) {
	line = sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		line = 0
	}
	return line, offset - f.lineStarts[line]
}

// RangeFor converts a location in this file to 0-based line/column
// endpoints.
func (f *File) RangeFor(loc symtab.Loc) (startLine, startCol, endLine, endCol int) {
	startLine, startCol = f.PositionFor(loc.Start)
	endLine, endCol = f.PositionFor(loc.End)
	return
}
