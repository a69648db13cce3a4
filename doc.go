// Package taproot provides deterministic semantic queries over Ruby source
// built on tree-sitter: go-to-definition and find-references with real symbol
// resolution rather than text matching.
//
// # Pipeline
//
// Taproot operates in two phases:
//
//  1. Index: For each source file, parse with tree-sitter, and write the
//     file's content hash and top-level definitions to SQLite so re-runs can
//     skip unchanged files and the CLI can browse definitions cheaply.
//
//  2. Snapshot: Build an in-memory [Program], a symbol table covering every
//     indexed file, with classes, modules, methods, fields, constants, and
//     aliases fully linked. Queries run against the snapshot, not the
//     database.
//
// # Usage
//
// Create an Engine, index source files, snapshot, and query:
//
//	e, err := taproot.New("taproot.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//
//	p, err := e.Snapshot(ctx)
//	locs, err := p.DefinitionAt("lib/dog.rb", 10, 5)
//
// # Query API
//
// A [Program] provides three operations:
//
//   - [Program.DefinitionAt]: go-to-definition; find where the symbol at a
//     position is defined.
//   - [Program.ReferencesAt]: find-references from a position; identify the
//     symbol there, then find every location that references it.
//   - [Program.ReferencesTo]: find-references for a known symbol.
//
// Positions are zero-based (line, column) pairs. Results are returned as
// [Location] values sorted by file path and position; a position that
// resolves to nothing yields an empty list, never an error.
//
// # Incremental Indexing
//
// [Engine.IndexFiles] detects unchanged files via content hashing and skips
// them. When [WithParallel] is enabled (the default), parsing runs on a
// worker pool with a single goroutine committing results to SQLite.
package taproot
