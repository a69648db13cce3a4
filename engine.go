package taproot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/taproot/internal/store"
	"github.com/jward/taproot/internal/symtab"
	"github.com/jward/taproot/internal/syntax"
	"github.com/jward/taproot/internal/walker"
)

// Engine orchestrates the taproot pipeline: file discovery, change
// detection, parsing, definition extraction, and snapshot construction.
type Engine struct {
	store *store.Store

	// useParallel enables the parallel indexing pipeline.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls parallel indexing. When true (default), IndexFiles
// uses a worker pool for parsing, with a single goroutine committing results
// to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("taproot: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("taproot: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// IndexFiles indexes the given file paths. When WithParallel is enabled,
// parsing runs on a worker pool with batched SQLite writes. Otherwise falls
// back to the serial path.
//
// For each file:
//  1. Skip non-Ruby files
//  2. Skip unchanged files (same content hash)
//  3. Parse and extract top-level definitions
//  4. Replace the file's registry rows
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.useParallel {
		return e.indexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := e.indexFile(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	if !isRubyFile(path) {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return nil // unchanged
	}

	f, err := syntax.ParseFile(ctx, path, content)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	fileID, err := e.commitFile(path, hash, existing)
	if err != nil {
		return err
	}
	return e.commitDefinitions(fileID, f)
}

// commitFile inserts or refreshes the registry row for a file, clearing any
// stale definitions first. Returns the file's ID.
func (e *Engine) commitFile(path, hash string, existing *store.File) (int64, error) {
	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return 0, fmt.Errorf("delete old definitions: %w", err)
		}
		existing.Hash = hash
		existing.LastIndexed = time.Now().Unix()
		if err := e.store.UpdateFile(existing); err != nil {
			return 0, fmt.Errorf("update file: %w", err)
		}
		return existing.ID, nil
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Hash:        hash,
		LastIndexed: time.Now().Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	return fileID, nil
}

func (e *Engine) commitDefinitions(fileID int64, f *syntax.File) error {
	for _, d := range collectDefinitions(f) {
		d.FileID = fileID
		if _, err := e.store.InsertDefinition(d); err != nil {
			return fmt.Errorf("insert definition %s: %w", d.Name, err)
		}
	}
	return nil
}

// collectDefinitions walks a parsed file and returns registry rows for its
// class, module, and method definitions. Positions cover the name token.
func collectDefinitions(f *syntax.File) []*store.Definition {
	var defs []*store.Definition
	add := func(name, kind string, loc symtab.Loc) {
		sl, sc, el, ec := f.RangeFor(loc)
		defs = append(defs, &store.Definition{
			Name: name, Kind: kind,
			StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
		})
	}
	var walk func(nodes []syntax.Node)
	walk = func(nodes []syntax.Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case *syntax.ClassDef:
				add(n.Name.Name, "class", n.Name.Span)
				walk(n.Body)
			case *syntax.ModuleDef:
				add(n.Name.Name, "module", n.Name.Span)
				walk(n.Body)
			case *syntax.MethodDef:
				add(n.Name, "method", n.NameLoc)
				walk(n.Body)
			case *syntax.Other:
				walk(n.Children)
			}
		}
	}
	walk(f.Nodes)
	return defs
}

// skipDirs are directories excluded from indexing.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"tmp":          true,
}

func isRubyFile(path string) bool {
	return strings.HasSuffix(path, ".rb")
}

// IndexDirectory walks root and indexes all Ruby files. If root is inside a
// git repository, uses git ls-files to respect .gitignore. Falls back to a
// filesystem walk (skipping hidden dirs, vendor, node_modules, tmp) if git
// is unavailable.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available, fall back to walk.
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	return e.IndexFiles(ctx, paths)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) Ruby files under root.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if isRubyFile(absPath) {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// walkListFiles discovers Ruby files by walking the filesystem, used as a
// fallback when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if isRubyFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

// Snapshot parses every registered file and builds a Program: a fully
// linked symbol table the query operations run against. Files are processed
// in path order, so snapshots of the same tree are identical run to run.
func (e *Engine) Snapshot(ctx context.Context) (*Program, error) {
	records, err := e.store.Files()
	if err != nil {
		return nil, fmt.Errorf("taproot: list files: %w", err)
	}

	files := make([]*syntax.File, 0, len(records))
	byPath := make(map[string]*syntax.File, len(records))
	for _, rec := range records {
		src, err := os.ReadFile(rec.Path)
		if err != nil {
			return nil, fmt.Errorf("taproot: read %s: %w", rec.Path, err)
		}
		f, err := syntax.ParseFile(ctx, rec.Path, src)
		if err != nil {
			return nil, fmt.Errorf("taproot: parse %s: %w", rec.Path, err)
		}
		files = append(files, f)
		byPath[rec.Path] = f
	}

	tbl := symtab.NewTable()
	b := walker.Declare(tbl, files)
	return &Program{tbl: tbl, bindings: b, files: files, byPath: byPath}, nil
}
