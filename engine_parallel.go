package taproot

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/jward/taproot/internal/store"
	"github.com/jward/taproot/internal/syntax"
)

// workItem holds everything a parallel parse worker needs.
type workItem struct {
	path     string
	hash     string
	content  []byte
	existing *store.File

	// parsed is filled in by the worker.
	parsed *syntax.File
}

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):  Read content, hash check, collect work items.
//	Phase B (parallel): Parse via worker pool (each parse has its own parser).
//	Phase C (serial):  Commit file records and definitions to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	// ---- Phase A: Serial file preparation ----
	var items []*workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", path, err)
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil
	}

	// ---- Phase B: Parallel parsing ----
	numWorkers := min(runtime.NumCPU(), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan *workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item *workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				f, err := syntax.ParseFile(ctx, item.path, item.content)
				if err == nil {
					item.parsed = f
				}
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	var errs []error
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", res.item.path, res.err))
			continue
		}

		fileID, err := e.commitFile(res.item.path, res.item.hash, res.item.existing)
		if err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			continue
		}
		if err := e.commitDefinitions(fileID, res.item.parsed); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// prepareFile does Phase A work for a single file: read content, hash check.
// Returns (item, skip, error). skip=true means the file is unchanged or not
// a Ruby file.
func (e *Engine) prepareFile(path string) (*workItem, bool, error) {
	if !isRubyFile(path) {
		return nil, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read file: %w", err)
	}
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return nil, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return nil, true, nil // unchanged
	}

	return &workItem{
		path:     path,
		hash:     hash,
		content:  content,
		existing: existing,
	}, false, nil
}
