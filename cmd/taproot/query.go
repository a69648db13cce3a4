package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jward/taproot"
	"github.com/spf13/cobra"
)

var flagLimit int

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the semantic index",
	Long:  "Run queries against an indexed codebase. All line and column numbers are 0-based.",
}

func init() {
	queryCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "result limit for search commands")

	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(filesCmd)
}

// --- Helpers ---

// openEngine opens the Engine from the --db flag path (or default).
func openEngine() (*taproot.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)
	dbPath := resolveDBPath(repoRoot)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'taproot index' first)", dbPath)
	}
	return taproot.New(dbPath)
}

// openProgram opens the Engine and builds a query snapshot.
func openProgram() (*taproot.Engine, *taproot.Program, error) {
	engine, err := openEngine()
	if err != nil {
		return nil, nil, err
	}
	p, err := engine.Snapshot(context.Background())
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return engine, p, nil
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// parsePosition parses <file> <line> <col> positional arguments.
func parsePosition(args []string) (string, int, int, error) {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return "", 0, 0, err
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return "", 0, 0, err
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return "", 0, 0, err
	}
	return file, line, col, nil
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

func locationsToCLI(locs []taproot.Location) []CLILocation {
	out := make([]CLILocation, len(locs))
	for i, loc := range locs {
		out[i] = CLILocation{
			File:      loc.File,
			StartLine: loc.StartLine,
			StartCol:  loc.StartCol,
			EndLine:   loc.EndLine,
			EndCol:    loc.EndCol,
		}
	}
	return out
}

// --- Commands ---

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the definition of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runDefinition,
}

func runDefinition(cmd *cobra.Command, args []string) error {
	file, line, col, err := parsePosition(args)
	if err != nil {
		return outputError("definition", err)
	}

	engine, p, err := openProgram()
	if err != nil {
		return outputError("definition", err)
	}
	defer engine.Close()

	locs, err := p.DefinitionAt(file, line, col)
	if err != nil {
		return outputError("definition", err)
	}

	cliLocs := locationsToCLI(locs)
	count := len(cliLocs)
	return outputResult(CLIResult{
		Command:    "definition",
		Results:    cliLocs,
		TotalCount: &count,
	})
}

var referencesCmd = &cobra.Command{
	Use:   "references <file> <line> <col>",
	Short: "Find all references to the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runReferences,
}

func runReferences(cmd *cobra.Command, args []string) error {
	file, line, col, err := parsePosition(args)
	if err != nil {
		return outputError("references", err)
	}

	engine, p, err := openProgram()
	if err != nil {
		return outputError("references", err)
	}
	defer engine.Close()

	locs, err := p.ReferencesAt(file, line, col)
	if err != nil {
		return outputError("references", err)
	}

	cliLocs := locationsToCLI(locs)
	count := len(cliLocs)
	return outputResult(CLIResult{
		Command:    "references",
		Results:    cliLocs,
		TotalCount: &count,
	})
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <name>",
	Short: "Search indexed definitions by name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("symbols", err)
	}
	defer engine.Close()

	s := engine.Store()
	defs, err := s.SearchDefinitions(args[0], flagLimit)
	if err != nil {
		return outputError("symbols", err)
	}

	files, err := s.Files()
	if err != nil {
		return outputError("symbols", err)
	}
	pathByID := make(map[int64]string, len(files))
	for _, f := range files {
		pathByID[f.ID] = f.Path
	}

	cliDefs := make([]CLIDefinition, len(defs))
	for i, d := range defs {
		cliDefs[i] = CLIDefinition{
			ID:        d.ID,
			Name:      d.Name,
			Kind:      d.Kind,
			File:      pathByID[d.FileID],
			StartLine: d.StartLine,
			StartCol:  d.StartCol,
			EndLine:   d.EndLine,
			EndCol:    d.EndCol,
		}
	}

	count := len(cliDefs)
	return outputResult(CLIResult{
		Command:    "symbols",
		Results:    cliDefs,
		TotalCount: &count,
	})
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("files", err)
	}
	defer engine.Close()

	files, err := engine.Store().Files()
	if err != nil {
		return outputError("files", err)
	}

	cliFiles := make([]CLIFile, len(files))
	for i, f := range files {
		cliFiles[i] = CLIFile{
			ID:   f.ID,
			Path: f.Path,
			Hash: f.Hash,
		}
	}

	count := len(cliFiles)
	return outputResult(CLIResult{
		Command:    "files",
		Results:    cliFiles,
		TotalCount: &count,
	})
}
