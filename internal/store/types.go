package store

// File is one registered workspace file.
type File struct {
	ID          int64
	Path        string
	Hash        string
	LastIndexed int64
}

// Definition is one declaration extracted from a file. Line and column
// numbers are 0-based.
type Definition struct {
	ID        int64
	FileID    int64
	Name      string
	Kind      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}
