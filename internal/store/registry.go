package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, hash, last_indexed) VALUES (?, ?, ?)",
		f.Path, f.Hash, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT id, path, hash, last_indexed FROM files WHERE path = ?", path,
	).Scan(&f.ID, &f.Path, &f.Hash, &f.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

// Files returns all registered files ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT id, path, hash, last_indexed FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Hash, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// UpdateFile refreshes a file's hash and index time.
func (s *Store) UpdateFile(f *File) error {
	_, err := s.db.Exec(
		"UPDATE files SET hash = ?, last_indexed = ? WHERE id = ?",
		f.Hash, f.LastIndexed, f.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	return nil
}

// DeleteFileData removes a file's definitions, keeping the file row.
// Used before re-extracting a changed file.
func (s *Store) DeleteFileData(fileID int64) error {
	if _, err := s.db.Exec("DELETE FROM definitions WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("delete definitions: %w", err)
	}
	return nil
}

// --- Definition operations ---

func (s *Store) InsertDefinition(d *Definition) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO definitions (file_id, name, kind, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.Name, d.Kind, d.StartLine, d.StartCol, d.EndLine, d.EndCol,
	)
	if err != nil {
		return 0, fmt.Errorf("insert definition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

// DefinitionsByFile returns a file's definitions in source order.
func (s *Store) DefinitionsByFile(fileID int64) ([]*Definition, error) {
	return s.queryDefinitions(
		`SELECT id, file_id, name, kind, start_line, start_col, end_line, end_col
		 FROM definitions WHERE file_id = ? ORDER BY start_line, start_col`, fileID)
}

// SearchDefinitions returns definitions whose name contains the given
// substring, ordered by name then file.
func (s *Store) SearchDefinitions(name string, limit int) ([]*Definition, error) {
	return s.queryDefinitions(
		`SELECT id, file_id, name, kind, start_line, start_col, end_line, end_col
		 FROM definitions WHERE name LIKE '%' || ? || '%'
		 ORDER BY name, file_id LIMIT ?`, name, limit)
}

func (s *Store) queryDefinitions(query string, args ...any) ([]*Definition, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	defer rows.Close()
	var defs []*Definition
	for rows.Next() {
		d := &Definition{}
		if err := rows.Scan(&d.ID, &d.FileID, &d.Name, &d.Kind,
			&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}
