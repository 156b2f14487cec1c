package db

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNothingAdded is returned by RegisterFiles when every name was already known.
var ErrNothingAdded = errors.New("all files already exist")

type File struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FileType  string `json:"file_type"`
	SizeBytes *int64 `json:"size_bytes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// FileType is the lowercase extension of name without the dot.
func FileType(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// RegisterFiles records names that are not yet known and returns how many
// were added. Blank and repeated names are ignored.
func (d *DB) RegisterFiles(names []string) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		res, err := tx.Exec(
			"INSERT OR IGNORE INTO files (name, file_type) VALUES (?, ?)",
			name, FileType(name),
		)
		if err != nil {
			return 0, fmt.Errorf("registering file %q: %w", name, err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing files: %w", err)
	}
	if added == 0 {
		return 0, ErrNothingAdded
	}
	return added, nil
}

// UpsertFile creates or refreshes the row for name.
func (d *DB) UpsertFile(name, fileType string, size int64) error {
	_, err := d.conn.Exec(
		`INSERT INTO files (name, file_type, size_bytes) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			file_type = excluded.file_type,
			size_bytes = excluded.size_bytes,
			updated_at = datetime('now')`,
		name, fileType, size,
	)
	if err != nil {
		return fmt.Errorf("upserting file %q: %w", name, err)
	}
	return nil
}

// ListFiles returns every known file ordered by name.
func (d *DB) ListFiles() ([]File, error) {
	rows, err := d.conn.Query(
		"SELECT id, name, file_type, size_bytes, created_at, updated_at FROM files ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		var size sql.NullInt64
		if err := rows.Scan(&f.ID, &f.Name, &f.FileType, &size, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		if size.Valid {
			v := size.Int64
			f.SizeBytes = &v
		}
		files = append(files, f)
	}
	return files, rows.Err()
}
