package tools

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	maxByteLength = 1 << 20 // largest byte range served in one read
	maxLineBytes  = 1 << 20 // longest line the line reader accepts
)

var ErrNoRange = errors.New("either byte range or line range must be specified")

// PathError is returned for paths that fall outside the sandbox root.
type PathError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e PathError) Error() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Files serves reads from a single directory tree.
type Files struct {
	root string
}

// NewFiles resolves root to an absolute, symlink-free path, creating it if needed.
func NewFiles(root string) (*Files, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", abs, err)
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return &Files{root: abs}, nil
}

func (f *Files) Root() string {
	return f.root
}

// resolve maps a relative path to an absolute one inside the root. Absolute
// paths, parent traversal and symlink escapes are rejected.
func (f *Files) resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", PathError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "absolute paths are not allowed"}
	}
	candidate := filepath.Join(f.root, filepath.Clean(rel))
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	r, err := filepath.Rel(f.root, candidate)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", PathError{Code: "ERR_PATH_OUTSIDE_SANDBOX", Message: "path resolves outside the files directory"}
	}
	return candidate, nil
}

func (f *Files) openFile(name string) (*os.File, error) {
	path, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if fi.IsDir() {
		return nil, PathError{Code: "ERR_NOT_A_FILE", Message: name + " is a directory"}
	}
	return os.Open(path)
}

type FileEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type FileList struct {
	Files []FileEntry `json:"files"`
}

// List returns the entries of folder (relative to the root, "" for the root
// itself) with their extension as type.
func (f *Files) List(folder string) (*FileList, error) {
	dir, err := f.resolve(folder)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", folder, err)
	}
	list := &FileList{Files: make([]FileEntry, 0, len(entries))}
	for _, e := range entries {
		list.Files = append(list.Files, FileEntry{Name: e.Name(), Type: fileType(e.Name())})
	}
	return list, nil
}

func fileType(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

type FileSize struct {
	SizeBytes int64   `json:"size_bytes"`
	SizeKB    float64 `json:"size_kb"`
	SizeMB    float64 `json:"size_mb"`
	SizeHuman string  `json:"size_human"`
}

func (f *Files) Size(name string) (*FileSize, error) {
	path, err := f.resolve(name)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	size := fi.Size()
	return &FileSize{
		SizeBytes: size,
		SizeKB:    round2(float64(size) / 1024),
		SizeMB:    round2(float64(size) / (1024 * 1024)),
		SizeHuman: humanize.IBytes(uint64(size)),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type ByteChunk struct {
	Content  string `json:"content"`
	Type     string `json:"type"` // always "byte"
	Start    int64  `json:"start"`
	Length   int    `json:"length"` // bytes actually read
	FileType string `json:"file_type"`
}

// ReadBytes reads up to length bytes starting at offset start. Reading past
// the end returns what is there.
func (f *Files) ReadBytes(name string, start, length int64) (*ByteChunk, error) {
	if start < 0 || length <= 0 {
		return nil, fmt.Errorf("invalid byte range: start %d, length %d", start, length)
	}
	if length > maxByteLength {
		length = maxByteLength
	}
	file, err := f.openFile(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, length)
	n, err := file.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &ByteChunk{
		Content:  string(buf[:n]),
		Type:     "byte",
		Start:    start,
		Length:   n,
		FileType: fileType(name),
	}, nil
}

type LineChunk struct {
	Content    string `json:"content"`
	Type       string `json:"type"` // always "line"
	Start      int64  `json:"start"`
	NumLines   int    `json:"num_lines"`
	TotalLines int64  `json:"total_lines"` // lines scanned before stopping
	FileType   string `json:"file_type"`
}

// ReadLines returns count lines starting at 0-based line start. Scanning stops
// at the end of the window, so TotalLines is the file's line count only when
// the window reaches past the end.
func (f *Files) ReadLines(name string, start, count int64) (*LineChunk, error) {
	if start < 0 || count <= 0 {
		return nil, fmt.Errorf("invalid line range: start %d, count %d", start, count)
	}
	file, err := f.openFile(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	if count > math.MaxInt64-start {
		count = math.MaxInt64 - start
	}
	end := start + count
	var lines []string
	var lineNo int64
	for lineNo < end && scanner.Scan() {
		if lineNo >= start {
			lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
		}
		lineNo++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &LineChunk{
		Content:    strings.Join(lines, "\n"),
		Type:       "line",
		Start:      start,
		NumLines:   len(lines),
		TotalLines: lineNo,
		FileType:   fileType(name),
	}, nil
}

// ReadAll returns the whole file, for the HTTP file viewer.
func (f *Files) ReadAll(name string) (string, error) {
	file, err := f.openFile(name)
	if err != nil {
		return "", err
	}
	defer file.Close()
	b, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(b), nil
}
