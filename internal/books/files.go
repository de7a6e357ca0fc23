package books

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Files stores book text as plain-text files under a single directory, one
// file per (user, book). Parsing of source formats happens before ingestion;
// everything here is already UTF-8 text.
type Files struct {
	dir string
}

// NewFiles creates the books directory if needed.
func NewFiles(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create books dir: %w", err)
	}
	return &Files{dir: dir}, nil
}

// path builds the on-disk file name. Book names are sanitized on ingest, the
// user id prefix keeps different users' books apart.
func (f *Files) path(userID int64, bookName string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%d_%s.txt", userID, bookName))
}

// Save writes the full book text and returns the number of lines written.
func (f *Files) Save(userID int64, bookName, text string) (int, error) {
	file, err := os.Create(f.path(userID, bookName))
	if err != nil {
		return 0, fmt.Errorf("failed to create book file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if _, err := w.WriteString(text); err != nil {
		return 0, fmt.Errorf("failed to write book file: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush book file: %w", err)
	}
	return countLines(text), nil
}

// Exists reports whether a stored text exists for the pair.
func (f *Files) Exists(userID int64, bookName string) bool {
	_, err := os.Stat(f.path(userID, bookName))
	return err == nil
}

// CountLines returns the number of lines in the stored book.
func (f *Files) CountLines(userID int64, bookName string) (int, error) {
	file, err := os.Open(f.path(userID, bookName))
	if err != nil {
		return 0, fmt.Errorf("failed to open book file: %w", err)
	}
	defer file.Close()

	n := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to count lines: %w", err)
	}
	return n, nil
}

// Piece is one chunk of book text read starting at a line offset.
type Piece struct {
	Text  string
	Lines int // lines consumed, 0 at end of book
	Chars int // non-whitespace characters in Text
}

// ReadPiece reads whole lines starting at line offset `pos` until at least
// chunkSize characters are collected or the book ends. Lines are never split,
// so a piece can exceed chunkSize by up to one line.
func (f *Files) ReadPiece(userID int64, bookName string, pos, chunkSize int) (Piece, error) {
	file, err := os.Open(f.path(userID, bookName))
	if err != nil {
		return Piece{}, fmt.Errorf("failed to open book file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for i := 0; i < pos; i++ {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Piece{}, fmt.Errorf("failed to skip lines: %w", err)
			}
			return Piece{}, nil // position past end of book
		}
	}

	var sb strings.Builder
	lines := 0
	for sb.Len() < chunkSize && scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
		lines++
	}
	if err := scanner.Err(); err != nil {
		return Piece{}, fmt.Errorf("failed to read piece: %w", err)
	}

	text := sb.String()
	return Piece{Text: text, Lines: lines, Chars: countChars(text)}, nil
}

// Remove deletes the stored text. Missing files are not an error.
func (f *Files) Remove(userID int64, bookName string) error {
	err := os.Remove(f.path(userID, bookName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove book file: %w", err)
	}
	return nil
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func countChars(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// SanitizeName strips path separators and other unsafe runes from a
// user-provided book name.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == 0:
			sb.WriteByte('_')
		case unicode.IsControl(r):
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
