package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFiles(t *testing.T) *Files {
	t.Helper()
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)
	return files
}

func TestFiles_SaveAndCountLines(t *testing.T) {
	files := newTestFiles(t)

	n, err := files.Save(1, "book", "one\ntwo\nthree\n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	counted, err := files.CountLines(1, "book")
	require.NoError(t, err)
	assert.Equal(t, 3, counted)

	assert.True(t, files.Exists(1, "book"))
	assert.False(t, files.Exists(2, "book"))
}

func TestFiles_SaveWithoutTrailingNewline(t *testing.T) {
	files := newTestFiles(t)

	n, err := files.Save(1, "book", "one\ntwo")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFiles_ReadPiece(t *testing.T) {
	files := newTestFiles(t)

	_, err := files.Save(1, "book", "aaaa\nbbbb\ncccc\ndddd\n")
	require.NoError(t, err)

	t.Run("whole lines until chunk size", func(t *testing.T) {
		// Each line is 5 bytes with the newline; 8 chars needs two lines.
		piece, err := files.ReadPiece(1, "book", 0, 8)
		require.NoError(t, err)
		assert.Equal(t, "aaaa\nbbbb\n", piece.Text)
		assert.Equal(t, 2, piece.Lines)
		assert.Equal(t, 8, piece.Chars)
	})

	t.Run("resumes from offset", func(t *testing.T) {
		piece, err := files.ReadPiece(1, "book", 3, 100)
		require.NoError(t, err)
		assert.Equal(t, "dddd\n", piece.Text)
		assert.Equal(t, 1, piece.Lines)
	})

	t.Run("empty piece at end of book", func(t *testing.T) {
		piece, err := files.ReadPiece(1, "book", 4, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, piece.Lines)
		assert.Empty(t, piece.Text)
	})

	t.Run("empty piece past end of book", func(t *testing.T) {
		piece, err := files.ReadPiece(1, "book", 40, 100)
		require.NoError(t, err)
		assert.Equal(t, 0, piece.Lines)
	})

	t.Run("missing book errors", func(t *testing.T) {
		_, err := files.ReadPiece(9, "missing", 0, 100)
		assert.Error(t, err)
	})
}

func TestFiles_Remove(t *testing.T) {
	files := newTestFiles(t)

	_, err := files.Save(1, "book", "text\n")
	require.NoError(t, err)

	require.NoError(t, files.Remove(1, "book"))
	assert.False(t, files.Exists(1, "book"))

	// Removing a missing book is not an error
	assert.NoError(t, files.Remove(1, "book"))
}

func TestSanitizeName(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"war and peace.txt", "war and peace.txt"},
		{"  trimmed.txt  ", "trimmed.txt"},
		{"../../etc/passwd", ".._.._etc_passwd"},
		{"dir\\file.txt", "dir_file.txt"},
		{"ctrl\x07chars.txt", "ctrlchars.txt"},
		{"", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, SanitizeName(tc.in), "input %q", tc.in)
	}
}

func TestCountChars(t *testing.T) {
	assert.Equal(t, 0, countChars(""))
	assert.Equal(t, 7, countChars("ab cd\nefg"))
	assert.Equal(t, 5, countChars("кн и\tга")) // counts runes, not bytes
}
