package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLinesSkipsBlank(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("  first line \n\n\t\nsecond\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first line", "second"}, lines)
}

func TestHashKeyIsStable(t *testing.T) {
	assert.Equal(t, HashKey("a", "b"), HashKey("a", "b"))
	assert.NotEqual(t, HashKey("a", "b"), HashKey("ab"))
	assert.Len(t, HashKey("x"), 16)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	err = WriteFileAtomic(path, func(w io.Writer) error {
		return errors.New("boom")
	})
	require.Error(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data), "failed write must not clobber the previous file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestRecoverWithError(t *testing.T) {
	run := func() (err error) {
		defer RecoverWithError(&err)
		panic("layout")
	}
	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout")
}
