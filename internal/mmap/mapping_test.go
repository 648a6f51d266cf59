package mmap

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpen_ReadsContent(t *testing.T) {
	path := writeFile(t, []byte("MKVLAA\x00ACDE\x00"))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 12, m.Size())
	assert.Equal(t, []byte("MKVLAA\x00ACDE\x00"), m.Bytes())
	require.NoError(t, m.Advise(AccessRandom))
}

func TestOpen_EmptyFile(t *testing.T) {
	path := writeFile(t, nil)

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, 0, m.Size())
	assert.Nil(t, m.Bytes())
	require.NoError(t, m.Advise(AccessSequential))
	require.NoError(t, m.Close())
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMapping_ReadAt(t *testing.T) {
	m, err := Open(writeFile(t, []byte("0123456789")))
	require.NoError(t, err)
	defer m.Close()

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))

	n, err = m.ReadAt(buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)

	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestMapping_CloseIdempotent(t *testing.T) {
	m, err := Open(writeFile(t, []byte("abc")))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)

	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMapping_ConcurrentReads(t *testing.T) {
	m, err := Open(writeFile(t, []byte("ACDEFGHIKLMNPQRSTVWY")))
	require.NoError(t, err)
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Equal(t, byte('A'), m.Bytes()[0])
			}
		}()
	}
	wg.Wait()
}
