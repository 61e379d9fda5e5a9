package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.hevc")
	s, err := NewFileSink(path)
	require.NoError(t, err)

	s.Put([]byte{1, 2, 3})
	s.Put([]byte{4, 5})
	assert.EqualValues(t, 5, s.Bytes())
	s.Close()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, b)
}

func TestFileSinkUnopenable(t *testing.T) {
	_, err := NewFileSink(filepath.Join(t.TempDir(), "missing", "out.hevc"))
	assert.Error(t, err)
}
