package cryptox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPepper(t *testing.T) {
	t.Cleanup(func() { SetPepper("test-pepper") })
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	require.NoError(t, LoadPepper(path))
	generated := GetPepper()
	require.NotEmpty(t, generated)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, generated, string(onDisk))

	// A second load reuses the persisted value.
	SetPepper("")
	require.NoError(t, LoadPepper(path))
	require.Equal(t, generated, GetPepper())
}

func TestLoadPepper_EmptyPath(t *testing.T) {
	require.Error(t, LoadPepper(""))
}
