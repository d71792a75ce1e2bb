package workdir_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alkime/liftlog/internal/workdir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepAndPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, workdir.Prep())

	chunks, err := workdir.ChunkDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".liftlog", "chunks"), chunks)

	info, err := os.Stat(chunks)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	db, err := workdir.Resolve("", workdir.DBFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".liftlog", "liftlog.db"), db)

	db, err = workdir.Resolve("/tmp/other.db", workdir.DBFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.db", db)
}
