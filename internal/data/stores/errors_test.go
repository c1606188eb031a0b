package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/colonyops/revthreads/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverFromCorruption_Success(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, db.FileName)

	require.NoError(t, os.WriteFile(dbPath, []byte("corrupted data"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal data"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-shm", []byte("shm data"), 0o644))

	backup, err := RecoverFromCorruption(tempDir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(backup), db.FileName+".corrupt."))
	for _, p := range []string{backup, backup + "-wal", backup + "-shm"} {
		_, err := os.Stat(p)
		assert.NoError(t, err, "backup %s should exist", p)
	}
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "original %s should be gone", p)
	}
}

func TestRecoverFromCorruption_MissingFile(t *testing.T) {
	tempDir := t.TempDir()

	_, err := RecoverFromCorruption(tempDir)
	require.NoError(t, err)

	files, _ := filepath.Glob(filepath.Join(tempDir, "*.corrupt.*"))
	assert.Empty(t, files)
}

func TestRecoverFromCorruption_WALWithoutDatabase(t *testing.T) {
	tempDir := t.TempDir()
	walPath := filepath.Join(tempDir, db.FileName) + "-wal"
	require.NoError(t, os.WriteFile(walPath, []byte("wal data"), 0o644))

	_, err := RecoverFromCorruption(tempDir)
	require.NoError(t, err)

	walBackups, _ := filepath.Glob(filepath.Join(tempDir, "*.corrupt.*-wal"))
	assert.Len(t, walBackups, 1)

	_, err = os.Stat(walPath)
	assert.True(t, os.IsNotExist(err))
}

func TestIsCorruptionError(t *testing.T) {
	assert.True(t, IsCorruptionError(errors.New("file is not a database")))
	assert.True(t, IsCorruptionError(fmt.Errorf("open: %w", errors.New("database disk image is malformed"))))
	assert.False(t, IsCorruptionError(errors.New("permission denied")))
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(fmt.Errorf("get: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(errors.New("other")))
	assert.False(t, IsBusyError(errors.New("other")))
}
