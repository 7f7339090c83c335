package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPersistentServerID_Override(t *testing.T) {
	assert.Equal(t, "node-a", GetPersistentServerID(" node-a ", t.TempDir()))
}

func TestGetPersistentServerID_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".server_id"), []byte("engage-fixed\n"), 0644))

	assert.Equal(t, "engage-fixed", GetPersistentServerID("", dir))
}
