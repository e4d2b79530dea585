package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	sw, err := watchShaders(dir)
	require.NoError(t, err)
	defer sw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pbr.frag"), []byte("#version 450 core\n"), 0o644))

	var changed []string
	deadline := time.Now().Add(5 * time.Second)
	for len(changed) == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
		changed = sw.Changed()
	}
	require.NotEmpty(t, changed)
	assert.Equal(t, []string{"pbr.frag"}, changed)
}

func TestShaderWatcherChangedDoesNotBlock(t *testing.T) {
	sw, err := watchShaders(t.TempDir())
	require.NoError(t, err)
	defer sw.Close()

	assert.Empty(t, sw.Changed())
}

func TestShaderWatcherMissingDir(t *testing.T) {
	_, err := watchShaders(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
