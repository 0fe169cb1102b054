package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownFiles(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("# x"), 0o644))
	}
	write("a.md")
	write("sub/b.MARKDOWN")
	write("sub/c.txt")
	write(".obsidian/d.md")

	files, err := markdownFiles(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.md"),
		filepath.Join(root, "sub", "b.MARKDOWN"),
	}, files)
}

func TestMarkdownFilesMissingDir(t *testing.T) {
	_, err := markdownFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, optionalString(""))
	if s := optionalString("f1"); assert.NotNil(t, s) {
		assert.Equal(t, "f1", *s)
	}
}
