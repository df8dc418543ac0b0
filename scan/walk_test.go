package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(root string, skip SkipFunc) map[string]EntryKind {
	out := make(map[string]EntryKind)
	for entry := range Walk(root, skip) {
		out[entry.Path] = entry.Kind
	}
	return out
}

func Test_Walk_ClassifiesEntries(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "sub/a.txt", "x")
	link := filepath.Join(root, "link")
	hasLink := os.Symlink(file, link) == nil

	entries := collect(root, nil)
	assert.Equal(t, KindDirectory, entries[root])
	assert.Equal(t, KindDirectory, entries[filepath.Join(root, "sub")])
	assert.Equal(t, KindFile, entries[file])
	if hasLink {
		assert.Equal(t, KindSymlink, entries[link])
	}
}

func Test_Walk_SkipPrunesSubtreeButNeverRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.js", "x")
	keep := writeFile(t, root, "main.go", "x")

	entries := collect(root, func(path string, isDir bool) bool { return true })
	assert.Equal(t, map[string]EntryKind{root: KindDirectory}, entries)

	entries = collect(root, func(path string, isDir bool) bool {
		return isDir && filepath.Base(path) == "node_modules"
	})
	assert.Contains(t, entries, keep)
	assert.NotContains(t, entries, filepath.Join(root, "node_modules"))
	assert.NotContains(t, entries, filepath.Join(root, "node_modules", "pkg", "index.js"))
}

func Test_Walk_StopsWhenConsumerBreaks(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c", "d"} {
		writeFile(t, root, name, "x")
	}

	count := 0
	for range Walk(root, nil) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func Test_Walk_MissingRootYieldsNothing(t *testing.T) {
	entries := collect(filepath.Join(t.TempDir(), "missing"), nil)
	require.Empty(t, entries)
}

func Test_EntryKind_String(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "directory", KindDirectory.String())
	assert.Equal(t, "symlink", KindSymlink.String())
	assert.Equal(t, "other", KindOther.String())
}
