package treesitter

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	f.Close()
}

func TestSymbolName(t *testing.T) {
	assert.Equal(t, "tree_sitter_cpp", SymbolName("cpp"))
	assert.Equal(t, "tree_sitter_c_sharp", SymbolName("c_sharp"))
	assert.Equal(t, "tree_sitter_objective_c", SymbolName("objective-c"))
}

func TestLibSuffix(t *testing.T) {
	if runtime.GOOS == "darwin" {
		assert.Equal(t, ".dylib", LibSuffix())
	} else {
		assert.Equal(t, ".so", LibSuffix())
	}
}

func TestLangFromLibrary(t *testing.T) {
	ext := LibSuffix()
	tests := []struct {
		file string
		lang string
		ok   bool
	}{
		{"cuda" + ext, "cuda", true},
		{"libtree-sitter-cuda" + ext, "cuda", true},
		{"libtree-sitter-" + ext, "", false},
		{ext, "", false},
		{"notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			lang, ok := langFromLibrary(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.lang, lang)
		})
	}
}

func TestDefaultGrammarPaths(t *testing.T) {
	paths := DefaultGrammarPaths("/project/root")
	require.NotEmpty(t, paths)
	assert.Equal(t, filepath.Join("/project/root", ".idebridge", "grammars"), paths[0])

	if home, err := os.UserHomeDir(); err == nil {
		require.Len(t, paths, 2)
		assert.Equal(t, filepath.Join(home, ".idebridge", "grammars"), paths[1])
		assert.Equal(t, []string{paths[1]}, DefaultGrammarPaths(""))
	}
}

func TestGrammarLoader_LoadNotFound(t *testing.T) {
	gl := NewGrammarLoader([]string{"/nonexistent/path"})
	_, err := gl.Load("cuda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no library in /nonexistent/path")
}

func TestGrammarLoader_LoadNotALibrary(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "cuda"+LibSuffix()))

	gl := NewGrammarLoader([]string{dir})
	_, err := gl.Load("cuda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dlopen")
	assert.Empty(t, gl.loaded, "failures are not cached")
}

func TestGrammarLoader_Find(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "cuda"+LibSuffix())
	cli := filepath.Join(dir, "libtree-sitter-rust"+LibSuffix())
	touch(t, plain)
	touch(t, cli)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "go"+LibSuffix()), 0755))

	gl := NewGrammarLoader([]string{dir})
	assert.Equal(t, plain, gl.Find("cuda"))
	assert.Equal(t, cli, gl.Find("rust"))
	assert.Equal(t, "", gl.Find("go"), "directories are not libraries")
	assert.Equal(t, "", gl.Find("zig"))
}

func TestGrammarLoader_DirectoryPriority(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	first := filepath.Join(dir1, "libtree-sitter-rust"+LibSuffix())
	touch(t, first)
	touch(t, filepath.Join(dir2, "rust"+LibSuffix()))

	gl := NewGrammarLoader([]string{dir1, dir2})
	assert.Equal(t, first, gl.Find("rust"))
	assert.Equal(t, []string{dir1, dir2}, gl.Dirs())
}

func TestGrammarLoader_Available(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	ext := LibSuffix()
	touch(t, filepath.Join(dir1, "rust"+ext))
	touch(t, filepath.Join(dir1, "cuda"+ext))
	touch(t, filepath.Join(dir2, "libtree-sitter-rust"+ext))
	touch(t, filepath.Join(dir2, "notes.txt"))

	gl := NewGrammarLoader([]string{dir1, dir2, "/nonexistent"})
	assert.Equal(t, []string{"cuda", "rust"}, gl.Available())

	assert.Empty(t, NewGrammarLoader([]string{t.TempDir()}).Available())
}

func TestIndexer_RemembersMissingGrammar(t *testing.T) {
	dir := t.TempDir()
	ix := NewIndexer([]string{dir})
	assert.False(t, ix.HasLanguage("rust"))

	// Installing afterwards does not trigger another dlopen attempt.
	touch(t, filepath.Join(dir, "rust"+LibSuffix()))
	assert.False(t, ix.HasLanguage("rust"))
	assert.True(t, ix.missing["rust"])
	assert.Equal(t, []string{dir}, ix.loader.Dirs())
}

func TestIndexer_Languages(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "rust"+LibSuffix()))
	touch(t, filepath.Join(dir, "libtree-sitter-c"+LibSuffix()))

	ix := NewIndexer([]string{dir})
	langs := ix.Languages()
	assert.Contains(t, langs, "rust")
	assert.True(t, sort.StringsAreSorted(langs))
	for name := range builtinLanguages() {
		assert.Contains(t, langs, name)
	}
}
