package treesitter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// GrammarLoader opens tree-sitter grammars built as shared libraries and
// resolves their tree_sitter_<lang> entry point with purego. Both the plain
// form (cpp.so) and the tree-sitter CLI form (libtree-sitter-cpp.so) are
// recognized. The first directory holding a library wins.
type GrammarLoader struct {
	dirs []string

	mu     sync.Mutex
	loaded map[string]*tree_sitter.Language
}

// NewGrammarLoader creates a loader over dirs, searched in order.
func NewGrammarLoader(dirs []string) *GrammarLoader {
	return &GrammarLoader{
		dirs:   dirs,
		loaded: make(map[string]*tree_sitter.Language),
	}
}

// DefaultGrammarPaths returns the default grammar directories: project-local
// .idebridge/grammars/ first, then ~/.idebridge/grammars/.
func DefaultGrammarPaths(projectRoot string) []string {
	var paths []string
	if projectRoot != "" {
		paths = append(paths, filepath.Join(projectRoot, ".idebridge", "grammars"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".idebridge", "grammars"))
	}
	return paths
}

// LibSuffix is the shared library suffix of the current platform.
func LibSuffix() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

// SymbolName is the exported C function returning lang's TSLanguage.
func SymbolName(lang string) string {
	return "tree_sitter_" + strings.ReplaceAll(lang, "-", "_")
}

// libraryNames lists the file names a grammar for lang may be installed as.
func libraryNames(lang string) []string {
	return []string{
		lang + LibSuffix(),
		"libtree-sitter-" + lang + LibSuffix(),
	}
}

// langFromLibrary is the inverse of libraryNames.
func langFromLibrary(name string) (string, bool) {
	base, ok := strings.CutSuffix(name, LibSuffix())
	if !ok || base == "" {
		return "", false
	}
	if lang, ok := strings.CutPrefix(base, "libtree-sitter-"); ok {
		return lang, lang != ""
	}
	return base, true
}

// Find returns the library file for lang, or "" when none is installed.
func (gl *GrammarLoader) Find(lang string) string {
	for _, dir := range gl.dirs {
		for _, name := range libraryNames(lang) {
			p := filepath.Join(dir, name)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p
			}
		}
	}
	return ""
}

// Load opens the grammar for lang. Successful loads are cached; failures are
// not, so each call after a failure searches the grammar dirs again.
func (gl *GrammarLoader) Load(lang string) (*tree_sitter.Language, error) {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	if l, ok := gl.loaded[lang]; ok {
		return l, nil
	}

	lib := gl.Find(lang)
	if lib == "" {
		return nil, fmt.Errorf("grammar %q: no library in %s", lang, strings.Join(gl.dirs, string(os.PathListSeparator)))
	}

	handle, err := purego.Dlopen(lib, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("grammar %q: dlopen %s: %w", lang, lib, err)
	}

	sym, err := purego.Dlsym(handle, SymbolName(lang))
	if err != nil {
		return nil, fmt.Errorf("grammar %q: %s: %w", lang, SymbolName(lang), err)
	}
	var entry func() uintptr
	purego.RegisterFunc(&entry, sym)

	ptr := entry()
	if ptr == 0 {
		return nil, fmt.Errorf("grammar %q: %s() returned null", lang, SymbolName(lang))
	}

	// The TSLanguage is static data inside the library, which stays mapped
	// for the life of the process.
	l := tree_sitter.NewLanguage(*(*unsafe.Pointer)(unsafe.Pointer(&ptr)))
	gl.loaded[lang] = l
	return l, nil
}

// Available lists the languages with an installed library, sorted.
func (gl *GrammarLoader) Available() []string {
	seen := make(map[string]bool)
	for _, dir := range gl.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if lang, ok := langFromLibrary(e.Name()); ok {
				seen[lang] = true
			}
		}
	}
	langs := make([]string, 0, len(seen))
	for l := range seen {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// Dirs returns the directories searched for libraries.
func (gl *GrammarLoader) Dirs() []string {
	return gl.dirs
}
