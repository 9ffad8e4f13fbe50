package treesitter

import (
	"path/filepath"
	"strings"
)

// extToLang maps lowercase file extensions to grammar names.
var extToLang = map[string]string{
	".c":    "c",
	".h":    "cpp",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cxx":  "cpp",
	".c++":  "cpp",
	".hpp":  "cpp",
	".hh":   "cpp",
	".hxx":  "cpp",
	".h++":  "cpp",
	".inl":  "cpp",
	".ipp":  "cpp",
	".cu":   "cuda",
	".cuh":  "cuda",
	".cs":   "c_sharp",
	".go":   "go",
	".rs":   "rust",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
}

// fallbacks names a grammar that can stand in when a language has none
// installed. C++ parses nearly all C and CUDA host code.
var fallbacks = map[string]string{
	"c":    "cpp",
	"cuda": "cpp",
}

// languageFor returns the grammar name for a file path, or "".
func languageFor(path string) string {
	return extToLang[strings.ToLower(filepath.Ext(path))]
}

// scopeKinds are the brace-delimited node kinds that become scope records.
var scopeKinds = map[string]bool{
	"compound_statement":     true, // c, cpp: function and statement bodies
	"field_declaration_list": true, // c, cpp: struct/class bodies
	"declaration_list":       true, // cpp namespaces, c# and rust item lists
	"enumerator_list":        true,
	"block":                  true, // go, rust, java, c#
	"statement_block":        true, // javascript, typescript
	"class_body":             true,
	"interface_body":         true,
}

// extraTokenKinds are selectable named nodes whose kind does not end in
// "identifier".
var extraTokenKinds = map[string]bool{
	"destructor_name": true,
	"operator_name":   true,
}

func isTokenKind(kind string) bool {
	return strings.HasSuffix(kind, "identifier") || extraTokenKinds[kind]
}
