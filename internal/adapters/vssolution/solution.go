// Package vssolution reads Visual Studio solutions (.sln) and the C/C++
// projects (.vcxproj) they reference.
package vssolution

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/corey/idebridge/internal/ports"
)

// solutionFolderType is the project type GUID of virtual solution folders.
const solutionFolderType = "2150E333-8FDC-42A3-9474-1A3956D46DE8"

// Project("{type}") = "Name", "relative\path.vcxproj", "{guid}"
var projectLine = regexp.MustCompile(`^Project\("\{([^}]+)\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"\{([^}]+)\}"`)

// ProjectRef is one Project entry of a solution file.
type ProjectRef struct {
	TypeGUID string
	Name     string
	Path     string // as written in the solution, usually backslash-separated
	GUID     string
}

// Parser implements ports.SolutionParser for Visual Studio solutions.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a solution parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// OpenSolution reads the solution at slnPath and every C/C++ project it
// lists. Projects that are missing or unreadable are skipped with a warning.
// A relative slnPath is resolved against the working directory.
func (p *Parser) OpenSolution(slnPath string) (*ports.Solution, error) {
	if abs, err := filepath.Abs(slnPath); err == nil {
		slnPath = abs
	}
	refs, err := ReadProjectRefs(slnPath)
	if err != nil {
		return nil, err
	}

	slnFile := normalizePath(slnPath)
	slnDir := dirWithSlash(slnFile)
	base := path.Base(slnFile)
	sln := &ports.Solution{
		Name:     strings.TrimSuffix(base, path.Ext(base)),
		RootPath: slnDir,
	}

	items := newOrderedSet()
	includes := newOrderedSet()
	for _, ref := range refs {
		if strings.EqualFold(ref.TypeGUID, solutionFolderType) {
			continue
		}
		projFile := resolve(slnDir, ref.Path)
		if !strings.EqualFold(path.Ext(projFile), ".vcxproj") {
			p.logger.Debug("skipping non C/C++ project", "project", ref.Name, "path", projFile)
			continue
		}
		proj, err := readProject(projFile)
		if err != nil {
			p.logger.Warn("skipping unreadable project", "project", ref.Name, "path", projFile, "error", err)
			continue
		}
		macros := map[string]string{
			"SolutionDir":  slnDir,
			"SolutionName": sln.Name,
			"ProjectDir":   dirWithSlash(projFile),
			"ProjectName":  ref.Name,
		}
		for _, item := range proj.items() {
			items.add(resolve(macros["ProjectDir"], item))
		}
		for _, dir := range proj.includeDirectories() {
			expanded, ok := expandMacros(dir, macros)
			if !ok {
				p.logger.Debug("dropping include directory with unknown macro", "project", ref.Name, "entry", dir)
				continue
			}
			includes.add(strings.TrimSuffix(resolve(macros["ProjectDir"], expanded), "/"))
		}
	}

	sln.ProjectItems = items.values()
	sln.IncludePaths = includes.values()
	return sln, nil
}

// ReadProjectRefs lists the Project entries of a solution file in file order.
func ReadProjectRefs(slnPath string) ([]ProjectRef, error) {
	f, err := os.Open(slnPath)
	if err != nil {
		return nil, fmt.Errorf("open solution: %w", err)
	}
	defer f.Close()

	var refs []ProjectRef
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		m := projectLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		refs = append(refs, ProjectRef{TypeGUID: m[1], Name: m[2], Path: m[3], GUID: m[4]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read solution %s: %w", slnPath, err)
	}
	return refs, nil
}

var macroRef = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// expandMacros substitutes known $(Name) references. It reports false when
// the entry still references an unknown macro or is item metadata like
// %(AdditionalIncludeDirectories).
func expandMacros(s string, macros map[string]string) (string, bool) {
	if strings.Contains(s, "%(") {
		return "", false
	}
	ok := true
	out := macroRef.ReplaceAllStringFunc(s, func(ref string) string {
		name := macroRef.FindStringSubmatch(ref)[1]
		v, found := macros[name]
		if !found {
			ok = false
		}
		return v
	})
	return out, ok && strings.TrimSpace(out) != ""
}

var drivePath = regexp.MustCompile(`^[A-Za-z]:/`)

// normalizePath converts backslashes to slashes and cleans the result.
func normalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(strings.TrimSpace(p), `\`, "/"))
}

// resolve joins p onto base unless p is already absolute (posix or drive).
func resolve(base, p string) string {
	p = normalizePath(p)
	if path.IsAbs(p) || drivePath.MatchString(p) {
		return p
	}
	return path.Join(base, p)
}

func dirWithSlash(file string) string {
	dir := path.Dir(file)
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}

// orderedSet keeps first-seen order and drops case-insensitive duplicates,
// matching Windows path semantics.
type orderedSet struct {
	seen  map[string]bool
	order []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

func (s *orderedSet) add(v string) {
	key := strings.ToLower(v)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.order = append(s.order, v)
}

func (s *orderedSet) values() []string {
	return s.order
}
