// Package modresolve maps dotted Python module names to source files
// across a set of search-path roots, the same glob-driven discovery this
// codebase uses to enumerate a project's files, adapted to resolve one
// name at a time rather than walking the whole tree up front.
package modresolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/basalt-sh/tycore/pkg/ids"
	"github.com/basalt-sh/tycore/pkg/symbols"
)

// StubLookup is the minimal surface a stub/builtin catalog must expose for
// modresolve to fall back to it when a dotted name has no source file on
// any search-path root. pkg/stubcatalog.Catalog implements this.
type StubLookup interface {
	HasModule(name string) bool
}

// module is the concrete symbols.Module Resolver hands back.
type module struct {
	file ids.FileId
	name string
}

func (m module) File() ids.FileId   { return m.file }
func (m module) DottedName() string { return m.name }

// Resolver resolves dotted module names against a fixed set of search-path
// roots, interning each distinct resolved path to a stable FileId. A given
// Resolver must be used for the lifetime of one Engine: FileIds it hands
// out are only meaningful relative to the interning table held inside it.
type Resolver struct {
	roots   []string
	stubs   StubLookup
	exclude []string

	mu     sync.Mutex
	byPath map[string]ids.FileId
	pathOf map[ids.FileId]string
	nextID uint32
}

// NewResolver creates a Resolver searching roots in order; the first root
// containing a match wins. Relative roots are resolved against the
// current working directory at construction time.
func NewResolver(roots []string) (*Resolver, error) {
	abs := make([]string, 0, len(roots))
	for _, r := range roots {
		a, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("modresolve: resolving root %q: %w", r, err)
		}
		abs = append(abs, a)
	}
	return &Resolver{
		roots:  abs,
		byPath: make(map[string]ids.FileId),
		pathOf: make(map[ids.FileId]string),
	}, nil
}

// WithStubs attaches a fallback stub/builtin catalog, consulted only when
// no search-path root has a matching source file.
func (r *Resolver) WithStubs(stubs StubLookup) *Resolver {
	r.stubs = stubs
	return r
}

// WithExclude attaches doublestar glob patterns, matched against each
// candidate file's path relative to the root it was found under; a match
// makes Resolve skip that root for the current name as if the file were
// absent, the same include/exclude filtering this codebase applies before
// walking a tree. Patterns should already be validated with ValidateGlobs.
func (r *Resolver) WithExclude(patterns []string) *Resolver {
	r.exclude = patterns
	return r
}

// Resolve maps name to its defining file. ok is false, with a nil error,
// when name cannot be found anywhere — that is a normal, expected outcome
// for a module the analysis doesn't have source for.
func (r *Resolver) Resolve(name symbols.ModuleName) (symbols.Module, bool, error) {
	segments := strings.Split(string(name), ".")
	relPkg := filepath.Join(segments...)

	for _, root := range r.roots {
		pkgInitRel := filepath.Join(relPkg, "__init__.py")
		if path, ok := statFile(filepath.Join(root, pkgInitRel)); ok && !r.excluded(pkgInitRel) {
			return module{file: r.intern(path), name: string(name)}, true, nil
		}

		modFileRel := relPkg + ".py"
		if path, ok := statFile(filepath.Join(root, modFileRel)); ok && !r.excluded(modFileRel) {
			return module{file: r.intern(path), name: string(name)}, true, nil
		}
	}

	if r.stubs != nil && r.stubs.HasModule(string(name)) {
		return module{file: r.intern("<stub>:" + string(name)), name: string(name)}, true, nil
	}

	return nil, false, nil
}

// excluded reports whether relPath (forward-slashed, relative to a search
// root) matches any configured exclude glob.
func (r *Resolver) excluded(relPath string) bool {
	if len(r.exclude) == 0 {
		return false
	}
	slashed := filepath.ToSlash(relPath)
	for _, pattern := range r.exclude {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

// PathFor returns the filesystem path a previously resolved FileId came
// from. Returns false for a synthetic stub FileId.
func (r *Resolver) PathFor(file ids.FileId) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.pathOf[file]
	if !ok || strings.HasPrefix(path, "<stub>:") {
		return "", false
	}
	return path, true
}

// FileIDForPath returns the FileId previously interned for path, if any
// module resolution has touched it.
func (r *Resolver) FileIDForPath(path string) (ids.FileId, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byPath[abs]
	return id, ok
}

// StubName returns the dotted module name behind a synthetic stub FileId,
// if file was resolved via the stub fallback rather than a source file.
func (r *Resolver) StubName(file ids.FileId) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.pathOf[file]
	if !ok || !strings.HasPrefix(path, "<stub>:") {
		return "", false
	}
	return strings.TrimPrefix(path, "<stub>:"), true
}

func (r *Resolver) intern(path string) ids.FileId {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byPath[path]; ok {
		return id
	}
	r.nextID++
	id := ids.FileId(r.nextID)
	r.byPath[path] = id
	r.pathOf[id] = path
	return id
}

func statFile(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// ValidateGlobs checks that every pattern in patterns is a well-formed
// doublestar glob, the same validation this codebase applies before using
// include/exclude patterns to walk a tree.
func ValidateGlobs(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("modresolve: invalid glob pattern: %s", p)
		}
	}
	return nil
}
