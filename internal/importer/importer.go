// Package importer resolves import paths to parsed terms and caches
// them by file id, so that importing the same file twice from
// different call sites evaluates it once.
package importer

import (
	"fmt"
	"sync"

	"github.com/quill-lang/quill/internal/core/term"
)

// Resolver turns an import path into a parsed term, exactly once per
// path: repeated imports of the same path return the same cached term
// and file id.
type Resolver interface {
	// Resolve maps path to a stable file id, parsing and caching the
	// file's contents the first time path is seen.
	Resolve(path string) (fileID int, err error)
	// Get returns the parsed term for a file id previously returned by
	// Resolve.
	Get(fileID int) (term.Term, error)
}

// Loader is a reference in-memory Resolver: files are supplied up
// front (e.g. read from disk by the caller, or held purely in memory
// for tests) rather than loaded lazily from a filesystem, keeping this
// package free of any I/O policy decisions the embedding application
// should own.
type Loader struct {
	mu    sync.Mutex
	files map[string]int
	terms []term.Term
	names []string
}

// NewLoader returns an empty Loader.
func NewLoader() *Loader {
	return &Loader{files: map[string]int{}}
}

// Add registers path with its already-parsed contents, returning the
// file id Resolve will hand back for that path. Call this before
// evaluation begins for every file the program might import.
func (l *Loader) Add(path string, t term.Term) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, ok := l.files[path]; ok {
		l.terms[id] = t
		return id
	}
	id := len(l.terms)
	l.files[path] = id
	l.terms = append(l.terms, t)
	l.names = append(l.names, path)
	return id
}

func (l *Loader) Resolve(path string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.files[path]
	if !ok {
		return 0, fmt.Errorf("import %q: not found", path)
	}
	return id, nil
}

func (l *Loader) Get(fileID int) (term.Term, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fileID < 0 || fileID >= len(l.terms) {
		return nil, fmt.Errorf("import: invalid file id %d", fileID)
	}
	return l.terms[fileID], nil
}

// Name returns the import path fileID was registered under, for error
// messages.
func (l *Loader) Name(fileID int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fileID < 0 || fileID >= len(l.names) {
		return "<unknown>"
	}
	return l.names[fileID]
}
