package lang

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Profile binds a language name to its tree-sitter grammar and the file
// extensions it claims. New source languages are added by registering a
// profile, never by branching pipeline code.
type Profile struct {
	Name       string
	Language   *sitter.Language
	Extensions []string
}

// Registry maps language names and file extensions to grammar profiles.
type Registry struct {
	byName map[string]*Profile
	byExt  map[string]*Profile
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Profile),
		byExt:  make(map[string]*Profile),
	}
}

// Register adds a profile. A later registration for the same name or
// extension replaces the earlier one.
func (r *Registry) Register(p Profile) {
	prof := &p
	r.byName[strings.ToLower(p.Name)] = prof
	for _, ext := range p.Extensions {
		r.byExt[strings.ToLower(ext)] = prof
	}
}

// Profile returns the profile registered under the given language name.
func (r *Registry) Profile(name string) (*Profile, error) {
	p, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("no grammar profile registered for language %q", name)
	}
	return p, nil
}

// ProfileForPath picks a profile by file extension, so a .tsx file in a
// javascript job still parses with the grammar that understands it.
func (r *Registry) ProfileForPath(path string) (*Profile, bool) {
	p, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return p, ok
}

// Supports reports whether any registered profile claims the file extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.ProfileForPath(path)
	return ok
}

// Extensions returns every extension claimed by a registered profile.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

// DefaultRegistry returns a registry with the JavaScript grammar family
// pre-registered: plain JavaScript (JSX included), TypeScript, and TSX.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Profile{
		Name:       "javascript",
		Language:   javascript.GetLanguage(),
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
	})
	r.Register(Profile{
		Name:       "typescript",
		Language:   typescript.GetLanguage(),
		Extensions: []string{".ts", ".mts", ".cts"},
	})
	r.Register(Profile{
		Name:       "tsx",
		Language:   tsx.GetLanguage(),
		Extensions: []string{".tsx"},
	})
	return r
}
