// Package planner decides the file-structure side of a migration before
// any content is rewritten: which files move to the target layout, which
// scaffold files the target expects, and which source-only files have no
// equivalent and should be dropped. The content pipeline consumes the
// plan; it never decides structure itself.
package planner

import (
	"context"
	"fmt"
	"path"
	"strings"

	"stackshift/internal/migration"
)

// Scaffold is one file the target layout expects to exist.
type Scaffold struct {
	Path     string
	FileType migration.FileType
	Reason   string
}

// Conventions captures the target layout: how paths relocate, what gets
// scaffolded, and what gets dropped. The planner iterates this data and
// never branches on framework names.
type Conventions struct {
	// StripPrefixes are directory prefixes removed during relocation.
	StripPrefixes []string
	// PagesDir is where page files land ("pages" or "app").
	PagesDir string
	// AppRouter switches page relocation to directory-per-route with a
	// fixed page file name, and api routes to route handlers.
	AppRouter bool
	// Deletions are exact relative paths or base names with no target
	// equivalent.
	Deletions []string
	// Scaffolds are created when the batch does not already produce them.
	Scaffolds []Scaffold
}

// NextConventions returns the react -> next.js layout conventions.
// fileStructure selects the router flavor: "app" for the app router,
// anything else for the pages router.
func NextConventions(fileStructure string) Conventions {
	appRouter := strings.EqualFold(fileStructure, "app") || strings.EqualFold(fileStructure, "app-router")

	c := Conventions{
		StripPrefixes: []string{"src/"},
		PagesDir:      "pages",
		AppRouter:     appRouter,
		Deletions: []string{
			"index.html",
			"public/index.html",
			"src/main.jsx",
			"src/main.tsx",
			"src/index.jsx",
			"src/index.tsx",
			"src/index.js",
			"vite.config.js",
			"vite.config.ts",
			"webpack.config.js",
			".babelrc",
		},
		Scaffolds: []Scaffold{
			{Path: "next.config.js", FileType: migration.FileTypeConfig, Reason: "build configuration for the target framework"},
			{Path: "jsconfig.json", FileType: migration.FileTypeConfig, Reason: "path aliases for relocated imports"},
		},
	}
	if appRouter {
		c.PagesDir = "app"
		c.Scaffolds = append(c.Scaffolds,
			Scaffold{Path: "app/layout.jsx", FileType: migration.FileTypeLayout, Reason: "root layout required by the app router"})
	} else {
		c.Scaffolds = append(c.Scaffolds,
			Scaffold{Path: "pages/_app.jsx", FileType: migration.FileTypeLayout, Reason: "application shell for the pages router"})
	}
	return c
}

// Planner plans structure changes for one target convention set.
type Planner struct {
	conv Conventions
}

// New builds a planner over the given conventions.
func New(conv Conventions) *Planner {
	return &Planner{conv: conv}
}

// ForSpec picks conventions from the specification's target stack.
// Unknown targets get a zero convention set, which plans nothing.
func ForSpec(spec *migration.Specification) *Planner {
	target := strings.ToLower(strings.ReplaceAll(spec.Target.Framework, ".", ""))
	if target == "nextjs" || target == "next" {
		return New(NextConventions(spec.Target.FileStructure))
	}
	return New(Conventions{})
}

// Plan maps every input file to a structure action. Files already in
// place yield no action; the returned slice carries moves and deletes
// for inputs plus creates for missing scaffolds. Two inputs mapping to
// the same target path is a planning error.
func (p *Planner) Plan(_ context.Context, _ *migration.Specification, files []migration.FileRecord) ([]migration.PlanAction, error) {
	var actions []migration.PlanAction
	occupied := make(map[string]string, len(files))

	for _, f := range files {
		rel := path.Clean(strings.TrimPrefix(f.Path, "./"))
		ftype := migration.InferFileType(rel, f.Content)

		if p.deleted(rel) {
			actions = append(actions, migration.PlanAction{
				Action:       migration.PlanDelete,
				OriginalPath: rel,
				FileType:     ftype,
				Metadata:     map[string]string{"reason": "no equivalent in the target layout"},
			})
			continue
		}

		newPath := p.relocate(rel, ftype)
		if prev, taken := occupied[newPath]; taken {
			return nil, fmt.Errorf("conflicting targets: %s and %s both map to %s", prev, rel, newPath)
		}
		occupied[newPath] = rel
		if newPath == rel {
			continue
		}
		actions = append(actions, migration.PlanAction{
			Action:       migration.PlanMove,
			OriginalPath: rel,
			NewPath:      newPath,
			FileType:     ftype,
		})
	}

	for _, sc := range p.conv.Scaffolds {
		if _, taken := occupied[sc.Path]; taken {
			continue
		}
		actions = append(actions, migration.PlanAction{
			Action:   migration.PlanCreate,
			NewPath:  sc.Path,
			FileType: sc.FileType,
			Metadata: map[string]string{"reason": sc.Reason},
		})
	}
	return actions, nil
}

func (p *Planner) deleted(rel string) bool {
	base := path.Base(rel)
	for _, d := range p.conv.Deletions {
		if rel == d || base == d {
			return true
		}
	}
	return false
}

// relocate maps one path into the target layout. Non-source files and
// files the conventions do not speak to stay put.
func (p *Planner) relocate(rel string, ftype migration.FileType) string {
	stripped := rel
	for _, prefix := range p.conv.StripPrefixes {
		stripped = strings.TrimPrefix(stripped, prefix)
	}

	switch ftype {
	case migration.FileTypePage:
		return p.relocatePage(stripped)
	case migration.FileTypeAPI:
		return p.relocateAPI(stripped)
	case migration.FileTypeLayout, migration.FileTypeComponent,
		migration.FileTypeUtil, migration.FileTypeTest:
		return stripped
	}

	// Stylesheets follow the source tree out of src/; configs and plain
	// modules keep their place.
	if strings.HasSuffix(stripped, ".css") || strings.HasSuffix(stripped, ".scss") {
		return stripped
	}
	return rel
}

// relocatePage puts a page file under the pages directory with a
// route-style name: Home becomes the index route, everything else its
// own lower-case route.
func (p *Planner) relocatePage(rel string) string {
	if p.conv.PagesDir == "" {
		return rel
	}
	dir, base := path.Split(rel)
	ext := path.Ext(base)
	name := strings.TrimSuffix(base, ext)

	sub := subRoute(dir)
	route := routeName(name)

	if p.conv.AppRouter {
		if route == "index" {
			return path.Join(p.conv.PagesDir, sub, "page"+ext)
		}
		return path.Join(p.conv.PagesDir, sub, route, "page"+ext)
	}
	return path.Join(p.conv.PagesDir, sub, route+ext)
}

func (p *Planner) relocateAPI(rel string) string {
	idx := strings.Index(rel, "api/")
	if idx < 0 {
		return rel
	}
	under := rel[idx+len("api/"):]
	if p.conv.AppRouter {
		ext := path.Ext(under)
		return path.Join(p.conv.PagesDir, "api", strings.TrimSuffix(under, ext), "route"+ext)
	}
	return path.Join("pages", "api", under)
}

// subRoute keeps nesting below a conventional pages/views/routes root so
// pages/admin/Users.jsx stays an admin route.
func subRoute(dir string) string {
	dir = strings.Trim(dir, "/")
	for _, root := range []string{"pages", "views", "routes"} {
		if dir == root {
			return ""
		}
		if strings.HasPrefix(dir, root+"/") {
			return strings.ToLower(dir[len(root)+1:])
		}
	}
	return ""
}

func routeName(name string) string {
	lower := strings.ToLower(name)
	if lower == "home" || lower == "index" || lower == "app" {
		return "index"
	}
	return lower
}
