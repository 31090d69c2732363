package migration

import (
	"path/filepath"
	"strings"
)

// FileType classifies what role a file plays in the application. The
// orchestrator uses it to decide which validation stages apply and whether
// the semantic pass is worth running.
type FileType string

const (
	FileTypePage      FileType = "page"
	FileTypeComponent FileType = "component"
	FileTypeLayout    FileType = "layout"
	FileTypeAPI       FileType = "api"
	FileTypeUtil      FileType = "util"
	FileTypeConfig    FileType = "config"
	FileTypeTest      FileType = "test"
	FileTypeModule    FileType = "module"
)

// IsSource reports whether files of this type contain application source code
// that structural validation and equivalence checking apply to. Config and
// plain-data modules are excluded; the old-framework-reference scan still runs
// on them.
func (t FileType) IsSource() bool {
	switch t {
	case FileTypeConfig, FileTypeModule:
		return false
	}
	return true
}

// configNames are exact file names that always classify as configuration.
var configNames = map[string]bool{
	"package.json":      true,
	"tsconfig.json":     true,
	"jsconfig.json":     true,
	".babelrc":          true,
	".eslintrc":         true,
	".eslintrc.json":    true,
	"next.config.js":    true,
	"next.config.mjs":   true,
	"vite.config.js":    true,
	"vite.config.ts":    true,
	"webpack.config.js": true,
	"babel.config.js":   true,
}

// InferFileType classifies a file from its path and, when available, a peek
// at its content. Order matters: tests and configuration win over directory
// conventions, and a capitalized default export with markup is enough to call
// something a component even outside components/.
func InferFileType(path, content string) FileType {
	slash := filepath.ToSlash(path)
	base := filepath.Base(slash)
	lower := strings.ToLower(slash)

	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") ||
		strings.Contains(lower, "__tests__/") {
		return FileTypeTest
	}

	if configNames[base] || strings.HasSuffix(base, ".config.js") ||
		strings.HasSuffix(base, ".config.ts") || strings.HasSuffix(base, ".rc") {
		return FileTypeConfig
	}
	switch filepath.Ext(base) {
	case ".json", ".yaml", ".yml", ".toml":
		return FileTypeConfig
	}

	if containsDir(lower, "api") {
		return FileTypeAPI
	}
	if containsDir(lower, "layouts") || strings.HasPrefix(base, "layout.") {
		return FileTypeLayout
	}
	if containsDir(lower, "pages") || containsDir(lower, "views") || containsDir(lower, "routes") {
		return FileTypePage
	}
	if containsDir(lower, "components") {
		return FileTypeComponent
	}
	if containsDir(lower, "utils") || containsDir(lower, "lib") || containsDir(lower, "helpers") || containsDir(lower, "hooks") {
		return FileTypeUtil
	}

	// Content peek: JSX markup plus an exported capitalized symbol reads as a component.
	if looksLikeComponent(content) {
		return FileTypeComponent
	}

	return FileTypeModule
}

func containsDir(lowerPath, dir string) bool {
	return strings.Contains(lowerPath, "/"+dir+"/") || strings.HasPrefix(lowerPath, dir+"/")
}

func looksLikeComponent(content string) bool {
	if !strings.Contains(content, "</") && !strings.Contains(content, "/>") {
		return false
	}
	idx := strings.Index(content, "export default ")
	if idx < 0 {
		return false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(content[idx:], "export default "))
	rest = strings.TrimPrefix(rest, "function ")
	return len(rest) > 0 && rest[0] >= 'A' && rest[0] <= 'Z'
}
