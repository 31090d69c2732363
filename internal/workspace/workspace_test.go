package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackshift/internal/lang"
	"stackshift/internal/migration"
)

func seedProject(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"project/src/pages/Home.jsx":        "export default function Home() { return <h1>Home</h1>; }\n",
		"project/src/components/Button.tsx": "export const Button = () => <button>go</button>;\n",
		"project/src/styles/app.css":        ".btn { color: red; }\n",
		"project/package.json":              `{"name": "demo-app"}`,
		"project/index.html":                "<html></html>\n",
		"project/vite.config.js":            "export default {};\n",
		"project/README.md":                 "# demo\n",
		"project/package-lock.json":         "{}",

		"project/node_modules/react/index.js": "module.exports = {};\n",
		"project/dist/bundle.js":              "!function(){}();\n",
		"project/.git/config":                 "[core]\n",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestCrawlerCollectsMigratableFiles(t *testing.T) {
	fs := seedProject(t)
	crawler := NewCrawler(fs, lang.DefaultRegistry())

	files, err := crawler.Collect("project")
	require.NoError(t, err)

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	assert.Contains(t, paths, "src/pages/Home.jsx")
	assert.Contains(t, paths, "src/components/Button.tsx")
	assert.Contains(t, paths, "src/styles/app.css")
	assert.Contains(t, paths, "package.json")
	assert.Contains(t, paths, "index.html")
	assert.Contains(t, paths, "vite.config.js")

	assert.NotContains(t, paths, "README.md")
	assert.NotContains(t, paths, "package-lock.json")
	assert.NotContains(t, paths, "node_modules/react/index.js")
	assert.NotContains(t, paths, "dist/bundle.js")
	assert.NotContains(t, paths, ".git/config")
}

func TestCrawlerReadsContent(t *testing.T) {
	fs := seedProject(t)
	crawler := NewCrawler(fs, lang.DefaultRegistry())

	files, err := crawler.Collect("project")
	require.NoError(t, err)

	byPath := make(map[string]string, len(files))
	for _, f := range files {
		byPath[f.Path] = f.Content
	}
	assert.Contains(t, byPath["src/pages/Home.jsx"], "function Home()")
}

func TestCrawlerStopsOnCallbackError(t *testing.T) {
	fs := seedProject(t)
	crawler := NewCrawler(fs, lang.DefaultRegistry())

	boom := errors.New("boom")
	seen := 0
	err := crawler.Scan("project", func(migration.FileRecord) error {
		seen++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, seen)
}

func TestWriterAppliesNestedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	writer := NewWriter(fs)

	err := writer.Apply("out", map[string]string{
		"pages/index.jsx": "export default function Home() {}\n",
		"pages/about.jsx": "export default function About() {}\n",
		"styles/app.css":  ".btn { color: red; }\n",
		"next.config.js":  "module.exports = {};\n",
		"pages/api/a.js":  "export default function handler() {}\n",
	})
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, "out/pages/index.jsx")
	require.NoError(t, err)
	assert.Contains(t, string(content), "function Home")

	content, err = afero.ReadFile(fs, "out/pages/api/a.js")
	require.NoError(t, err)
	assert.Contains(t, string(content), "handler")

	// No temp files should survive a clean apply.
	entries, err := afero.ReadDir(fs, "out/pages")
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestWriterOverwritesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "out/pages/index.jsx", []byte("old"), 0o644))

	writer := NewWriter(fs)
	err := writer.Apply("out", map[string]string{"pages/index.jsx": "new"})
	require.NoError(t, err)

	content, err := afero.ReadFile(fs, "out/pages/index.jsx")
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestWriterRemoveIgnoresMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "project/vite.config.js", []byte("export default {};"), 0o644))

	writer := NewWriter(fs)
	require.NoError(t, writer.Remove("project", []string{"vite.config.js", "never-existed.js"}))

	exists, err := afero.Exists(fs, "project/vite.config.js")
	require.NoError(t, err)
	assert.False(t, exists)

	// A second pass over the same paths converges without error.
	require.NoError(t, writer.Remove("project", []string{"vite.config.js"}))
}

func TestFetcherReadsProjectFiles(t *testing.T) {
	fs := seedProject(t)
	fetcher := NewFetcher(fs, "project")

	manifest, err := fetcher.Fetch(context.Background(), "package.json")
	require.NoError(t, err)
	assert.Contains(t, manifest, "demo-app")

	_, err = fetcher.Fetch(context.Background(), "missing.json")
	assert.Error(t, err)
}

func TestParseNameStatus(t *testing.T) {
	output := []byte("M\tsrc/pages/Home.jsx\n" +
		"A\tsrc/components/Button.tsx\n" +
		"D\tsrc/old/Removed.jsx\n" +
		"R100\tsrc/App.jsx\tsrc/pages/App.jsx\n")

	paths := parseNameStatus(output)
	assert.Equal(t, []string{
		"src/pages/Home.jsx",
		"src/components/Button.tsx",
		"src/pages/App.jsx",
	}, paths)
}

func TestFilterChanged(t *testing.T) {
	all := []migration.FileRecord{
		{Path: "src/pages/Home.jsx"},
		{Path: "src/pages/About.jsx"},
		{Path: "package.json"},
	}
	changed := []string{"src/pages/About.jsx", "src/untracked.jsx"}

	kept := FilterChanged(all, changed)
	require.Len(t, kept, 1)
	assert.Equal(t, "src/pages/About.jsx", kept[0].Path)
}
