package postprocess

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackshift/internal/engine"
	"stackshift/internal/migration"
)

func reactToNextSpec() *migration.Specification {
	return &migration.Specification{
		Source: migration.Stack{
			Language:  "javascript",
			Framework: "react",
			BuildTool: "vite",
		},
		Target: migration.Stack{
			Language:  "javascript",
			Framework: "nextjs",
			Version:   "14.2.0",
		},
		Mappings: migration.Mappings{
			BuildTool: map[string]string{"vite": "next"},
		},
		Rules: migration.Rules{
			MustRemove: []string{"react-router-dom", "@vitejs/plugin-react"},
		},
	}
}

func TestScaffoldsMaterializePlannedCreates(t *testing.T) {
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{},
		PlanActions: []migration.PlanAction{
			{Action: migration.PlanCreate, NewPath: "next.config.js", FileType: migration.FileTypeConfig},
			{Action: migration.PlanCreate, NewPath: "jsconfig.json", FileType: migration.FileTypeConfig},
			{Action: migration.PlanCreate, NewPath: "app/layout.jsx", FileType: migration.FileTypeComponent},
			{Action: migration.PlanMove, OriginalPath: "src/pages/Home.jsx", NewPath: "app/page.jsx"},
		},
	}

	err := NewScaffolds(nil).Process(context.Background(), reactToNextSpec(), batch)
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)

	cfg := batch.Results["next.config.js"]
	require.NotNil(t, cfg)
	assert.True(t, cfg.Success)
	assert.Contains(t, cfg.Code, "reactStrictMode")
	assert.Equal(t, float64(scaffoldConfidence), cfg.Metadata.Confidence)
	assert.NotEmpty(t, cfg.Diff)

	alias := batch.Results["jsconfig.json"]
	require.NotNil(t, alias)
	assert.Contains(t, alias.Code, `"@/*"`)

	layout := batch.Results["app/layout.jsx"]
	require.NotNil(t, layout)
	assert.Contains(t, layout.Code, "RootLayout")
}

func TestScaffoldsRespectExistingResults(t *testing.T) {
	existing := &engine.TransformResult{
		OriginalPath: "next.config.js",
		NewPath:      "next.config.js",
		Code:         "module.exports = { output: 'export' };\n",
		Success:      true,
	}
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{"next.config.js": existing},
		PlanActions: []migration.PlanAction{
			{Action: migration.PlanCreate, NewPath: "next.config.js"},
		},
	}

	err := NewScaffolds(nil).Process(context.Background(), reactToNextSpec(), batch)
	require.NoError(t, err)
	assert.Same(t, existing, batch.Results["next.config.js"])
	assert.Contains(t, existing.Code, "output")
}

func TestScaffoldsRejectUnknownTemplate(t *testing.T) {
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{},
		PlanActions: []migration.PlanAction{
			{Action: migration.PlanCreate, NewPath: "mystery.toml"},
		},
	}
	err := NewScaffolds(nil).Process(context.Background(), reactToNextSpec(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery.toml")
}

func TestStylesheetsDropDuplicateRules(t *testing.T) {
	sheet := `.btn { color: red; }

.card { padding: 4px; }

.btn { color: red; }
`
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{
			"styles/app.css": {
				OriginalPath: "styles/app.css",
				NewPath:      "styles/app.css",
				OriginalCode: sheet,
				Code:         sheet,
				Success:      true,
			},
		},
	}

	err := NewStylesheets().Process(context.Background(), reactToNextSpec(), batch)
	require.NoError(t, err)

	got := batch.Results["styles/app.css"]
	assert.Equal(t, 1, strings.Count(got.Code, ".btn"))
	assert.Equal(t, 1, strings.Count(got.Code, ".card"))
	assert.Contains(t, got.Metadata.Applied, "stylesheets: removed duplicate rules")
	assert.NotEmpty(t, got.Diff)
}

func TestStylesheetsKeepNestedBlocksTogether(t *testing.T) {
	sheet := `@media (max-width: 600px) { .btn { color: blue; } }

.btn { color: red; }
`
	got, removed := dedupeRules(sheet)
	assert.Zero(t, removed)
	assert.Equal(t, sheet, got)
}

func TestStylesheetsIgnoreSourceFiles(t *testing.T) {
	code := "export const A = 1;\nexport const A2 = 1;\n"
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{
			"src/util.js": {NewPath: "src/util.js", Code: code, OriginalCode: code},
		},
	}
	err := NewStylesheets().Process(context.Background(), reactToNextSpec(), batch)
	require.NoError(t, err)
	assert.Equal(t, code, batch.Results["src/util.js"].Code)
	assert.Empty(t, batch.Results["src/util.js"].Metadata.Applied)
}

func TestManifestRewritesScriptsAndDependencies(t *testing.T) {
	manifest := `{
  "name": "demo-app",
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "dev": "vite",
    "build": "vite build",
    "lint": "eslint ."
  },
  "dependencies": {
    "react": "^18.2.0",
    "react-dom": "^18.2.0",
    "react-router-dom": "^6.22.0"
  },
  "devDependencies": {
    "@vitejs/plugin-react": "^4.2.0",
    "vite": "^5.1.0"
  }
}
`
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{
			"package.json": {
				OriginalPath: "package.json",
				NewPath:      "package.json",
				OriginalCode: manifest,
				Code:         manifest,
				Success:      true,
			},
		},
	}

	err := NewManifest().Process(context.Background(), reactToNextSpec(), batch)
	require.NoError(t, err)

	got := batch.Results["package.json"]
	var doc struct {
		Name            string            `json:"name"`
		Scripts         map[string]string `json:"scripts"`
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	require.NoError(t, json.Unmarshal([]byte(got.Code), &doc))

	assert.Equal(t, "demo-app", doc.Name)
	assert.Equal(t, "next dev", doc.Scripts["dev"])
	assert.Equal(t, "next build", doc.Scripts["build"])
	assert.Equal(t, "next start", doc.Scripts["start"])
	assert.Equal(t, "eslint .", doc.Scripts["lint"])

	assert.Equal(t, "^14.2.0", doc.Dependencies["next"])
	assert.Contains(t, doc.Dependencies, "react")
	assert.NotContains(t, doc.Dependencies, "react-router-dom")
	assert.NotContains(t, doc.DevDependencies, "vite")
	assert.NotContains(t, doc.DevDependencies, "@vitejs/plugin-react")

	assert.True(t, strings.HasPrefix(got.Code, "{\n  \"name\""))
	assert.NotEmpty(t, got.Diff)
	require.NotEmpty(t, got.Metadata.Applied)
	assert.Contains(t, got.Metadata.Applied[0], "nextjs")
}

func TestManifestLeavesOtherFilesAlone(t *testing.T) {
	code := `{"compilerOptions": {}}`
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{
			"jsconfig.json": {NewPath: "jsconfig.json", Code: code, OriginalCode: code},
		},
	}
	err := NewManifest().Process(context.Background(), reactToNextSpec(), batch)
	require.NoError(t, err)
	assert.Equal(t, code, batch.Results["jsconfig.json"].Code)
}

func TestManifestRejectsUnparseableJSON(t *testing.T) {
	batch := &engine.BatchResult{
		Results: map[string]*engine.TransformResult{
			"package.json": {NewPath: "package.json", Code: "{not json"},
		},
	}
	err := NewManifest().Process(context.Background(), reactToNextSpec(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "package.json")
}
