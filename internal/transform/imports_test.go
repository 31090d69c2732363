package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapImportSource(t *testing.T) {
	mappings := map[string]string{
		"react-router-dom": "next/navigation",
		"react-scripts":    "",
	}
	pr := DefaultPairRegistry().RulesFor("react", "nextjs")

	tests := []struct {
		name        string
		source      string
		filePath    string
		want        string
		wantRemoved bool
	}{
		{
			name:   "exact match",
			source: "react-router-dom",
			want:   "next/navigation",
		},
		{
			name:   "prefix match keeps the suffix",
			source: "react-router-dom/server",
			want:   "next/navigation/server",
		},
		{
			name:        "empty mapping removes the import",
			source:      "react-scripts",
			wantRemoved: true,
		},
		{
			name:     "crossing relative import becomes an alias",
			source:   "../components/Button",
			filePath: "src/pages/Home.jsx",
			want:     "@/components/Button",
		},
		{
			name:     "deep crossing import",
			source:   "../../hooks/useAuth",
			filePath: "src/pages/admin/Users.jsx",
			want:     "@/hooks/useAuth",
		},
		{
			name:     "same directory import stays relative",
			source:   "./helper",
			filePath: "src/pages/Home.jsx",
			want:     "./helper",
		},
		{
			name:     "escape above the repo root stays untouched",
			source:   "../../../other/thing",
			filePath: "src/pages/Home.jsx",
			want:     "../../../other/thing",
		},
		{
			name:   "unmapped package untouched",
			source: "lodash",
			want:   "lodash",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, removed := mapImportSource(tt.source, mappings, pr, tt.filePath)
			assert.Equal(t, tt.wantRemoved, removed)
			if !removed {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestBindingCollisionRefusesShadowing(t *testing.T) {
	code := `import Link from './Link';

export default function Nav() {
  return <a href="/about">About</a>;
}
`
	res, _ := transformFile(t, code, "src/components/Nav.jsx")

	// The anchor is rewritten but the conflicting import is not added.
	assert.Contains(t, res.Code, "<Link href=")
	assert.NotContains(t, res.Code, "next/link")
	assert.NotEmpty(t, res.Errors)
}
