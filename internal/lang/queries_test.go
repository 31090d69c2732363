package lang

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportsDecoding(t *testing.T) {
	src := []byte(`import React from 'react';
import { useState, useEffect as onMount } from "react";
import * as router from 'react-router-dom';
import './styles.css';
const x = 1;
`)
	r := DefaultRegistry()
	profile, err := r.Profile("javascript")
	require.NoError(t, err)
	tree, err := Parse(context.Background(), profile, src)
	require.NoError(t, err)
	defer tree.Close()

	imports := Imports(tree.RootNode(), src)
	require.Len(t, imports, 4)

	assert.Equal(t, "react", imports[0].Source)
	assert.Equal(t, "React", imports[0].Default)
	assert.Equal(t, byte('\''), imports[0].Quote)

	assert.Equal(t, "react", imports[1].Source)
	assert.Equal(t, byte('"'), imports[1].Quote)
	require.Len(t, imports[1].Named, 2)
	assert.Equal(t, NamedSpecifier{Name: "useState"}, imports[1].Named[0])
	assert.Equal(t, NamedSpecifier{Name: "useEffect", Alias: "onMount"}, imports[1].Named[1])

	assert.Equal(t, "react-router-dom", imports[2].Source)
	assert.Equal(t, "router", imports[2].Namespace)

	assert.Equal(t, "./styles.css", imports[3].Source)
	assert.Empty(t, imports[3].Default)
	assert.Empty(t, imports[3].Named)
}

func TestImportKeyAndRender(t *testing.T) {
	a := Import{Source: "react", Named: []NamedSpecifier{{Name: "useState"}, {Name: "useEffect"}}, Quote: '\''}
	b := Import{Source: "react", Named: []NamedSpecifier{{Name: "useEffect"}, {Name: "useState"}}, Quote: '"'}
	assert.Equal(t, a.Key(), b.Key())

	assert.Equal(t, "import { useState, useEffect } from 'react';", a.Render())

	c := Import{Source: "next/link", Default: "Link", Quote: '"'}
	assert.Equal(t, `import Link from "next/link";`, c.Render())

	d := Import{Source: "./styles.css", Quote: '\''}
	assert.Equal(t, "import './styles.css';", d.Render())
}

func TestLastImportEnd(t *testing.T) {
	src := []byte("import a from 'a';\nimport b from 'b';\nconst x = 1;\n")
	r := DefaultRegistry()
	profile, err := r.Profile("javascript")
	require.NoError(t, err)
	tree, err := Parse(context.Background(), profile, src)
	require.NoError(t, err)
	defer tree.Close()

	end := LastImportEnd(tree.RootNode())
	assert.Equal(t, "import b from 'b';", string(src[19:end]))

	noImports := []byte("const x = 1;\n")
	tree2, err := Parse(context.Background(), profile, noImports)
	require.NoError(t, err)
	defer tree2.Close()
	assert.Equal(t, uint32(0), LastImportEnd(tree2.RootNode()))
}

func TestElementTags(t *testing.T) {
	src := []byte(`export default function Nav() {
  return (
    <nav>
      <a href="/about">About</a>
      <img src="/logo.png" />
    </nav>
  );
}
`)
	r := DefaultRegistry()
	profile, err := r.Profile("javascript")
	require.NoError(t, err)
	tree, err := Parse(context.Background(), profile, src)
	require.NoError(t, err)
	defer tree.Close()

	tags := ElementTags(tree.RootNode(), src)
	byName := map[string]ElementTag{}
	for _, tag := range tags {
		byName[tag.Name] = tag
	}

	require.Contains(t, byName, "nav")
	require.Contains(t, byName, "a")
	require.Contains(t, byName, "img")

	anchor := byName["a"]
	assert.False(t, anchor.SelfClosing)
	require.NotNil(t, anchor.CloseName)
	assert.Equal(t, "a", anchor.CloseName.Content(src))
	assert.True(t, HasAttribute(anchor.Opening, src, "href"))
	assert.False(t, HasAttribute(anchor.Opening, src, "onClick"))

	img := byName["img"]
	assert.True(t, img.SelfClosing)
	assert.Nil(t, img.CloseName)
	assert.True(t, HasAttribute(img.Opening, src, "src"))
}

func TestIdentifierUses(t *testing.T) {
	src := []byte(`import { useHistory } from 'react-router-dom';
function App() {
  const history = useHistory();
  const other = api.useHistory;
  return useHistory;
}
`)
	r := DefaultRegistry()
	profile, err := r.Profile("javascript")
	require.NoError(t, err)
	tree, err := Parse(context.Background(), profile, src)
	require.NoError(t, err)
	defer tree.Close()

	uses := IdentifierUses(tree.RootNode(), src, "useHistory")
	// The import specifier and the api.useHistory property are excluded.
	assert.Len(t, uses, 2)
	for _, n := range uses {
		assert.Equal(t, "useHistory", n.Content(src))
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		quote byte
	}{
		{`"react"`, "react", '"'},
		{`'react'`, "react", '\''},
		{"`react`", "react", '`'},
		{`react`, "react", '"'},
	}
	for _, tt := range tests {
		got, quote := Unquote(tt.raw)
		if got != tt.want || quote != tt.quote {
			t.Errorf("Unquote(%q) = (%q, %q), want (%q, %q)", tt.raw, got, quote, tt.want, tt.quote)
		}
	}
}

func TestExportNames(t *testing.T) {
	src := []byte(`export default function App() { return null; }
export function helper() {}
export const first = 1, second = 2;
export class Store {}
export { first as primary, helper };
const hidden = 3;
`)
	r := DefaultRegistry()
	profile, err := r.Profile("javascript")
	require.NoError(t, err)
	tree, err := Parse(context.Background(), profile, src)
	require.NoError(t, err)
	defer tree.Close()

	names := ExportNames(tree.RootNode(), src)
	assert.ElementsMatch(t, []string{"App", "helper", "first", "second", "Store", "primary"}, names)
	assert.NotContains(t, names, "hidden")
}

func TestExportNamesAnonymousDefault(t *testing.T) {
	src := []byte(`export default { key: "value" };
`)
	r := DefaultRegistry()
	profile, err := r.Profile("javascript")
	require.NoError(t, err)
	tree, err := Parse(context.Background(), profile, src)
	require.NoError(t, err)
	defer tree.Close()

	assert.Equal(t, []string{"default"}, ExportNames(tree.RootNode(), src))
}
