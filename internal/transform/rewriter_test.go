package transform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackshift/internal/lang"
	"stackshift/internal/migration"
)

func reactToNextSpec() *migration.Specification {
	return &migration.Specification{
		Source: migration.Stack{Language: "javascript", Framework: "react"},
		Target: migration.Stack{Language: "javascript", Framework: "nextjs"},
		Mappings: migration.Mappings{
			Imports: map[string]string{
				"react-router-dom": "next/navigation",
			},
		},
	}
}

func transformFile(t *testing.T, code, path string) (Result, *migration.FileContext) {
	t.Helper()
	rw := NewRewriter(nil, nil)
	fctx := migration.NewFileContext(path, code)
	res, err := rw.Transform(context.Background(), code, reactToNextSpec(), fctx)
	require.NoError(t, err)
	return res, fctx
}

func TestTransformRemapsImportSource(t *testing.T) {
	code := `import { useParams } from 'react-router-dom';

export default function Post() {
  const { id } = useParams();
  return <div>{id}</div>;
}
`
	res, fctx := transformFile(t, code, "src/pages/Post.jsx")

	assert.Contains(t, res.Code, "from 'next/navigation'")
	assert.NotContains(t, res.Code, "react-router-dom")
	assert.Contains(t, res.Applied, "react-router-dom -> next/navigation")
	assert.Contains(t, fctx.Imports, "react-router-dom -> next/navigation")
}

func TestTransformRenamesRoutingHooks(t *testing.T) {
	code := `import { useHistory } from 'react-router-dom';

function Nav() {
  const history = useHistory();
  history.push('/home');
  return null;
}

export default Nav;
`
	res, fctx := transformFile(t, code, "src/components/Nav.jsx")

	assert.Contains(t, res.Code, "import { useRouter } from 'next/navigation';")
	assert.Contains(t, res.Code, "const history = useRouter();")
	assert.NotContains(t, res.Code, "useHistory")
	// The renamed hook already satisfies the queued import; no duplicate.
	assert.Equal(t, 1, strings.Count(res.Code, "import "))
	assert.Contains(t, res.Applied, "useHistory -> useRouter")
	assert.Contains(t, fctx.RelatedFiles, "useHistory -> useRouter")
}

func TestTransformRewritesAnchorToLink(t *testing.T) {
	code := `export default function Nav() {
  return <a href="/about">About</a>;
}
`
	res, _ := transformFile(t, code, "src/components/Nav.jsx")

	assert.Contains(t, res.Code, `<Link href="/about">About</Link>`)
	assert.Contains(t, res.Code, `import Link from "next/link";`)
	assert.Contains(t, res.Applied, "<a> -> <Link>")
}

func TestTransformLeavesPlainAnchorAlone(t *testing.T) {
	code := `export default function Anchor() {
  return <a name="top">Top</a>;
}
`
	res, _ := transformFile(t, code, "src/components/Anchor.jsx")
	assert.Equal(t, code, res.Code)
}

func TestTransformMovesLinkImportAndRenamesAttribute(t *testing.T) {
	code := `import { Link } from 'react-router-dom';

export default function Menu() {
  return <Link to="/settings">Settings</Link>;
}
`
	res, _ := transformFile(t, code, "src/components/Menu.jsx")

	assert.Contains(t, res.Code, "import Link from 'next/link';")
	assert.NotContains(t, res.Code, "react-router-dom")
	assert.Contains(t, res.Code, `<Link href="/settings">Settings</Link>`)
	assert.Contains(t, res.Applied, "Link -> next/link")
	assert.Contains(t, res.Applied, "Link[to] -> Link[href]")
}

func TestTransformInfersAliasForRelativeImports(t *testing.T) {
	code := `import Button from '../components/Button';

export default function Home() {
  return <Button />;
}
`
	res, _ := transformFile(t, code, "src/pages/Home.jsx")
	assert.Contains(t, res.Code, "import Button from '@/components/Button';")
}

func TestTransformKeepsLocalRelativeImports(t *testing.T) {
	code := `import helper from './helper';

export default function Page() {
  return helper();
}
`
	res, _ := transformFile(t, code, "src/pages/Page.jsx")
	assert.Contains(t, res.Code, "from './helper'")
}

func TestTransformDeduplicatesImports(t *testing.T) {
	code := `import { useState } from 'react';
import { useState } from 'react';

export default function Counter() {
  const [n, setN] = useState(0);
  return <button onClick={() => setN(n + 1)}>{n}</button>;
}
`
	res, _ := transformFile(t, code, "src/components/Counter.jsx")
	assert.Equal(t, 1, strings.Count(res.Code, "useState } from 'react'"))
}

func TestTransformUnregisteredPairOnlyRemapsMappings(t *testing.T) {
	code := `import { thing } from 'old-pkg';

export function use() {
  return thing;
}
`
	spec := &migration.Specification{
		Source:   migration.Stack{Language: "javascript", Framework: "vue"},
		Target:   migration.Stack{Language: "javascript", Framework: "svelte"},
		Mappings: migration.Mappings{Imports: map[string]string{"old-pkg": "new-pkg"}},
	}
	rw := NewRewriter(nil, nil)
	fctx := migration.NewFileContext("src/utils/use.js", code)
	res, err := rw.Transform(context.Background(), code, spec, fctx)
	require.NoError(t, err)
	assert.Contains(t, res.Code, "from 'new-pkg'")
	assert.NotContains(t, res.Code, "old-pkg")
}

func TestTransformIsIdempotent(t *testing.T) {
	code := `import { useHistory, Link } from 'react-router-dom';

export default function Nav() {
  const history = useHistory();
  return <Link to="/home">Home</Link>;
}
`
	rw := NewRewriter(nil, nil)
	spec := reactToNextSpec()

	first, err := rw.Transform(context.Background(), code, spec, migration.NewFileContext("src/components/Nav.jsx", code))
	require.NoError(t, err)
	second, err := rw.Transform(context.Background(), first.Code, spec, migration.NewFileContext("src/components/Nav.jsx", first.Code))
	require.NoError(t, err)

	assert.Equal(t, first.Code, second.Code)
}

func TestTransformFailureReturnsOriginalCode(t *testing.T) {
	registry := NewPairRegistry()
	registry.Register("react", "nextjs", PairRules{
		Body: []BodyRule{&garbageRule{}},
	})
	rw := NewRewriter(nil, registry)

	code := `export default function Fine() {
  return <div>ok</div>;
}
`
	fctx := migration.NewFileContext("src/components/Fine.jsx", code)
	res, err := rw.Transform(context.Background(), code, reactToNextSpec(), fctx)

	require.Error(t, err)
	assert.Equal(t, code, res.Code)
}

// garbageRule queues an edit that cannot parse, simulating a defective
// rewrite.
type garbageRule struct{}

func (*garbageRule) Name() string { return "garbage" }

func (*garbageRule) Apply(p *Pass) {
	p.AddEdit(lang.Edit{Start: 0, End: uint32(len(p.Src)), Replacement: "<<<]"})
}
