package equiv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const originalComponent = `import { useState } from 'react';

export default function Cart({ items }) {
  const [open, setOpen] = useState(false);
  const total = items.reduce((sum, it) => sum + it.price, 0);

  if (!items.length) {
    return <p>Empty</p>;
  }
  return (
    <div>
      <ul>
        {items.map((it) => (
          <li key={it.id}>{it.name}</li>
        ))}
      </ul>
      <span>{total}</span>
      <button onClick={() => setOpen(!open)}>Toggle</button>
    </div>
  );
}
`

func TestCompareIdenticalCode(t *testing.T) {
	c := NewChecker(nil)
	res, err := c.Compare(context.Background(), originalComponent, originalComponent, "src/components/Cart.jsx")
	require.NoError(t, err)
	assert.True(t, res.Equivalent)
	assert.Empty(t, res.Reason)
}

func TestCompareRenamedIdentifiersStayEquivalent(t *testing.T) {
	renamed := `import { useState } from 'react';

export default function Cart({ items }) {
  const [visible, setVisible] = useState(false);
  const sum = items.reduce((acc, it) => acc + it.price, 0);

  if (!items.length) {
    return <p>Empty</p>;
  }
  return (
    <div>
      <ul>
        {items.map((it) => (
          <li key={it.id}>{it.name}</li>
        ))}
      </ul>
      <span>{sum}</span>
      <button onClick={() => setVisible(!visible)}>Toggle</button>
    </div>
  );
}
`
	c := NewChecker(nil)
	res, err := c.Compare(context.Background(), originalComponent, renamed, "src/components/Cart.jsx")
	require.NoError(t, err)
	assert.True(t, res.Equivalent)
}

func TestCompareDetectsDroppedLogic(t *testing.T) {
	gutted := `export default function Cart({ items }) {
  return null;
}
`
	c := NewChecker(nil)
	res, err := c.Compare(context.Background(), originalComponent, gutted, "src/components/Cart.jsx")
	require.NoError(t, err)
	assert.False(t, res.Equivalent)
	assert.NotEmpty(t, res.Reason)
}

func TestCompareDetectsDroppedMarkup(t *testing.T) {
	orig := `export default function List() {
  return (
    <div>
      <span>a</span>
      <span>b</span>
      <span>c</span>
      <span>d</span>
    </div>
  );
}
`
	trimmed := `export default function List() {
  return <div />;
}
`
	c := NewChecker(nil)
	res, err := c.Compare(context.Background(), orig, trimmed, "src/components/List.jsx")
	require.NoError(t, err)
	assert.False(t, res.Equivalent)
	assert.Contains(t, res.Reason, "element count")
}

func TestCompareFingerprintsTolerance(t *testing.T) {
	c := NewChecker(nil)

	tests := []struct {
		name string
		orig Fingerprint
		xfrm Fingerprint
		want bool
	}{
		{
			name: "identical",
			orig: Fingerprint{Functions: 3, Returns: 2},
			xfrm: Fingerprint{Functions: 3, Returns: 2},
			want: true,
		},
		{
			name: "single difference within slack",
			orig: Fingerprint{Functions: 1},
			xfrm: Fingerprint{Functions: 0},
			want: true,
		},
		{
			name: "within twenty percent",
			orig: Fingerprint{Returns: 10},
			xfrm: Fingerprint{Returns: 8},
			want: true,
		},
		{
			name: "beyond twenty percent",
			orig: Fingerprint{Returns: 10},
			xfrm: Fingerprint{Returns: 7},
			want: false,
		},
		{
			name: "element slack is looser",
			orig: Fingerprint{Elements: 4},
			xfrm: Fingerprint{Elements: 2},
			want: true,
		},
		{
			name: "element drop beyond tolerance",
			orig: Fingerprint{Elements: 10},
			xfrm: Fingerprint{Elements: 6},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.CompareFingerprints(tt.orig, tt.xfrm)
			assert.Equal(t, tt.want, res.Equivalent, res.Reason)
		})
	}
}

func TestCompareFingerprintsStrictChecker(t *testing.T) {
	c := NewChecker(nil)
	c.StructuralTolerance = 0
	c.StructuralSlack = 0

	res := c.CompareFingerprints(Fingerprint{Returns: 2}, Fingerprint{Returns: 1})
	assert.False(t, res.Equivalent)
}

func TestFingerprintTreeCounts(t *testing.T) {
	c := NewChecker(nil)
	fp, err := c.fingerprint(context.Background(), originalComponent, "src/components/Cart.jsx")
	require.NoError(t, err)

	// Cart plus the reduce, map and onClick arrows.
	assert.Equal(t, 4, fp.Functions)
	assert.Equal(t, 1, fp.Conditionals)
	assert.Equal(t, 2, fp.Returns)
	assert.GreaterOrEqual(t, len(fp.Calls), 3)
	// p, div, ul, li, span, button.
	assert.Equal(t, 6, fp.Elements)
}
