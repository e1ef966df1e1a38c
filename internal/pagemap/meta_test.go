package pagemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrdering_ShapesAndKeyOrder(t *testing.T) {
	o, diags, err := ParseOrdering("_meta.yaml", []byte(`
zeta: Zeta Title
alpha: 3
mid:
  title: Middle
  rank: 1
  type: page
"*":
  type: doc
bad: [1, 2]
`))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, o.Keys)
	assert.Equal(t, "Zeta Title", o.Items["zeta"].Title)
	require.NotNil(t, o.Items["alpha"].Rank)
	assert.Equal(t, 3, *o.Items["alpha"].Rank)
	assert.Equal(t, "page", o.Items["mid"].Type)
	require.NotNil(t, o.Defaults)
	assert.Equal(t, "doc", o.Defaults.Type)
}

func TestParseOrdering_JSONQuotedNumberIsTitle(t *testing.T) {
	o, _, err := ParseOrdering("_meta.json", []byte(`{"a": "2", "b": 2}`))
	require.NoError(t, err)
	assert.Equal(t, "2", o.Items["a"].Title)
	require.NotNil(t, o.Items["b"].Rank)
}

func TestParseOrdering_NotAMapping(t *testing.T) {
	_, _, err := ParseOrdering("_meta.yaml", []byte("- a\n- b\n"))
	require.Error(t, err)
}

func TestParseOrdering_Empty(t *testing.T) {
	o, diags, err := ParseOrdering("_meta.yaml", []byte(""))
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Empty(t, o.Keys)
}

func TestParseOrdering_NestedItems(t *testing.T) {
	o, _, err := ParseOrdering("_meta.yaml", []byte("guide:\n  items:\n    b: B\n    a: A\n"))
	require.NoError(t, err)
	nested := o.Items["guide"].nested()
	require.NotNil(t, nested)
	assert.Equal(t, []string{"b", "a"}, nested.Keys)
}
