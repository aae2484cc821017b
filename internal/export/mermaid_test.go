package export

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/xmigraph/internal/graph"
)

func TestGenerateMermaid(t *testing.T) {
	ctx := context.Background()
	s := graph.NewMemStore()
	require.NoError(t, graph.Load(ctx, s, extractBasic(t)))

	out, err := GenerateMermaid(ctx, s)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `subgraph N0["Root"]`)
	assert.Contains(t, out, `N1["Customer<br/>«Class»"]`)
	assert.Contains(t, out, `N2(["`+"Unknown external reference<br/>«EAStub»"+`"])`)
	assert.Contains(t, out, "N2 -->|Generalization| N1")
	assert.Equal(t, 1, strings.Count(out, "  end\n"))
}

func TestGenerateMermaid_Empty(t *testing.T) {
	out, err := GenerateMermaid(context.Background(), graph.NewMemStore())
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n", out)
}
