//go:build integration

package loader

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcneo4j "github.com/testcontainers/testcontainers-go/modules/neo4j"
)

const testPassword = "xmigraph-test"

func startNeo4j(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcneo4j.Run(ctx, "neo4j:5", tcneo4j.WithAdminPassword(testPassword))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start neo4j container")

	uri, err := ctr.BoltUrl(ctx)
	require.NoError(t, err)
	return uri
}

func TestNeo4jExecutor_LoadBasicModel(t *testing.T) {
	uri := startNeo4j(t)
	ctx := context.Background()
	prefix := writeBasicTables(t)

	exec, err := NewNeo4jExecutor(ctx, Neo4jConfig{URI: uri, User: "neo4j", Password: testPassword})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close(ctx) })

	l, err := New(exec, Options{Prefix: prefix, BatchSize: 2})
	require.NoError(t, err)
	_, err = l.Load(ctx)
	require.NoError(t, err)

	// Loading twice is idempotent.
	_, err = l.Load(ctx)
	require.NoError(t, err)

	count := func(cypher string) int64 {
		res, err := neo4j.ExecuteQuery(ctx, exec.driver, cypher, nil, neo4j.EagerResultTransformer)
		require.NoError(t, err)
		require.Len(t, res.Records, 1)
		return res.Records[0].Values[0].(int64)
	}

	assert.EqualValues(t, 3, count("MATCH (n:trunk) RETURN count(n)"))
	assert.EqualValues(t, 1, count("MATCH (n:EAStub:trunk) RETURN count(n)"))
	assert.EqualValues(t, 1, count("MATCH (:trunk)-[r:Generalization]->(:Class) RETURN count(r)"))
	assert.EqualValues(t, 1, count("MATCH (:Package)-[r:CONTAINS]->(:Class {name: 'Customer'}) RETURN count(r)"))
	assert.EqualValues(t, 3, count("MATCH (n {__svn_branch: 'trunk'}) RETURN count(n)"))
}
