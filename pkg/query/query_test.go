// Copyright 2025 Certen Protocol

package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/certen/aig/pkg/vertex"
)

func seedStore(t *testing.T) vertex.Store {
	t.Helper()
	store := vertex.NewMemoryStore()
	ctx := context.Background()

	older := vertex.Vertex{
		ID:           "aaaa000000000000000000000000000001",
		DateCreated:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DateModified: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Resources: []vertex.Resource{
			{ID: "r1", ResourceObject: map[string]interface{}{"@type": "Invoice"}},
		},
	}
	newer := vertex.Vertex{
		ID:           "aaaa000000000000000000000000000002",
		DateCreated:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DateModified: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(ctx, older))
	require.NoError(t, store.Put(ctx, newer))
	return store
}

func TestRunPlainShapeProjectsAllTopLevelFields(t *testing.T) {
	store := seedStore(t)
	res, err := Run(context.Background(), store, Options{PageSize: 10}, ShapePlain)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 2)
	require.Equal(t, "AuditableItemGraphVertex", res.Vertices[0]["type"])
}

func TestRunConditionFiltersByDateCreated(t *testing.T) {
	store := seedStore(t)
	res, err := Run(context.Background(), store, Options{
		PageSize:   10,
		Conditions: []string{"dateCreated>=2024-03-01"},
	}, ShapePlain)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 1)
	require.Equal(t, "aig:aaaa000000000000000000000000000002", res.Vertices[0]["id"])
}

func TestRunPropertiesProjectionNarrowsOutput(t *testing.T) {
	store := seedStore(t)
	res, err := Run(context.Background(), store, Options{
		PageSize:   10,
		Properties: []string{"resources"},
	}, ShapePlain)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 2)
	_, hasAliases := res.Vertices[0]["aliases"]
	require.False(t, hasAliases)
	_, hasResources := res.Vertices[0]["resources"]
	require.True(t, hasResources)
}

func TestRunJSONLDShapeTagsChildTypes(t *testing.T) {
	store := seedStore(t)
	res, err := Run(context.Background(), store, Options{PageSize: 10}, ShapeJSONLD)
	require.NoError(t, err)
	require.Len(t, res.Vertices, 2)

	var withResource map[string]interface{}
	for _, v := range res.Vertices {
		if resources, ok := v["resources"].([]map[string]interface{}); ok && len(resources) > 0 {
			withResource = v
		}
	}
	require.NotNil(t, withResource)
	resources := withResource["resources"].([]map[string]interface{})
	require.Equal(t, "Resource", resources[0]["@type"])
}

func TestParseConditionsRejectsUnsupportedField(t *testing.T) {
	_, err := parseConditions([]string{"annotationObject=foo"})
	require.Error(t, err)
}

func TestProjectJSONLDPreservesTombstoneFields(t *testing.T) {
	deletedAt := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	v := vertex.Vertex{
		ID: "bbbb000000000000000000000000000001",
		Aliases: []vertex.Alias{
			{ID: "a1", DateCreated: deletedAt, DateModified: deletedAt, DateDeleted: deletedAt},
		},
		Resources: []vertex.Resource{
			{ID: "r1", DateCreated: deletedAt, DateDeleted: deletedAt},
		},
		Edges: []vertex.Edge{
			{ID: "e1", DateCreated: deletedAt, DateDeleted: deletedAt},
		},
	}

	out := Project(v, nil, ShapeJSONLD)

	aliases := out["aliases"].([]map[string]interface{})
	require.Equal(t, deletedAt, aliases[0]["dateDeleted"])
	require.Equal(t, deletedAt, aliases[0]["dateModified"])

	resources := out["resources"].([]map[string]interface{})
	require.Equal(t, deletedAt, resources[0]["dateDeleted"])

	edges := out["edges"].([]map[string]interface{})
	require.Equal(t, deletedAt, edges[0]["dateDeleted"])
}
