package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/timbre/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunResultStoreContract runs a suite of tests to verify that a ResultStore
// implementation adheres to the defined interface contract.
func RunResultStoreContract(t *testing.T, store ResultStore) {
	ctx := context.Background()
	specID := "contract-spec-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		sub := domain.Submission{
			SpecID: specID,
			Responses: []domain.ResponseRecord{
				{ID: "r1", SpecID: specID, BlockID: "practice/1", Kind: domain.StepDissimilarity, Values: map[string]any{"rating": 3}},
				{ID: "r2", SpecID: specID, BlockID: "practice/2", Kind: domain.StepDissimilarity, Values: map[string]any{"rating": 0}},
			},
		}

		require.NoError(t, store.Save(ctx, sub), "Save should not return error")

		loaded, err := store.Load(ctx, specID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, specID, loaded.SpecID)
		require.Len(t, loaded.Responses, 2)
		// Order is part of the contract: records are append-only.
		assert.Equal(t, "r1", loaded.Responses[0].ID)
		assert.Equal(t, "r2", loaded.Responses[1].ID)
		// JSON stores turn ints into float64; only check presence.
		assert.NotNil(t, loaded.Responses[0].Values["rating"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+specID)
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		id := specID + "-overwrite"
		require.NoError(t, store.Save(ctx, domain.Submission{SpecID: id}))
		require.NoError(t, store.Save(ctx, domain.Submission{
			SpecID:    id,
			Responses: []domain.ResponseRecord{{ID: "only"}},
		}))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, loaded.Responses, 1)
		assert.Equal(t, "only", loaded.Responses[0].ID)
	})

	t.Run("List", func(t *testing.T) {
		id1 := specID + "-1"
		id2 := specID + "-2"
		require.NoError(t, store.Save(ctx, domain.Submission{SpecID: id1}))
		require.NoError(t, store.Save(ctx, domain.Submission{SpecID: id2}))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunTemplateProviderContract verifies that provider serves exactly want and
// reports unknown names with domain.ErrTemplateNotFound.
func RunTemplateProviderContract(t *testing.T, provider TemplateProvider, want map[string]string) {
	ctx := context.Background()

	t.Run("Template", func(t *testing.T) {
		for name, content := range want {
			got, err := provider.Template(ctx, name)
			require.NoError(t, err, "Template(%q)", name)
			assert.Equal(t, content, got, "content of %q", name)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := provider.Template(ctx, "does_not_exist")
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})
}
