package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/timbre/pkg/adapters/memory"
	"github.com/aretw0/timbre/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_MasksMatchingKeys(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	store := middleware.NewPIIMiddleware([]string{"^age$", "^country_"})(underlying)

	sub := submission()
	require.NoError(t, store.Save(ctx, sub))

	stored, err := store.Load(ctx, "spec-1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Masked, stored.Responses[0].Values["age"])
	assert.Equal(t, middleware.Masked, stored.Responses[0].Values["country_childhood"])
	assert.Equal(t, float64(4), stored.Responses[1].Values["rating"])

	// The caller's records are untouched.
	assert.Equal(t, "28", sub.Responses[0].Values["age"])
}

func TestChain_MasksBeforeSealing(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	key := generateKey(t)
	store := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{"age"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	require.NoError(t, store.Save(ctx, submission()))

	raw, err := underlying.Load(ctx, "spec-1")
	require.NoError(t, err)
	assert.Equal(t, middleware.SealedName, raw.Responses[0].Name)

	loaded, err := store.Load(ctx, "spec-1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Masked, loaded.Responses[0].Values["age"])
}
