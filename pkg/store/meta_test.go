package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/store"
	"github.com/kotoba-lab/sensei/test/util"
)

func TestEnsureMetaDefaults(t *testing.T) {
	st, _ := util.SetupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, st.EnsureMetaDefaults(ctx, 10))

	meta, err := st.AllMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "N5", meta[models.MetaKeyJLPTFocus])
	assert.Equal(t, "10", meta[models.MetaKeyNewCardsPerDay])
	assert.Equal(t, "jlpt-db-v1.0.0", meta[models.MetaKeyDBVersion])

	// Seeding never overwrites user edits.
	require.NoError(t, st.SetMeta(ctx, models.MetaKeyJLPTFocus, "N3"))
	require.NoError(t, st.EnsureMetaDefaults(ctx, 10))

	value, err := st.GetMeta(ctx, models.MetaKeyJLPTFocus)
	require.NoError(t, err)
	assert.Equal(t, "N3", value)
}

func TestGetMetaNotFound(t *testing.T) {
	st, _ := util.SetupTestDatabase(t)

	_, err := st.GetMeta(context.Background(), "missing_key")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetMetaUpsert(t *testing.T) {
	st, _ := util.SetupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, st.SetMeta(ctx, "custom", "1"))
	require.NoError(t, st.SetMeta(ctx, "custom", "2"))

	value, err := st.GetMeta(ctx, "custom")
	require.NoError(t, err)
	assert.Equal(t, "2", value)
}
