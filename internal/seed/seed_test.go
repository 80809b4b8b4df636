package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/sislog/internal/models"
	"github.com/starford/sislog/internal/testutil"
)

func TestSample(t *testing.T) {
	d, err := Sample()
	require.NoError(t, err)
	assert.Len(t, d[models.CollectionParticipants], 4)
	assert.Len(t, d[models.CollectionLocations], 4)
	assert.Len(t, d[models.CollectionActionCategories], 5)
	assert.Len(t, d[models.CollectionTags], 5)
	assert.Empty(t, d[models.CollectionLogEntries])
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte("logEntries:\n  - id: e1\n"))
	assert.ErrorContains(t, err, "unknown collection")

	_, err = Parse([]byte("tags:\n  - name: Drama\n"))
	assert.ErrorContains(t, err, "has no id")

	_, err = Parse([]byte("tags: [\n"))
	assert.Error(t, err)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	docs := testutil.TestDocStore(t)
	d, err := Sample()
	require.NoError(t, err)

	n, err := Apply(ctx, docs, d, testutil.Logger())
	require.NoError(t, err)
	assert.Equal(t, 18, n)

	_, err = Apply(ctx, docs, d, testutil.Logger())
	require.NoError(t, err)

	tags, err := docs.List(ctx, models.CollectionTags)
	require.NoError(t, err)
	require.Len(t, tags, 5)

	var p models.Participant
	doc, err := docs.Get(ctx, models.CollectionParticipants, "p1")
	require.NoError(t, err)
	require.NoError(t, doc.Decode(&p))
	assert.Equal(t, "Wagner Baiano", p.Name)
	assert.True(t, p.IsActive)
	assert.False(t, p.CreatedAt.IsZero())
}
