package tfidf

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func TestEmbedBeforePrepare(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestPrepareEmptyCorpus(t *testing.T) {
	err := NewEmbedder().Prepare(nil)
	assert.True(t, errors.Is(err, domain.ErrEmptyCorpus))

	err = NewEmbedder().Prepare([]string{"the and of", "123"})
	assert.Error(t, err)
}

func TestEmbedIsNormalisedAndDeterministic(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"Photosynthesis converts light into chemical energy.",
		"Mitochondria produce energy for the cell.",
		"Paris is the capital of France.",
	}))
	assert.Greater(t, e.Dimension(), 5)

	ctx := context.Background()
	v1, err := e.Embed(ctx, "cell energy")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "cell energy")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	var norm float64
	for _, x := range v1 {
		norm += x * x
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbedUnknownTermsIsZero(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{"alpha beta gamma"}))
	v, err := e.Embed(context.Background(), "zeta")
	require.NoError(t, err)
	require.Len(t, v, 3)
	for _, x := range v {
		assert.Zero(t, x)
	}
}
