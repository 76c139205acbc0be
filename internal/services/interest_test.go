package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestCreate(t *testing.T) {
	f := newFixture(t)
	icon := "🎮"

	created, err := f.interests.Create(f.ctx, "  Gaming ", &icon)
	require.NoError(t, err)
	assert.Equal(t, "Gaming", created.Name)
	assert.NotZero(t, created.ID)

	_, err = f.interests.Create(f.ctx, "Gaming", nil)
	assert.ErrorIs(t, err, ErrDuplicateInterest)
	assert.Contains(t, err.Error(), `"Gaming"`)

	_, err = f.interests.Create(f.ctx, "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.interests.Create(f.ctx, strings.Repeat("a", 51), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	all, err := f.interests.GetAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Gaming", all[0].Name)
}

func TestInterestGetAllEmpty(t *testing.T) {
	f := newFixture(t)

	all, err := f.interests.GetAll(f.ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestInterestSeedOnlyFillsEmptyCatalog(t *testing.T) {
	f := newFixture(t)

	inserted, err := f.interests.Seed(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultInterests), inserted)

	inserted, err = f.interests.Seed(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	count, err := f.store.CountInterests(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(DefaultInterests)), count)
}

func TestInterestSeedSkipsPopulatedCatalog(t *testing.T) {
	f := newFixture(t)
	_, err := f.interests.Create(f.ctx, "Knitting", nil)
	require.NoError(t, err)

	inserted, err := f.interests.Seed(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
