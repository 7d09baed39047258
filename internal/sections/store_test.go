package sections

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavrova/rfpdesk/internal/common"
)

func TestMemoryStore_GetEmpty(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, common.ErrTemplateNotFound)
}

func TestMemoryStore_ReplaceAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec, err := s.Replace(ctx, []string{"Scope", "Pricing"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Version)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Scope", "Pricing"}, got.Sections)
	assert.Equal(t, int64(1), got.Version)
}

func TestMemoryStore_ReplaceVersionConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Replace(ctx, []string{"A"}, 0)
	require.NoError(t, err)

	// Stale expectation loses.
	_, err = s.Replace(ctx, []string{"B"}, 0)
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	// Current expectation wins and bumps the version.
	rec, err := s.Replace(ctx, []string{"B"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, []string{"B"}, rec.Sections)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Replace(ctx, []string{"A", "B"}, 0)
	require.NoError(t, err)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	got.Sections[0] = "mutated"

	again, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Sections[0])
}

func TestMemoryStore_Consent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	granted, err := s.ConsentGranted(ctx)
	require.NoError(t, err)
	assert.False(t, granted)

	require.NoError(t, s.GrantConsent(ctx))

	granted, err = s.ConsentGranted(ctx)
	require.NoError(t, err)
	assert.True(t, granted)
}

func TestDefault_SevenSections(t *testing.T) {
	names := Default()
	require.Len(t, names, 7)
	assert.Equal(t, "Executive Summary", names[0])
	assert.Equal(t, "Recommended Next Steps", names[6])
}
