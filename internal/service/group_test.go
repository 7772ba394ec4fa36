package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/alumnos-api/internal/apperrors"
	"github.com/aanand-mishra/alumnos-api/internal/storage/memory"
)

func TestGroupServiceCreateAndList(t *testing.T) {
	svc := NewGroupService(memory.New().Groups(), quietLogger())
	ctx := context.Background()

	g, err := svc.Create(ctx, "1A")
	require.NoError(t, err)
	assert.NotZero(t, g.ID)

	groups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "1A", groups[0].Name)
}

func TestGroupServiceFailures(t *testing.T) {
	svc := NewGroupService(brokenGroups{}, quietLogger())

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrRetrievalFailed)

	_, err = svc.Create(context.Background(), "1A")
	assert.ErrorIs(t, err, apperrors.ErrCreationFailed)
}
