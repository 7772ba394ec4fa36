package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/alumnos-api/internal/types"
)

func TestSaveAssignsIncreasingIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	a := &types.Student{FirstName: "Ana"}
	b := &types.Student{FirstName: "Luis"}
	require.NoError(t, s.Students().Save(ctx, a))
	require.NoError(t, s.Students().Save(ctx, b))

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	all, err := s.Students().Find(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ana", all[0].FirstName)
	assert.Equal(t, "Luis", all[1].FirstName)
}

func TestReadsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := &types.Student{FirstName: "Ana"}
	require.NoError(t, s.Students().Save(ctx, st))
	st.FirstName = "mutated"

	got, err := s.Students().FindByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FirstName)
}

func TestGroupAndIncidentsAreExpanded(t *testing.T) {
	s := New()
	ctx := context.Background()

	g := &types.Group{Name: "2B"}
	require.NoError(t, s.Groups().Save(ctx, g))

	st := &types.Student{FirstName: "Ana", Group: g}
	require.NoError(t, s.Students().Save(ctx, st))
	require.NoError(t, s.AddIncident(ctx, &types.Incident{StudentID: st.ID, Description: "falta", Date: time.Now()}))

	got, err := s.Students().FindByID(ctx, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Group)
	assert.Equal(t, "2B", got.Group.Name)
	assert.Len(t, got.Incidents, 1)
}

func TestUpdateAndDeleteReportAffectedRows(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := &types.Student{FirstName: "Ana", Email: "ana@x.com"}
	require.NoError(t, s.Students().Save(ctx, st))

	name := "Ana Maria"
	n, err := s.Students().Update(ctx, st.ID, types.StudentPatch{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Students().Update(ctx, 99, types.StudentPatch{FirstName: &name})
	require.NoError(t, err)
	assert.Zero(t, n)

	got, _ := s.Students().FindByID(ctx, st.ID)
	assert.Equal(t, "Ana Maria", got.FirstName)
	assert.Equal(t, "ana@x.com", got.Email)

	n, err = s.Students().Delete(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Students().Delete(ctx, st.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err = s.Students().FindByID(ctx, st.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
