// Package memory implements the storage repositories on in-process maps.
// It backs the "memory" driver and serves as the test double for the
// service and HTTP layers.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aanand-mishra/alumnos-api/internal/storage"
	"github.com/aanand-mishra/alumnos-api/internal/types"
)

// Store keeps students, groups and incidents in memory.
// Rows are stored by value and copied on the way in and out, so callers
// never share memory with the store.
type Store struct {
	mu        sync.RWMutex
	students  map[int64]types.Student
	groupRefs map[int64]int64
	groups    map[int64]types.Group
	incidents map[int64][]types.Incident
	nextID    struct{ student, group, incident int64 }
}

var _ storage.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		students:  make(map[int64]types.Student),
		groupRefs: make(map[int64]int64),
		groups:    make(map[int64]types.Group),
		incidents: make(map[int64][]types.Incident),
	}
}

func (s *Store) Students() storage.StudentRepository { return studentRepo{s} }
func (s *Store) Groups() storage.GroupRepository     { return groupRepo{s} }
func (s *Store) Close() error                        { return nil }

// AddIncident attaches an incident to a student.
func (s *Store) AddIncident(_ context.Context, inc *types.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID.incident++
	inc.ID = s.nextID.incident
	s.incidents[inc.StudentID] = append(s.incidents[inc.StudentID], *inc)
	return nil
}

// expand builds the read view of a student. Caller holds at least a read lock.
func (s *Store) expand(st types.Student) types.Student {
	st.Group = nil
	if gid, ok := s.groupRefs[st.ID]; ok {
		if g, ok := s.groups[gid]; ok {
			st.Group = &g
		}
	}
	st.Incidents = append([]types.Incident{}, s.incidents[st.ID]...)
	if st.ProfileImage != nil {
		v := *st.ProfileImage
		st.ProfileImage = &v
	}
	return st
}

type studentRepo struct{ s *Store }

func (r studentRepo) Find(_ context.Context) ([]types.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]types.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		out = append(out, r.s.expand(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r studentRepo) FindByID(_ context.Context, id int64) (*types.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, nil
	}
	st = r.s.expand(st)
	return &st, nil
}

func (r studentRepo) Update(_ context.Context, id int64, patch types.StudentPatch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	st, ok := r.s.students[id]
	if !ok {
		return 0, nil
	}
	patch.Apply(&st)
	r.s.students[id] = st
	return 1, nil
}

func (r studentRepo) Save(_ context.Context, st *types.Student) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if st.ID == 0 {
		r.s.nextID.student++
		st.ID = r.s.nextID.student
	}
	if st.Incidents == nil {
		st.Incidents = []types.Incident{}
	}

	row := *st
	row.Group = nil
	row.Incidents = nil
	if st.ProfileImage != nil {
		v := *st.ProfileImage
		row.ProfileImage = &v
	}
	r.s.students[st.ID] = row

	if st.Group != nil {
		r.s.groupRefs[st.ID] = st.Group.ID
	} else {
		delete(r.s.groupRefs, st.ID)
	}
	return nil
}

func (r studentRepo) Delete(_ context.Context, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.students[id]; !ok {
		return 0, nil
	}
	delete(r.s.students, id)
	delete(r.s.groupRefs, id)
	delete(r.s.incidents, id)
	return 1, nil
}

type groupRepo struct{ s *Store }

func (r groupRepo) Find(_ context.Context) ([]types.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]types.Group, 0, len(r.s.groups))
	for _, g := range r.s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r groupRepo) FindByID(_ context.Context, id int64) (*types.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (r groupRepo) Save(_ context.Context, g *types.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if g.ID == 0 {
		r.s.nextID.group++
		g.ID = r.s.nextID.group
	}
	r.s.groups[g.ID] = *g
	return nil
}
