package service

import (
	"context"
	"log/slog"

	"github.com/aanand-mishra/alumnos-api/internal/apperrors"
	"github.com/aanand-mishra/alumnos-api/internal/storage"
	"github.com/aanand-mishra/alumnos-api/internal/types"
)

// GroupService lists and creates groups so students can be assigned to them.
type GroupService struct {
	groups storage.GroupRepository
	log    *slog.Logger
}

func NewGroupService(groups storage.GroupRepository, log *slog.Logger) *GroupService {
	if log == nil {
		log = slog.Default()
	}
	return &GroupService{groups: groups, log: log}
}

func (s *GroupService) List(ctx context.Context) ([]types.Group, error) {
	groups, err := s.groups.Find(ctx)
	if err != nil {
		s.log.Error("error getting groups", slog.String("error", err.Error()))
		return nil, apperrors.New(apperrors.ErrRetrievalFailed, "error getting groups")
	}
	return groups, nil
}

func (s *GroupService) Create(ctx context.Context, name string) (*types.Group, error) {
	g := &types.Group{Name: name}
	if err := s.groups.Save(ctx, g); err != nil {
		s.log.Error("error creating group", slog.String("error", err.Error()))
		return nil, apperrors.New(apperrors.ErrCreationFailed, "error creating group")
	}
	return g, nil
}
