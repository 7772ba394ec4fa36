// Package service holds the business rules that sit between the HTTP
// handlers and the storage/upload gateways.
package service

import (
	"context"
	"log/slog"

	"github.com/aanand-mishra/alumnos-api/internal/apperrors"
	"github.com/aanand-mishra/alumnos-api/internal/storage"
	"github.com/aanand-mishra/alumnos-api/internal/types"
	"github.com/aanand-mishra/alumnos-api/internal/upload"
)

// StudentService exposes the five student operations.
//
// Every method either fully succeeds or returns an *apperrors.Error whose
// Kind is ErrNotFound or the operation's generic failure kind. The
// underlying cause is logged, not returned.
type StudentService struct {
	students storage.StudentRepository
	groups   storage.GroupRepository
	uploader upload.Uploader
	log      *slog.Logger
}

// NewStudentService wires the service to its gateways. A nil logger falls
// back to slog.Default().
func NewStudentService(students storage.StudentRepository, groups storage.GroupRepository,
	uploader upload.Uploader, log *slog.Logger) *StudentService {
	if log == nil {
		log = slog.Default()
	}
	return &StudentService{students: students, groups: groups, uploader: uploader, log: log}
}

// FindAll returns every student with group and incidents.
func (s *StudentService) FindAll(ctx context.Context) ([]types.Student, error) {
	students, err := s.students.Find(ctx)
	if err != nil {
		s.log.Error("error getting students", slog.String("error", err.Error()))
		return nil, apperrors.New(apperrors.ErrRetrievalFailed, "error getting students")
	}
	return students, nil
}

// FindOne returns the student with the given id.
func (s *StudentService) FindOne(ctx context.Context, id int64) (*types.Student, error) {
	st, err := s.students.FindByID(ctx, id)
	if err != nil {
		s.log.Error("error getting student",
			slog.Int64("id", id),
			slog.String("error", err.Error()))
		return nil, apperrors.New(apperrors.ErrRetrievalFailed, "error getting student")
	}
	if st == nil {
		return nil, apperrors.NotFound("student", id)
	}
	return st, nil
}

// Create stores a new student.
//
// imagen_perfil is only ever the upload URL: when file is non-nil it is
// uploaded to folder first, otherwise the field is saved as null. A group id that does not resolve is
// logged and ignored. Any failure, upload included, is ErrCreationFailed;
// an image uploaded before a failed save is not removed.
func (s *StudentService) Create(ctx context.Context, req types.CreateStudentRequest,
	file *upload.File, folder string) (*types.Student, error) {
	fail := func(step string, err error) error {
		s.log.Error("error creating student",
			slog.String("step", step),
			slog.String("error", err.Error()))
		return apperrors.New(apperrors.ErrCreationFailed, "error creating student")
	}

	groupID, st := req.Split()

	st.ProfileImage = nil
	if file != nil {
		res, err := s.uploader.UploadFile(ctx, *file, folder)
		if err != nil {
			return nil, fail("upload", err)
		}
		url := res.URL
		st.ProfileImage = &url
	}

	if groupID != nil && *groupID != 0 {
		group, err := s.groups.FindByID(ctx, *groupID)
		if err != nil {
			return nil, fail("group lookup", err)
		}
		if group != nil {
			st.Group = group
		} else {
			s.log.Warn("group not found", slog.Int64("grupoId", *groupID))
		}
	}

	if err := s.students.Save(ctx, &st); err != nil {
		return nil, fail("save", err)
	}

	s.log.Info("student created", slog.Int64("id", st.ID))
	return &st, nil
}

// Update applies the present fields of req to the student and, when a
// group id resolves, reassigns the group. An unknown group id leaves the
// current group as it is.
func (s *StudentService) Update(ctx context.Context, id int64, req types.UpdateStudentRequest) (*types.Student, error) {
	fail := func(step string, err error) error {
		s.log.Error("error updating student",
			slog.Int64("id", id),
			slog.String("step", step),
			slog.String("error", err.Error()))
		return apperrors.New(apperrors.ErrUpdateFailed, "error updating student")
	}

	groupID, patch := req.Split()

	if _, err := s.students.Update(ctx, id, patch); err != nil {
		return nil, fail("update", err)
	}

	// NotFound (and RetrievalFailed) from the re-fetch pass through as is.
	st, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if groupID != nil && *groupID != 0 {
		group, err := s.groups.FindByID(ctx, *groupID)
		if err != nil {
			return nil, fail("group lookup", err)
		}
		if group != nil {
			st.Group = group
		}
	}

	if err := s.students.Save(ctx, st); err != nil {
		return nil, fail("save", err)
	}

	s.log.Info("student updated", slog.Int64("id", id))
	return st, nil
}

// Remove deletes the student; ErrNotFound when no row was deleted.
func (s *StudentService) Remove(ctx context.Context, id int64) error {
	affected, err := s.students.Delete(ctx, id)
	if err != nil {
		s.log.Error("error deleting student",
			slog.Int64("id", id),
			slog.String("error", err.Error()))
		return apperrors.New(apperrors.ErrDeletionFailed, "error deleting student")
	}
	if affected == 0 {
		return apperrors.NotFound("student", id)
	}
	s.log.Info("student deleted", slog.Int64("id", id))
	return nil
}
