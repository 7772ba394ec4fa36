// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN: CLOSURE / FACTORY
// ────────────────────────────────────────────────────────────
// The router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// To inject dependencies we use a factory function that accepts the
// service and returns a function with exactly that signature:
//
//	r.Get("/api/alumnos/{id}", student.GetByID(svc))
//	//                                 ^^^^^^^^^^^^
//	//            GetByID(svc) is called ONCE at startup. It returns a
//	//            handler func which is called on EVERY incoming request.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/alumnos-api/internal/apperrors"
	"github.com/aanand-mishra/alumnos-api/internal/types"
	"github.com/aanand-mishra/alumnos-api/internal/upload"
	"github.com/aanand-mishra/alumnos-api/internal/utils/response"
	"github.com/aanand-mishra/alumnos-api/internal/utils/validation"
)

// Service is what the handlers need from the student service.
type Service interface {
	FindAll(ctx context.Context) ([]types.Student, error)
	FindOne(ctx context.Context, id int64) (*types.Student, error)
	Create(ctx context.Context, req types.CreateStudentRequest, file *upload.File, folder string) (*types.Student, error)
	Update(ctx context.Context, id int64, req types.UpdateStudentRequest) (*types.Student, error)
	Remove(ctx context.Context, id int64) error
}

// UploadOptions configure the multipart create endpoint.
type UploadOptions struct {
	// DefaultFolder is used when the form has no "folder" field.
	DefaultFolder string
	// MaxBytes bounds the whole request body.
	MaxBytes int64
}

const (
	fileField   = "file"
	folderField = "folder"
)

var validate = validation.New()

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/alumnos
//
// Accepts either multipart/form-data (scalar fields, optional grupoId,
// optional folder, optional file part "file") or a JSON body (no file).
//
// Success response (201 Created): the saved student.
//
// Error responses:
//
//	400 Bad Request:  empty body, malformed input, or failed validation
//	413 Too Large:    body exceeds UploadOptions.MaxBytes
//	500 Internal:     upload or database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(svc Service, opts UploadOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var (
			req    types.CreateStudentRequest
			file   *upload.File
			folder = opts.DefaultFolder
			err    error
		)

		if opts.MaxBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)
		}

		if isMultipart(r) {
			var closeFile func()
			req, file, closeFile, err = decodeMultipart(r, opts.MaxBytes)
			if err != nil {
				writeBadBody(w, err)
				return
			}
			defer closeFile()
			if f := strings.TrimSpace(r.FormValue(folderField)); f != "" {
				folder = f
			}
		} else {
			var body createBody
			if err := decodeJSON(r, &body); err != nil {
				writeBadBody(w, err)
				return
			}
			req = body.CreateStudentRequest
			if req.GroupID, err = coerceGroupID(body.GroupID); err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
		}

		if err := validate.Struct(req); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		student, err := svc.Create(r.Context(), req, file, folder)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		slog.Info("student created", slog.Int64("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/alumnos/{id}
//
// Error responses:
//
//	400 Bad Request:  id is not a valid integer
//	404 Not Found:    no student with that id
//	500 Internal:     database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a student", slog.Int64("id", id))

		student, err := svc.FindOne(r.Context(), id)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/alumnos
// Returns an empty array [] (not null) when there are no students.
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := svc.FindAll(r.Context())
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if students == nil {
			students = []types.Student{}
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PATCH /api/alumnos/{id}
// Changes only the fields present in the JSON body.
//
//	{ "nombre": "Ana Maria" }
//	{ "grupoId": 3 }
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student", slog.Int64("id", id))

		var body updateBody
		if err := decodeJSON(r, &body); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		req := body.UpdateStudentRequest
		var err error
		if req.GroupID, err = coerceGroupID(body.GroupID); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErrs validator.ValidationErrors
			if errors.As(err, &validateErrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		updated, err := svc.Update(r.Context(), id, req)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/alumnos/{id}
// Permanently removes a student record.
//
// Success response (200 OK):
//
//	{ "status": "deleted" }
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a student", slog.Int64("id", id))

		if err := svc.Remove(r.Context(), id); err != nil {
			response.WriteError(w, err)
			return
		}

		slog.Info("student deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// decoding helpers
// ─────────────────────────────────────────────────────────────────────────────

// createBody and updateBody shadow grupoId so it can arrive as a number or
// as a numeric string.
type createBody struct {
	types.CreateStudentRequest
	GroupID any `json:"grupoId"`
}

type updateBody struct {
	types.UpdateStudentRequest
	GroupID any `json:"grupoId"`
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return errors.New("request body is empty")
	}
	return err
}

// writeBadBody answers 413 when the body hit the MaxBytes limit, 400 otherwise.
func writeBadBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.WriteJSON(w, http.StatusRequestEntityTooLarge,
			response.GeneralError(fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)))
		return
	}
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

var errGroupID = apperrors.New(apperrors.ErrValidation, "field grupoId must be an integer")

// coerceGroupID accepts nil, a JSON number or a numeric string.
func coerceGroupID(v any) (*int64, error) {
	switch g := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if g != float64(int64(g)) {
			return nil, errGroupID
		}
		id := int64(g)
		return &id, nil
	case string:
		return parseGroupID(g)
	default:
		return nil, errGroupID
	}
}

func parseGroupID(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errGroupID
	}
	return &id, nil
}

// decodeMultipart reads the form fields and the optional file part. The
// returned close func must be called once the file has been consumed.
func decodeMultipart(r *http.Request, maxBytes int64) (types.CreateStudentRequest, *upload.File, func(), error) {
	noop := func() {}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return types.CreateStudentRequest{}, nil, noop, err
	}

	req := types.CreateStudentRequest{
		FirstName:       r.FormValue("nombre"),
		PaternalSurname: r.FormValue("apellido_paterno"),
		MaternalSurname: r.FormValue("apellido_materno"),
		ControlNumber:   r.FormValue("num_control_escolar"),
		Email:           r.FormValue("correo_electronico"),
		Phone:           r.FormValue("num_telefono"),
	}
	if img := r.FormValue("imagen_perfil"); img != "" {
		req.ProfileImage = &img
	}
	groupID, err := parseGroupID(r.FormValue("grupoId"))
	if err != nil {
		return types.CreateStudentRequest{}, nil, noop, err
	}
	req.GroupID = groupID

	f, header, err := r.FormFile(fileField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, noop, nil
	}
	if err != nil {
		return types.CreateStudentRequest{}, nil, noop, err
	}

	file := &upload.File{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     f,
	}
	return req, file, func() { f.Close() }, nil
}

// Register mounts the student routes on r.
//
//	POST   /api/alumnos        → create a new student
//	GET    /api/alumnos        → list all students
//	GET    /api/alumnos/{id}   → get one student by ID
//	PATCH  /api/alumnos/{id}   → update a student
//	DELETE /api/alumnos/{id}   → delete a student
func Register(r chi.Router, svc Service, opts UploadOptions) {
	r.Route("/api/alumnos", func(r chi.Router) {
		r.Post("/", New(svc, opts))
		r.Get("/", GetList(svc))
		r.Get("/{id}", GetByID(svc))
		r.Patch("/{id}", Update(svc))
		r.Delete("/{id}", Delete(svc))
	})
}
