package student

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/alumnos-api/internal/service"
	"github.com/aanand-mishra/alumnos-api/internal/storage/memory"
	"github.com/aanand-mishra/alumnos-api/internal/types"
	"github.com/aanand-mishra/alumnos-api/internal/upload"
	"github.com/aanand-mishra/alumnos-api/internal/utils/response"
)

type recordingUploader struct {
	folder   string
	filename string
	content  string
}

func (u *recordingUploader) UploadFile(_ context.Context, f upload.File, folder string) (upload.Result, error) {
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return upload.Result{}, err
	}
	u.folder, u.filename, u.content = folder, f.Filename, string(data)
	return upload.Result{URL: "https://cdn.example.com/" + folder + "/" + f.Filename}, nil
}

type env struct {
	router   http.Handler
	store    *memory.Store
	uploader *recordingUploader
}

func newEnv(t *testing.T) env {
	t.Helper()
	store := memory.New()
	up := &recordingUploader{}
	svc := service.NewStudentService(store.Students(), store.Groups(), up,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	Register(r, svc, UploadOptions{DefaultFolder: "alumnos", MaxBytes: 1 << 20})
	return env{router: r, store: store, uploader: up}
}

func (e env) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

const anaJSON = `{
	"nombre": "Ana",
	"apellido_paterno": "Ruiz",
	"apellido_materno": "Lopez",
	"num_control_escolar": "C001",
	"correo_electronico": "ana@x.com",
	"num_telefono": "555-0001"
}`

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCreateJSON(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/alumnos", strings.NewReader(anaJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	st := decode[types.Student](t, rec)
	assert.NotZero(t, st.ID)
	assert.Nil(t, st.ProfileImage)
	assert.Nil(t, st.Group)

	// imagen_perfil and grupo are present as explicit nulls.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "imagen_perfil")
	assert.Nil(t, raw["imagen_perfil"])
	assert.Contains(t, raw, "grupo")
	assert.Nil(t, raw["grupo"])
}

func TestCreateJSONAcceptsStringGroupID(t *testing.T) {
	e := newEnv(t)
	g := &types.Group{Name: "3A"}
	require.NoError(t, e.store.Groups().Save(context.Background(), g))

	body := strings.Replace(anaJSON, `"num_telefono"`, `"grupoId": "1", "num_telefono"`, 1)
	rec := e.do(http.MethodPost, "/api/alumnos", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	st := decode[types.Student](t, rec)
	require.NotNil(t, st.Group)
	assert.Equal(t, "3A", st.Group.Name)
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)

	body := strings.Replace(anaJSON, "ana@x.com", "not-an-email", 1)
	rec := e.do(http.MethodPost, "/api/alumnos", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decode[response.Response](t, rec)
	assert.Equal(t, "field correo_electronico must be a valid email address", res.Error)

	rec = e.do(http.MethodPost, "/api/alumnos", strings.NewReader(`{"nombre":"Ana"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[response.Response](t, rec).Error, "field apellido_paterno is required")

	rec = e.do(http.MethodPost, "/api/alumnos", strings.NewReader(""), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is empty", decode[response.Response](t, rec).Error)

	body = strings.Replace(anaJSON, `"num_telefono"`, `"grupoId": "abc", "num_telefono"`, 1)
	rec = e.do(http.MethodPost, "/api/alumnos", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartBody(t *testing.T, fields map[string]string, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withFile {
		fw, err := mw.CreateFormFile("file", "ana.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func anaFields() map[string]string {
	return map[string]string{
		"nombre":              "Ana",
		"apellido_paterno":    "Ruiz",
		"apellido_materno":    "Lopez",
		"num_control_escolar": "C001",
		"correo_electronico":  "ana@x.com",
		"num_telefono":        "555-0001",
		"imagen_perfil":       "https://example.com/ignored.jpg",
	}
}

func TestCreateMultipartWithFile(t *testing.T) {
	e := newEnv(t)
	fields := anaFields()
	fields["folder"] = "perfiles"

	body, ct := multipartBody(t, fields, true)
	rec := e.do(http.MethodPost, "/api/alumnos", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	st := decode[types.Student](t, rec)
	require.NotNil(t, st.ProfileImage)
	assert.Equal(t, "https://cdn.example.com/perfiles/ana.png", *st.ProfileImage)
	assert.Equal(t, "perfiles", e.uploader.folder)
	assert.Equal(t, "png-bytes", e.uploader.content)
}

func TestCreateMultipartDefaultsFolder(t *testing.T) {
	e := newEnv(t)

	body, ct := multipartBody(t, anaFields(), true)
	rec := e.do(http.MethodPost, "/api/alumnos", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "alumnos", e.uploader.folder)
}

func TestCreateMultipartWithoutFileSavesNullImage(t *testing.T) {
	e := newEnv(t)

	body, ct := multipartBody(t, anaFields(), false)
	rec := e.do(http.MethodPost, "/api/alumnos", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	st := decode[types.Student](t, rec)
	assert.Nil(t, st.ProfileImage)
	assert.Empty(t, e.uploader.folder)
}

func TestCreateMultipartRejectsNonIntegerGroup(t *testing.T) {
	e := newEnv(t)
	fields := anaFields()
	fields["grupoId"] = "tres"

	body, ct := multipartBody(t, fields, false)
	rec := e.do(http.MethodPost, "/api/alumnos", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "field grupoId must be an integer", decode[response.Response](t, rec).Error)
}

func TestCreateRejectsOversizedBody(t *testing.T) {
	store := memory.New()
	up := &recordingUploader{}
	svc := service.NewStudentService(store.Students(), store.Groups(), up,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	Register(r, svc, UploadOptions{DefaultFolder: "alumnos", MaxBytes: 512})
	e := env{router: r, store: store, uploader: up}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range anaFields() {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", "big.png")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := e.do(http.MethodPost, "/api/alumnos", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Equal(t, "request body exceeds 512 bytes", decode[response.Response](t, rec).Error)
	assert.Empty(t, up.folder)

	big := strings.Replace(anaJSON, "Ana", strings.Repeat("A", 1024), 1)
	rec = e.do(http.MethodPost, "/api/alumnos", strings.NewReader(big), "application/json")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())

	students, err := store.Students().Find(context.Background())
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestGetByIDAndList(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/api/alumnos", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = e.do(http.MethodPost, "/api/alumnos", strings.NewReader(anaJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[types.Student](t, rec)

	rec = e.do(http.MethodGet, "/api/alumnos/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[types.Student](t, rec).ID)

	rec = e.do(http.MethodGet, "/api/alumnos", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.Student](t, rec), 1)
}

func TestGetByIDErrors(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/api/alumnos/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodGet, "/api/alumnos/42", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "student with id 42 not found", decode[response.Response](t, rec).Error)
}

func TestUpdate(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/alumnos", strings.NewReader(anaJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(http.MethodPatch, "/api/alumnos/1", strings.NewReader(`{"nombre":"Ana Maria"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[types.Student](t, rec)
	assert.Equal(t, "Ana Maria", st.FirstName)
	assert.Equal(t, "Ruiz", st.PaternalSurname)

	rec = e.do(http.MethodPatch, "/api/alumnos/1", strings.NewReader(`{"correo_electronico":"nope"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodPatch, "/api/alumnos/99", strings.NewReader(`{"nombre":"X"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPost, "/api/alumnos", strings.NewReader(anaJSON), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(http.MethodDelete, "/api/alumnos/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"deleted"}`, rec.Body.String())

	rec = e.do(http.MethodDelete, "/api/alumnos/1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodGet, "/api/alumnos/1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
