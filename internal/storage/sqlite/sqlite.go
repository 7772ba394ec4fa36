// Package sqlite provides a SQLite-backed implementation of the storage
// repositories using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk. There is no network,
// no separate server process, and no installation beyond the driver.
//
// The blank import below registers the sqlite3 driver with database/sql.
// The driver's init() function does this automatically when the package
// is loaded.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/aanand-mishra/alumnos-api/internal/config"
	"github.com/aanand-mishra/alumnos-api/internal/storage"
	"github.com/aanand-mishra/alumnos-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// schema is idempotent and runs on every startup.
//
//	grupos       cohorts, referenced by alumnos.grupo_id
//	alumnos      students; num_control_escolar is unique
//	incidencias  read-only records, removed with their student
const schema = `
	CREATE TABLE IF NOT EXISTS grupos (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre TEXT    NOT NULL
	);
	CREATE TABLE IF NOT EXISTS alumnos (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre              TEXT NOT NULL,
		apellido_paterno    TEXT NOT NULL,
		apellido_materno    TEXT NOT NULL,
		num_control_escolar TEXT NOT NULL UNIQUE,
		correo_electronico  TEXT NOT NULL,
		num_telefono        TEXT NOT NULL,
		imagen_perfil       TEXT,
		grupo_id            INTEGER REFERENCES grupos(id) ON DELETE SET NULL
	);
	CREATE TABLE IF NOT EXISTS incidencias (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		alumno_id   INTEGER NOT NULL REFERENCES alumnos(id) ON DELETE CASCADE,
		descripcion TEXT    NOT NULL,
		fecha       DATETIME NOT NULL
	);
`

// studentColumns lists the SELECT columns in the order scanStudent reads them.
const studentColumns = `
	a.id, a.nombre, a.apellido_paterno, a.apellido_materno,
	a.num_control_escolar, a.correo_electronico, a.num_telefono,
	a.imagen_perfil, g.id, g.nombre
	FROM alumnos a LEFT JOIN grupos g ON g.id = a.grupo_id`

// SQLite is the concrete implementation of storage.Store.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Store = (*SQLite)(nil)

// New opens the SQLite database at cfg.Storage.Path, creates the tables if
// they do not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	// _foreign_keys=on makes SQLite honour the REFERENCES clauses above.
	db, err := sql.Open("sqlite3", cfg.Storage.Path+"?_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "sqlite.New: open db")
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite.New: create tables")
	}

	return &SQLite{Db: db}, nil
}

// Students returns the student repository backed by this database.
func (s *SQLite) Students() storage.StudentRepository { return &studentRepo{db: s.Db} }

// Groups returns the group repository backed by this database.
func (s *SQLite) Groups() storage.GroupRepository { return &groupRepo{db: s.Db} }

// Close releases the connection pool.
func (s *SQLite) Close() error { return s.Db.Close() }

// AddIncident inserts an incident for an existing student. Incidents are
// managed by another part of the school system; this exists for seeding.
func (s *SQLite) AddIncident(ctx context.Context, inc *types.Incident) error {
	res, err := s.Db.ExecContext(ctx,
		"INSERT INTO incidencias (alumno_id, descripcion, fecha) VALUES (?, ?, ?)",
		inc.StudentID, inc.Description, inc.Date.UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "AddIncident: exec")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "AddIncident: last insert id")
	}
	inc.ID = id
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

type studentRepo struct {
	db *sql.DB
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (types.Student, error) {
	var (
		st        types.Student
		image     sql.NullString
		groupID   sql.NullInt64
		groupName sql.NullString
	)
	err := row.Scan(
		&st.ID,
		&st.FirstName,
		&st.PaternalSurname,
		&st.MaternalSurname,
		&st.ControlNumber,
		&st.Email,
		&st.Phone,
		&image,
		&groupID,
		&groupName,
	)
	if err != nil {
		return types.Student{}, err
	}
	if image.Valid {
		st.ProfileImage = &image.String
	}
	if groupID.Valid {
		st.Group = &types.Group{ID: groupID.Int64, Name: groupName.String}
	}
	st.Incidents = []types.Incident{}
	return st, nil
}

func (r *studentRepo) Find(ctx context.Context) ([]types.Student, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+studentColumns+" ORDER BY a.id")
	if err != nil {
		return nil, errors.Wrap(err, "Find: query")
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)
	index := make(map[int64]int)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "Find: scan row")
		}
		index[st.ID] = len(students)
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Find: rows iteration")
	}

	incidents, err := r.incidents(ctx, "SELECT id, alumno_id, descripcion, fecha FROM incidencias ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "Find")
	}
	for _, inc := range incidents {
		if i, ok := index[inc.StudentID]; ok {
			students[i].Incidents = append(students[i].Incidents, inc)
		}
	}

	return students, nil
}

func (r *studentRepo) FindByID(ctx context.Context, id int64) (*types.Student, error) {
	stmt, err := r.db.PrepareContext(ctx, "SELECT "+studentColumns+" WHERE a.id = ? LIMIT 1")
	if err != nil {
		return nil, errors.Wrap(err, "FindByID: prepare")
	}
	defer stmt.Close()

	st, err := scanStudent(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if err == sql.ErrNoRows {
			// Absence is not an error at this layer; the service decides.
			return nil, nil
		}
		return nil, errors.Wrap(err, "FindByID: scan")
	}

	incidents, err := r.incidents(ctx,
		"SELECT id, alumno_id, descripcion, fecha FROM incidencias WHERE alumno_id = ? ORDER BY id", id)
	if err != nil {
		return nil, errors.Wrap(err, "FindByID")
	}
	st.Incidents = append(st.Incidents, incidents...)

	return &st, nil
}

func (r *studentRepo) incidents(ctx context.Context, query string, args ...any) ([]types.Incident, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "incidents: query")
	}
	defer rows.Close()

	var out []types.Incident
	for rows.Next() {
		var inc types.Incident
		if err := rows.Scan(&inc.ID, &inc.StudentID, &inc.Description, &inc.Date); err != nil {
			return nil, errors.Wrap(err, "incidents: scan row")
		}
		out = append(out, inc)
	}
	return out, errors.Wrap(rows.Err(), "incidents: rows iteration")
}

func (r *studentRepo) Update(ctx context.Context, id int64, patch types.StudentPatch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, v *string) {
		if v != nil {
			sets = append(sets, column+" = ?")
			args = append(args, *v)
		}
	}
	add("nombre", patch.FirstName)
	add("apellido_paterno", patch.PaternalSurname)
	add("apellido_materno", patch.MaternalSurname)
	add("num_control_escolar", patch.ControlNumber)
	add("correo_electronico", patch.Email)
	add("num_telefono", patch.Phone)
	add("imagen_perfil", patch.ProfileImage)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx,
		"UPDATE alumnos SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return 0, errors.Wrap(err, "Update: exec")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "Update: rows affected")
	}
	return affected, nil
}

func (r *studentRepo) Save(ctx context.Context, st *types.Student) error {
	var groupID sql.NullInt64
	if st.Group != nil {
		groupID = sql.NullInt64{Int64: st.Group.ID, Valid: true}
	}
	var image sql.NullString
	if st.ProfileImage != nil {
		image = sql.NullString{String: *st.ProfileImage, Valid: true}
	}

	if st.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO alumnos (nombre, apellido_paterno, apellido_materno,
				num_control_escolar, correo_electronico, num_telefono, imagen_perfil, grupo_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			st.FirstName, st.PaternalSurname, st.MaternalSurname,
			st.ControlNumber, st.Email, st.Phone, image, groupID,
		)
		if err != nil {
			return errors.Wrap(err, "Save: insert")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.Wrap(err, "Save: last insert id")
		}
		st.ID = id
		if st.Incidents == nil {
			st.Incidents = []types.Incident{}
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE alumnos SET nombre = ?, apellido_paterno = ?, apellido_materno = ?,
			num_control_escolar = ?, correo_electronico = ?, num_telefono = ?,
			imagen_perfil = ?, grupo_id = ?
		WHERE id = ?`,
		st.FirstName, st.PaternalSurname, st.MaternalSurname,
		st.ControlNumber, st.Email, st.Phone, image, groupID, st.ID,
	)
	return errors.Wrap(err, "Save: update")
}

func (r *studentRepo) Delete(ctx context.Context, id int64) (int64, error) {
	stmt, err := r.db.PrepareContext(ctx, "DELETE FROM alumnos WHERE id = ?")
	if err != nil {
		return 0, errors.Wrap(err, "Delete: prepare")
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return 0, errors.Wrap(err, "Delete: exec")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "Delete: rows affected")
	}
	return affected, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Groups
// ─────────────────────────────────────────────────────────────────────────────

type groupRepo struct {
	db *sql.DB
}

func (r *groupRepo) Find(ctx context.Context) ([]types.Group, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nombre FROM grupos ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "Groups.Find: query")
	}
	defer rows.Close()

	groups := make([]types.Group, 0)
	for rows.Next() {
		var g types.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, errors.Wrap(err, "Groups.Find: scan row")
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Groups.Find: rows iteration")
	}
	return groups, nil
}

func (r *groupRepo) FindByID(ctx context.Context, id int64) (*types.Group, error) {
	var g types.Group
	err := r.db.QueryRowContext(ctx, "SELECT id, nombre FROM grupos WHERE id = ? LIMIT 1", id).
		Scan(&g.ID, &g.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Groups.FindByID: scan")
	}
	return &g, nil
}

func (r *groupRepo) Save(ctx context.Context, g *types.Group) error {
	if g.ID != 0 {
		_, err := r.db.ExecContext(ctx, "UPDATE grupos SET nombre = ? WHERE id = ?", g.Name, g.ID)
		return errors.Wrap(err, "Groups.Save: update")
	}
	res, err := r.db.ExecContext(ctx, "INSERT INTO grupos (nombre) VALUES (?)", g.Name)
	if err != nil {
		return errors.Wrap(err, "Groups.Save: insert")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "Groups.Save: last insert id")
	}
	g.ID = id
	return nil
}
