// Package gormstore implements the storage repositories with GORM, so the
// same code serves PostgreSQL in production and SQLite in development.
package gormstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/aanand-mishra/alumnos-api/internal/storage"
	"github.com/aanand-mishra/alumnos-api/internal/types"
)

// Row models. Field names follow the column names the school database
// already uses; GORM's naming strategy turns ApellidoPaterno into
// apellido_paterno.

type grupo struct {
	ID     int64  `gorm:"primaryKey"`
	Nombre string `gorm:"not null"`
}

func (grupo) TableName() string { return "grupos" }

type alumno struct {
	ID                int64   `gorm:"primaryKey"`
	Nombre            string  `gorm:"not null"`
	ApellidoPaterno   string  `gorm:"not null"`
	ApellidoMaterno   string  `gorm:"not null"`
	NumControlEscolar string  `gorm:"not null;uniqueIndex"`
	CorreoElectronico string  `gorm:"not null"`
	NumTelefono       string  `gorm:"not null"`
	ImagenPerfil      *string
	GrupoID           *int64
	Grupo             *grupo       `gorm:"foreignKey:GrupoID;constraint:OnDelete:SET NULL"`
	Incidencias       []incidencia `gorm:"foreignKey:AlumnoID;constraint:OnDelete:CASCADE"`
}

func (alumno) TableName() string { return "alumnos" }

type incidencia struct {
	ID          int64     `gorm:"primaryKey"`
	AlumnoID    int64     `gorm:"not null;index"`
	Descripcion string    `gorm:"not null"`
	Fecha       time.Time `gorm:"not null"`
}

func (incidencia) TableName() string { return "incidencias" }

// Store is a storage.Store on a *gorm.DB.
type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects with the given dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "gormstore.Open: connect")
	}
	if err := db.AutoMigrate(&grupo{}, &alumno{}, &incidencia{}); err != nil {
		return nil, errors.Wrap(err, "gormstore.Open: migrate")
	}
	return &Store{db: db}, nil
}

// NewPostgres opens a PostgreSQL database, e.g.
// "host=localhost user=app password=secret dbname=school port=5432 sslmode=disable".
func NewPostgres(dsn string) (*Store, error) {
	return Open(postgres.Open(dsn))
}

// NewSQLite opens a SQLite database file with foreign keys enforced.
func NewSQLite(path string) (*Store, error) {
	return Open(sqlite.Open(path + "?_foreign_keys=on"))
}

func (s *Store) Students() storage.StudentRepository { return studentRepo{s.db} }
func (s *Store) Groups() storage.GroupRepository     { return groupRepo{s.db} }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "gormstore.Close")
	}
	return sqlDB.Close()
}

// AddIncident inserts an incident for an existing student.
func (s *Store) AddIncident(ctx context.Context, inc *types.Incident) error {
	row := incidencia{AlumnoID: inc.StudentID, Descripcion: inc.Description, Fecha: inc.Date.UTC()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(err, "AddIncident")
	}
	inc.ID = row.ID
	return nil
}

func toStudent(a alumno) types.Student {
	st := types.Student{
		ID:              a.ID,
		FirstName:       a.Nombre,
		PaternalSurname: a.ApellidoPaterno,
		MaternalSurname: a.ApellidoMaterno,
		ControlNumber:   a.NumControlEscolar,
		Email:           a.CorreoElectronico,
		Phone:           a.NumTelefono,
		ProfileImage:    a.ImagenPerfil,
		Incidents:       make([]types.Incident, 0, len(a.Incidencias)),
	}
	if a.Grupo != nil {
		st.Group = &types.Group{ID: a.Grupo.ID, Name: a.Grupo.Nombre}
	}
	for _, i := range a.Incidencias {
		st.Incidents = append(st.Incidents, types.Incident{
			ID:          i.ID,
			StudentID:   i.AlumnoID,
			Description: i.Descripcion,
			Date:        i.Fecha,
		})
	}
	return st
}

type studentRepo struct{ db *gorm.DB }

func (r studentRepo) expanded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Grupo").
		Preload("Incidencias", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func (r studentRepo) Find(ctx context.Context) ([]types.Student, error) {
	var rows []alumno
	if err := r.expanded(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "Find")
	}
	students := make([]types.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, toStudent(row))
	}
	return students, nil
}

func (r studentRepo) FindByID(ctx context.Context, id int64) (*types.Student, error) {
	var row alumno
	err := r.expanded(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "FindByID")
	}
	st := toStudent(row)
	return &st, nil
}

func (r studentRepo) Update(ctx context.Context, id int64, patch types.StudentPatch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}
	values := map[string]any{}
	set := func(column string, v *string) {
		if v != nil {
			values[column] = *v
		}
	}
	set("nombre", patch.FirstName)
	set("apellido_paterno", patch.PaternalSurname)
	set("apellido_materno", patch.MaternalSurname)
	set("num_control_escolar", patch.ControlNumber)
	set("correo_electronico", patch.Email)
	set("num_telefono", patch.Phone)
	set("imagen_perfil", patch.ProfileImage)

	res := r.db.WithContext(ctx).Model(&alumno{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "Update")
	}
	return res.RowsAffected, nil
}

func (r studentRepo) Save(ctx context.Context, st *types.Student) error {
	var groupID *int64
	if st.Group != nil {
		id := st.Group.ID
		groupID = &id
	}

	if st.ID == 0 {
		row := alumno{
			Nombre:            st.FirstName,
			ApellidoPaterno:   st.PaternalSurname,
			ApellidoMaterno:   st.MaternalSurname,
			NumControlEscolar: st.ControlNumber,
			CorreoElectronico: st.Email,
			NumTelefono:       st.Phone,
			ImagenPerfil:      st.ProfileImage,
			GrupoID:           groupID,
		}
		if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
			return errors.Wrap(err, "Save: create")
		}
		st.ID = row.ID
		if st.Incidents == nil {
			st.Incidents = []types.Incident{}
		}
		return nil
	}

	err := r.db.WithContext(ctx).Model(&alumno{}).Where("id = ?", st.ID).Updates(map[string]any{
		"nombre":              st.FirstName,
		"apellido_paterno":    st.PaternalSurname,
		"apellido_materno":    st.MaternalSurname,
		"num_control_escolar": st.ControlNumber,
		"correo_electronico":  st.Email,
		"num_telefono":        st.Phone,
		"imagen_perfil":       st.ProfileImage,
		"grupo_id":            groupID,
	}).Error
	return errors.Wrap(err, "Save: update")
}

func (r studentRepo) Delete(ctx context.Context, id int64) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&alumno{}, id)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "Delete")
	}
	return res.RowsAffected, nil
}

type groupRepo struct{ db *gorm.DB }

func (r groupRepo) Find(ctx context.Context) ([]types.Group, error) {
	var rows []grupo
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "Groups.Find")
	}
	groups := make([]types.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, types.Group{ID: row.ID, Name: row.Nombre})
	}
	return groups, nil
}

func (r groupRepo) FindByID(ctx context.Context, id int64) (*types.Group, error) {
	var row grupo
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Groups.FindByID")
	}
	return &types.Group{ID: row.ID, Name: row.Nombre}, nil
}

func (r groupRepo) Save(ctx context.Context, g *types.Group) error {
	row := grupo{ID: g.ID, Nombre: g.Name}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return errors.Wrap(err, "Groups.Save")
	}
	g.ID = row.ID
	return nil
}
