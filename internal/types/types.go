// Package types holds all shared data structures (models) used across
// the application. Handlers, service, storage and utils import types
// without depending on each other.
package types

import "time"

// Student represents one enrolled person ("alumno").
//
// The JSON keys keep the names the school's front end already uses, so the
// Go field names and the wire names differ on purpose.
type Student struct {
	ID              int64   `json:"id"`
	FirstName       string  `json:"nombre"`
	PaternalSurname string  `json:"apellido_paterno"`
	MaternalSurname string  `json:"apellido_materno"`
	ControlNumber   string  `json:"num_control_escolar"`
	Email           string  `json:"correo_electronico"`
	Phone           string  `json:"num_telefono"`
	ProfileImage    *string `json:"imagen_perfil"`

	// Group is nil when the student has not been assigned to one.
	Group *Group `json:"grupo"`

	// Incidents are read-only from this service; they are loaded on reads.
	Incidents []Incident `json:"incidencias"`
}

// Group is a class/cohort a Student may belong to.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre" validate:"required"`
}

// Incident is a disciplinary or attendance record attached to a Student.
type Incident struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"alumno_id"`
	Description string    `json:"descripcion"`
	Date        time.Time `json:"fecha"`
}

// CreateStudentRequest is the validated payload for creating a student.
//
// validate:"..." tags are checked by go-playground/validator.
// ProfileImage is accepted on the wire but never stored as sent; the saved
// value is the upload URL, or null without a file.
type CreateStudentRequest struct {
	FirstName       string  `json:"nombre"              validate:"required"`
	PaternalSurname string  `json:"apellido_paterno"    validate:"required"`
	MaternalSurname string  `json:"apellido_materno"    validate:"required"`
	ControlNumber   string  `json:"num_control_escolar" validate:"required"`
	Email           string  `json:"correo_electronico"  validate:"required,email"`
	Phone           string  `json:"num_telefono"        validate:"required"`
	ProfileImage    *string `json:"imagen_perfil"`
	GroupID         *int64  `json:"grupoId"`
}

// UpdateStudentRequest is the partial counterpart of CreateStudentRequest.
// A nil pointer means "leave unchanged"; a present value must satisfy the
// same rules as on create.
type UpdateStudentRequest struct {
	FirstName       *string `json:"nombre"              validate:"omitempty,min=1"`
	PaternalSurname *string `json:"apellido_paterno"    validate:"omitempty,min=1"`
	MaternalSurname *string `json:"apellido_materno"    validate:"omitempty,min=1"`
	ControlNumber   *string `json:"num_control_escolar" validate:"omitempty,min=1"`
	Email           *string `json:"correo_electronico"  validate:"omitempty,email"`
	Phone           *string `json:"num_telefono"        validate:"omitempty,min=1"`
	ProfileImage    *string `json:"imagen_perfil"`
	GroupID         *int64  `json:"grupoId"`
}

// StudentPatch is the set of scalar columns a partial update touches.
// It is UpdateStudentRequest without the group reference.
type StudentPatch struct {
	FirstName       *string
	PaternalSurname *string
	MaternalSurname *string
	ControlNumber   *string
	Email           *string
	Phone           *string
	ProfileImage    *string
}

// Empty reports whether the patch changes nothing.
func (p StudentPatch) Empty() bool {
	return p.FirstName == nil && p.PaternalSurname == nil && p.MaternalSurname == nil &&
		p.ControlNumber == nil && p.Email == nil && p.Phone == nil && p.ProfileImage == nil
}

// Apply copies every present field of the patch onto s.
func (p StudentPatch) Apply(s *Student) {
	if p.FirstName != nil {
		s.FirstName = *p.FirstName
	}
	if p.PaternalSurname != nil {
		s.PaternalSurname = *p.PaternalSurname
	}
	if p.MaternalSurname != nil {
		s.MaternalSurname = *p.MaternalSurname
	}
	if p.ControlNumber != nil {
		s.ControlNumber = *p.ControlNumber
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.ProfileImage != nil {
		v := *p.ProfileImage
		s.ProfileImage = &v
	}
}

// Split separates the group reference from the scalar fields.
func (r CreateStudentRequest) Split() (*int64, Student) {
	s := Student{
		FirstName:       r.FirstName,
		PaternalSurname: r.PaternalSurname,
		MaternalSurname: r.MaternalSurname,
		ControlNumber:   r.ControlNumber,
		Email:           r.Email,
		Phone:           r.Phone,
		ProfileImage:    r.ProfileImage,
	}
	return r.GroupID, s
}

// Split separates the group reference from the scalar fields.
func (r UpdateStudentRequest) Split() (*int64, StudentPatch) {
	return r.GroupID, StudentPatch{
		FirstName:       r.FirstName,
		PaternalSurname: r.PaternalSurname,
		MaternalSurname: r.MaternalSurname,
		ControlNumber:   r.ControlNumber,
		Email:           r.Email,
		Phone:           r.Phone,
		ProfileImage:    r.ProfileImage,
	}
}
