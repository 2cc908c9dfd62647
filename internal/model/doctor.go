package model

import "github.com/google/uuid"

// Doctor receives escalated consultations and records second opinions.
type Doctor struct {
	Base
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	PhoneNumber    string    `json:"phoneNumber" db:"phone_number"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Specialization string    `json:"specialization" db:"specialization"`
	Qualifications string    `json:"qualifications" db:"qualifications"`
	IsAvailable    bool      `json:"isAvailable" db:"is_available"`
	AddedBy        uuid.UUID `json:"addedBy" db:"added_by"`
}

// CreateDoctorRequest represents admin-side doctor provisioning
type CreateDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	PhoneNumber    string `json:"phoneNumber" binding:"required"`
	Password       string `json:"password" binding:"required,min=8"`
	Specialization string `json:"specialization" binding:"required"`
	Qualifications string `json:"qualifications" binding:"required"`
}

// DoctorProfile is the sanitized login response document. Location comes from
// the owning admin.
type DoctorProfile struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	PhoneNumber    string  `json:"phoneNumber"`
	Location       *string `json:"location,omitempty"`
	Specialization string  `json:"specialization"`
	Qualifications string  `json:"qualifications"`
}
