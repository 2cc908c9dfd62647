package model

import "github.com/google/uuid"

// Worker is a frontline user provisioned by an admin. AddedBy is the owning
// admin and doubles as the organization id for scoping.
type Worker struct {
	Base
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	PhoneNumber    string    `json:"phoneNumber" db:"phone_number"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Qualifications string    `json:"qualifications" db:"qualifications"`
	Specialization *string   `json:"specialization,omitempty" db:"specialization"`
	AddedBy        uuid.UUID `json:"addedBy" db:"added_by"`
}

// CreateWorkerRequest represents admin-side worker provisioning
type CreateWorkerRequest struct {
	Name           string  `json:"name" binding:"required"`
	Email          string  `json:"email" binding:"required,email"`
	PhoneNumber    string  `json:"phoneNumber" binding:"required"`
	Password       string  `json:"password" binding:"required,min=8"`
	Qualifications string  `json:"qualifications" binding:"required"`
	Specialization *string `json:"specialization"`
}
