package model

import "github.com/google/uuid"

// Patient gender values
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Patient is registered by a worker and immutable thereafter.
type Patient struct {
	Base
	Name           string    `json:"name" db:"name"`
	Age            int       `json:"age" db:"age"`
	Gender         string    `json:"gender" db:"gender"`
	PhoneNumber    *string   `json:"phoneNumber,omitempty" db:"phone_number"`
	Address        *string   `json:"address,omitempty" db:"address"`
	MedicalHistory *string   `json:"medicalHistory,omitempty" db:"medical_history"`
	RegisteredBy   uuid.UUID `json:"registeredBy" db:"registered_by"`
}

// CreatePatientRequest represents worker-side patient registration
type CreatePatientRequest struct {
	Name           string  `json:"name" binding:"required"`
	Age            int     `json:"age" binding:"required,gt=0"`
	Gender         string  `json:"gender" binding:"required,oneof=male female other"`
	PhoneNumber    *string `json:"phoneNumber"`
	Address        *string `json:"address"`
	MedicalHistory *string `json:"medicalHistory"`
}
