package model

// Admin is the root of an organization: every worker and doctor it provisions
// carries its id in added_by.
type Admin struct {
	Base
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	PhoneNumber  string `json:"phoneNumber" db:"phone_number"`
	Location     string `json:"location" db:"location"`
	PasswordHash string `json:"-" db:"password_hash"`
}

// RegisterAdminRequest represents admin self-registration parameters
type RegisterAdminRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
	Location    string `json:"location" binding:"required"`
}

// LoginRequest is shared by all three principal kinds
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
