package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleIndividual UserRole = "individual"
	RoleLawyer     UserRole = "lawyer"
)

type User struct {
	ID          string    `json:"id" db:"id"`
	Email       string    `json:"email" db:"email"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Role        UserRole  `json:"role" db:"role"`
	BarNumber   string    `json:"bar_number,omitempty" db:"bar_number"`
	Locale      string    `json:"locale" db:"locale"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Principal is the verified identity attached to an authenticated request.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
}

type UpdateProfileRequest struct {
	DisplayName *string   `json:"display_name"`
	Role        *UserRole `json:"role"`
	BarNumber   *string   `json:"bar_number"`
	Locale      *string   `json:"locale"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.DisplayName != nil && len(strings.TrimSpace(*r.DisplayName)) > 120 {
		return fieldError("display_name", "must be at most 120 characters")
	}
	if r.Role != nil && *r.Role != RoleIndividual && *r.Role != RoleLawyer {
		return fieldError("role", "must be 'individual' or 'lawyer'")
	}
	if r.Locale != nil {
		switch *r.Locale {
		case "es-ES", "es-CO", "en":
		default:
			return fieldError("locale", "must be one of es-ES, es-CO, en")
		}
	}
	role := RoleIndividual
	if r.Role != nil {
		role = *r.Role
	}
	if role == RoleLawyer && r.BarNumber != nil && strings.TrimSpace(*r.BarNumber) == "" {
		return fieldError("bar_number", "is required for lawyers")
	}
	return nil
}
