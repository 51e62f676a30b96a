// Package user manages clinic members and backs the access and login stores
// with Postgres.
package user

import (
	"time"

	"github.com/google/uuid"
)

// Member is an actor seen through its membership of one clinic.
type Member struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	IsActive         bool       `json:"is_active"`
	Role             string     `json:"role"`
	MembershipActive bool       `json:"membership_active"`
	AssignedAt       time.Time  `json:"assigned_at"`
	LastLoginAt      *time.Time `json:"last_login_at"`
}

// NewActor is the data needed to register an actor.
type NewActor struct {
	Email        string
	Name         string
	PasswordHash string
	SystemRole   string
}

// AddRequest adds a member. Name and password are only needed when no actor
// with the email exists yet.
type AddRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"omitempty,max=255"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     string `json:"role" validate:"required,max=64"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required,max=64"`
}
