package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
)

type Role struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Permissions []auth.Permission `json:"permissions"`
	CreatedAt   time.Time         `json:"created_at"`
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	RoleID       uuid.UUID `json:"role_id"`
	RoleName     string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Session struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	TokenHash  string    `json:"-"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// OnlineUser is a user with at least one session seen inside the presence window.
type OnlineUser struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Sessions   int       `json:"sessions"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
