package domain

import "time"

// Identity is the caller resolved from a bearer credential.
type Identity struct {
	UserID   string
	Email    string
	FullName string
}

// Profile mirrors the per-user row created on first sign-in.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
