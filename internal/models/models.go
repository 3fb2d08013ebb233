package models

import "time"

// Role gates privileged operations.
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
	RoleBanned Role = "banned"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin, RoleBanned:
		return true
	}
	return false
}

// User is an account as exposed on read paths. The password hash is never part of it.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Role      Role      `json:"type" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Credentials pairs a user with its password hash for verification only.
type Credentials struct {
	User
	PasswordHash string
}

// Artist is a performer in the catalog.
type Artist struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Song is a catalog track. Filename keys the audio asset served elsewhere.
type Song struct {
	ID       int64    `json:"id" db:"id"`
	Title    string   `json:"title" db:"title"`
	Filename string   `json:"filename" db:"filename"`
	Artists  []Artist `json:"artists"`
}

// Playlist is a user-owned set of songs.
type Playlist struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
	Songs     []Song    `json:"songs"`
}
