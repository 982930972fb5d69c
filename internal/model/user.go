package model

import "time"

// Role is the authorization level of a user account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the server: it carries a
// `json:"-"` tag so that handlers may serialize a User directly.
//
// Fields:
//	ID           - UUID primary key.
//	Email        - unique address, stored lower-cased.
//	PasswordHash - bcrypt hash of the password.
//	Username     - optional display name.
//	Role         - USER or ADMIN.
//	CreatedAt    - timestamp of creation.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Username     *string   `json:"username"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserSummary is a user row enriched with the counters shown on the
// admin user list.
type UserSummary struct {
	User
	LibraryCount            int64 `json:"libraryCount"`
	ActiveSubscriptionCount int64 `json:"activeSubscriptionCount"`
}
