package models

import "time"

// UserStatus tracks where an account is in its registration lifecycle.
type UserStatus string

const (
	StatusPending    UserStatus = "PENDING"
	StatusRegistered UserStatus = "REGISTERED"
	StatusDeleted    UserStatus = "DELETED"
)

// UserRole separates back-office administrators from regular company users.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User is the directory entry the fan-out engine selects recipients from.
// Authentication and subscription mechanics live with the auth collaborator;
// the core only reads these fields.
type User struct {
	ID          int64
	Username    string
	Active      bool
	LastLoginAt *time.Time
	Status      UserStatus
	Role        UserRole
}
