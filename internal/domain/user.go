package domain

import "time"

type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleSuperUser UserRole = "SUPER_USER"
)

type UserStatus string

const (
	UserPending  UserStatus = "PENDING"
	UserActive   UserStatus = "ACTIVE"
	UserDisabled UserStatus = "DISABLED"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserPending, UserActive, UserDisabled:
		return true
	}
	return false
}

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email" validate:"required,email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Role: u.Role, Status: u.Status}
}

// Identity is the requester as seen by the booking core.
type Identity struct {
	ID     int64
	Name   string
	Role   UserRole
	Status UserStatus
}

func (i Identity) IsAdmin() bool  { return i.Role == RoleSuperUser }
func (i Identity) IsActive() bool { return i.Status == UserActive }

// UserFilter narrows user listings. Query matches name, email or phone.
type UserFilter struct {
	Status UserStatus
	Query  string
	Limit  int
	Offset int
}
