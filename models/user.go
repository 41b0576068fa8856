package models

import "time"

// UserRole mirrors the user_role ENUM in the database.
type UserRole string

const (
	RoleSuperAdmin UserRole = "super_admin"
	RoleClubAdmin  UserRole = "club_admin"
	RoleMember     UserRole = "member"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         UserRole  `json:"role" db:"role"`
	ClubID       *int      `json:"club_id,omitempty" db:"club_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CanManageClub reports whether the user may administer resources owned by clubID.
func (u *User) CanManageClub(clubID int) bool {
	if u.Role == RoleSuperAdmin {
		return true
	}
	return u.Role == RoleClubAdmin && u.ClubID != nil && *u.ClubID == clubID
}
