package models

import "time"

// Account roles. Stored lowercase; RBAC checks compare against these values.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User is an account in the system. Passwords are stored as bcrypt hashes
// only; the plaintext never reaches the persistence layer.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"size:255" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;index" json:"role"`
	SchoolID     *uint     `gorm:"index" json:"school_id"`
	// No column default: gorm omits zero-valued fields that carry one, which
	// would silently store a disabled account as active.
	IsActive     bool      `gorm:"not null" json:"is_active"`
	IsSuperAdmin bool      `gorm:"not null;default:false" json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	School       *School   `gorm:"foreignKey:SchoolID" json:"school,omitempty"`
}

// DisplayName returns the stored name, or a fixed placeholder when the
// account was provisioned without one.
func (u User) DisplayName() string {
	if u.Name == "" {
		return "Unnamed User"
	}
	return u.Name
}
