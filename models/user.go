package models

import "time"

// Staff roles. The set is closed; every endpoint enumerates the roles it
// accepts instead of granting ADMIN an implicit bypass.
const (
	RoleAdmin       = "ADMIN"
	RoleSrRegistrar = "SR_REGISTRAR"
	RoleDO          = "DO"
)

// ValidRole reports whether name is one of the three staff roles.
func ValidRole(name string) bool {
	return name == RoleAdmin || name == RoleSrRegistrar || name == RoleDO
}

// User is a staff account (Admin, Senior Registrar or Dealing Officer).
// Complaints, logs, memos and disposals hold weak references to users:
// deleting a user cascades nothing and readers tolerate the missing join.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Username     string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255" json:"email"`
	PasswordHash []byte    `gorm:"not null" json:"-"`
	Role         string    `gorm:"size:32;not null;index" json:"role"`
}
