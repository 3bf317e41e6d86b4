package models

import (
	"time"
)

// Role IDs seeded in the roles table.
const (
	RoleStudent = 1
	RoleAdmin   = 2
)

type User struct {
	UserID      int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname   string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname   string     `gorm:"column:user_lname" json:"user_lname"`
	Email       string     `gorm:"column:email;unique" json:"email"`
	Password    string     `gorm:"column:password" json:"-"`
	RoleID      int        `gorm:"column:role_id" json:"role_id"`
	Phone       *string    `gorm:"column:phone" json:"phone,omitempty"`
	DateOfBirth *time.Time `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	Address     *string    `gorm:"column:address" json:"address,omitempty"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

func (u *User) FullName() string {
	return u.UserFname + " " + u.UserLname
}

func (u *User) IsAdmin() bool {
	return u.RoleID == RoleAdmin
}
