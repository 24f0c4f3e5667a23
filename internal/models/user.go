package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null" json:"-"`
	Role      string `gorm:"not null;default:'user'"`
	Version   int    `gorm:"default:1"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
