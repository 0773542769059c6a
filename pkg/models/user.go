package models

import "time"

// User is an end customer. Created on first interaction when unknown.
type User struct {
	ID        string    `gorm:"column:user_id;primaryKey" json:"user_id"`
	FirstName string    `gorm:"column:first_name" json:"first_name,omitempty"`
	LastName  string    `gorm:"column:last_name" json:"last_name,omitempty"`
	Email     string    `gorm:"column:email;uniqueIndex" json:"email,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string { return "users" }

// FullName returns "first last", or "Guest" when both are unset.
func (u *User) FullName() string {
	switch {
	case u == nil:
		return "Guest"
	case u.FirstName == "" && u.LastName == "":
		return "Guest"
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}
