package model

import (
	"time"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

// User is the platform account referenced by conversations and exams.
// Identity resolution happens once per connection at AUTH time; the
// gateway only ever needs the id, role and display name.
type User struct {
	UserID      string    `bson:"user_id"`
	ExternalID  string    `bson:"external_id,omitempty"` // id in the upstream account system
	DisplayName string    `bson:"display_name"`
	Role        string    `bson:"role"`
	CreateTime  time.Time `bson:"create_time"`
}

const (
	UserFieldUserID      = "user_id"
	UserFieldExternalID  = "external_id"
	UserFieldDisplayName = "display_name"
	UserFieldRole        = "role"
)

func (u *User) GetTableName() string {
	return "users"
}
