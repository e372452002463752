package core

import "github.com/google/uuid"

type UserStore interface {
	AddUser(user *User) error
	GetUserByID(id uuid.UUID) (*User, error)
	GetUsers(filter UserFilter) ([]*User, int, error)
	UpdateUser(user *User) error
}
