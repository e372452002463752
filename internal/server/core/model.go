package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidUser  = errors.New("invalid user")
)

type User struct {
	ID        uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

type UserFilter struct {
	Active *bool
	Limit  int
	Offset int
}
