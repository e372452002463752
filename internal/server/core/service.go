package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/nemanja-m/gopool/pkg/pool"
)

// UserService defines the interface for user management. Every call runs
// its storage work on the shared worker pool.
type UserService interface {
	CreateUser(ctx context.Context, name string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUsers(ctx context.Context, filter UserFilter) ([]*User, int, error)
	DeactivateUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// Executor is the part of the worker pool the services depend on.
type Executor interface {
	SubmitWithResult(job pool.Job) (<-chan error, error)
}

// PoolMonitor exposes pool state to the API and health reporting.
type PoolMonitor interface {
	Stats() pool.Stats
	Closed() bool
}
