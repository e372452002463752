package rest

import "time"

type CreateUserRequest struct {
	Name string `json:"name"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	Links     Links     `json:"links"`
}

type Links struct {
	Self string `json:"self"`
}

type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Total      int            `json:"total"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
	NextOffset *int           `json:"next_offset,omitempty"`
}

type PoolStatsResponse struct {
	Size      int    `json:"size"`
	Workers   int    `json:"workers"`
	Idle      int    `json:"idle"`
	Executing int    `json:"executing"`
	Pending   int    `json:"pending"`
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	Panicked  uint64 `json:"panicked"`
	Exited    uint64 `json:"exited"`
	Accepting bool   `json:"accepting"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
