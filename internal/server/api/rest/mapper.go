package rest

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/nemanja-m/gopool/internal/server/core"
	"github.com/nemanja-m/gopool/pkg/pool"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

func toUserResponse(user *core.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
		Links: Links{
			Self: fmt.Sprintf("/api/users/%s", user.ID.String()),
		},
	}
}

func toListUsersResponse(users []*core.User, total int, filter core.UserFilter) ListUsersResponse {
	resp := ListUsersResponse{
		Users:  make([]UserResponse, 0, len(users)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for _, user := range users {
		resp.Users = append(resp.Users, toUserResponse(user))
	}

	if end := filter.Offset + len(users); end < total {
		resp.NextOffset = &end
	}
	return resp
}

func toPoolStatsResponse(stats pool.Stats) PoolStatsResponse {
	return PoolStatsResponse{
		Size:      stats.Size,
		Workers:   stats.Workers,
		Idle:      stats.Idle,
		Executing: stats.Executing,
		Pending:   stats.Pending,
		Submitted: stats.Submitted,
		Completed: stats.Completed,
		Panicked:  stats.Panicked,
		Exited:    stats.Exited,
		Accepting: !stats.Closed,
	}
}

// parseUserFilter reads limit, offset and active from the query string.
func parseUserFilter(query url.Values) (core.UserFilter, error) {
	filter := core.UserFilter{Limit: defaultLimit}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return filter, fmt.Errorf("limit must be a positive integer")
		}
		filter.Limit = min(limit, maxLimit)
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	if activeStr := query.Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return filter, fmt.Errorf("active must be a boolean")
		}
		filter.Active = &active
	}

	return filter, nil
}
