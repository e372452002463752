package storage

import (
	"cmp"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/nemanja-m/gopool/internal/server/core"
)

type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*core.User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		users: make(map[uuid.UUID]*core.User),
	}
}

func (s *InMemoryUserStore) AddUser(user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return core.ErrUserExists
	}
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemoryUserStore) UpdateUser(user *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; !exists {
		return core.ErrUserNotFound
	}
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *InMemoryUserStore) GetUserByID(id uuid.UUID) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[id]
	if !exists {
		return nil, core.ErrUserNotFound
	}
	found := *user
	return &found, nil
}

// GetUsers returns one page of users ordered by creation time, plus the
// number of users matching the filter.
func (s *InMemoryUserStore) GetUsers(filter core.UserFilter) ([]*core.User, int, error) {
	s.mu.RLock()
	matched := make([]*core.User, 0, len(s.users))
	for _, user := range s.users {
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		u := *user
		matched = append(matched, &u)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *core.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}
