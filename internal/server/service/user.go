package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/gopool/internal/server/core"
	"github.com/nemanja-m/gopool/internal/shared/logging"
)

const maxNameLength = 128

type userService struct {
	userStore core.UserStore
	executor  core.Executor
	logger    logging.Logger
}

func NewUserService(userStore core.UserStore, executor core.Executor, logger logging.Logger) core.UserService {
	return &userService{
		userStore: userStore,
		executor:  executor,
		logger:    logger,
	}
}

func (s *userService) CreateUser(ctx context.Context, name string) (*core.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", core.ErrInvalidUser)
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name exceeds %d characters", core.ErrInvalidUser, maxNameLength)
	}

	user := &core.User{
		ID:        uuid.New(),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	err := s.run(ctx, func() error {
		return s.userStore.AddUser(user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User created", "user_id", user.ID.String())
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	var user *core.User
	err := s.run(ctx, func() (err error) {
		user, err = s.userStore.GetUserByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUsers(ctx context.Context, filter core.UserFilter) ([]*core.User, int, error) {
	var (
		users []*core.User
		total int
	)
	err := s.run(ctx, func() (err error) {
		users, total, err = s.userStore.GetUsers(filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *userService) DeactivateUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	var user *core.User
	err := s.run(ctx, func() error {
		found, err := s.userStore.GetUserByID(id)
		if err != nil {
			return err
		}
		found.Active = false
		if err := s.userStore.UpdateUser(found); err != nil {
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User deactivated", "user_id", id.String())
	return user, nil
}

// run executes fn as a pool job and waits for it or for ctx. Results are
// only read after the job signalled completion.
func (s *userService) run(ctx context.Context, fn func() error) error {
	var fnErr error
	done, err := s.executor.SubmitWithResult(func() {
		fnErr = fn()
	})
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	select {
	case jobErr := <-done:
		if jobErr != nil {
			s.logger.Error("User job failed", "error", jobErr)
			return jobErr
		}
		return fnErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
