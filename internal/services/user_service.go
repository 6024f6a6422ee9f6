package services

import (
	"context"
	"fmt"
	"strings"

	"salarydash/internal/core"
	"salarydash/internal/ports"
)

type UserService struct {
	store ports.UserStore
}

func NewUserService(store ports.UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) Register(ctx context.Context, u core.User) (core.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (core.User, error) {
	if id <= 0 {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrInvalidUser)
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}
