package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"orgalerts/database"
	"orgalerts/models"
	"orgalerts/utils"
)

// UserRepo implements userRepo.UserRepository.
type UserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	// GetErr forces GetByID to fail for the given user ids.
	GetErr map[string]error
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: map[string]*models.User{}, GetErr: map[string]error{}}
}

// Put seeds a user with a token.
func (r *UserRepo) Put(id, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = &models.User{ID: id, FCMToken: token}
}

// PutUser seeds a full user document.
func (r *UserRepo) PutUser(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := u
	r.users[u.ID] = &cp
}

// Token returns the stored token of a user.
func (r *UserRepo) Token(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u.FCMToken
	}
	return ""
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.GetErr[id]; err != nil {
		return nil, err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, database.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) SetToken(ctx context.Context, id, token, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		u = &models.User{ID: id}
		r.users[id] = u
	}
	now := time.Now()
	u.FCMToken = utils.NormalizeToken(token)
	u.Platform = platform
	u.TokenUpdatedAt = &now
	return nil
}

func (r *UserRepo) ClearToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, database.ErrNotFound)
	}
	u.FCMToken = ""
	u.Platform = ""
	return nil
}

func (r *UserRepo) ClearShortTokens(ctx context.Context, minLen int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.FCMToken == "" {
			continue
		}
		if !utils.IsPlausibleToken(u.FCMToken, minLen) {
			u.FCMToken = ""
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) CountWithTokens(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if strings.TrimSpace(u.FCMToken) != "" {
			n++
		}
	}
	return n, nil
}
