package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prowe12/plantswap/internal/models"
)

// MemoryStore keeps users and listings in process memory. It backs
// LISTING_BACKEND=memory and the package tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]models.User
	shares   map[int64]models.Share
	requests map[int64]models.Request
	lastID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]models.User),
		shares:   make(map[int64]models.Share),
		requests: make(map[int64]models.Request),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, username, passwordHash string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, ErrDuplicate
	}
	s.lastID++
	u := models.User{
		ID:           s.lastID,
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	s.users[username] = u
	return &u, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) SetActive(ctx context.Context, username string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = active
	s.users[username] = u
	return nil
}

// Remove deletes a user outright. Nothing in the HTTP surface calls it; tests
// use it to model a subject that disappeared after its token was minted.
func (s *MemoryStore) Remove(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, username)
}

func (s *MemoryStore) CreateShare(ctx context.Context, sh *models.Share) (*models.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	out := *sh
	out.ID = s.lastID
	out.PhotoKey = ""
	s.shares[out.ID] = out
	return &out, nil
}

func (s *MemoryStore) ListShares(ctx context.Context) ([]models.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Share, 0, len(s.shares))
	for _, sh := range s.shares {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetShare(ctx context.Context, id int64) (*models.Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shares[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &sh, nil
}

func (s *MemoryStore) DeleteShare(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shares[id]; !ok {
		return ErrNotFound
	}
	delete(s.shares, id)
	return nil
}

func (s *MemoryStore) SetSharePhoto(ctx context.Context, id int64, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shares[id]
	if !ok {
		return ErrNotFound
	}
	sh.PhotoKey = key
	s.shares[id] = sh
	return nil
}

func (s *MemoryStore) CreateRequest(ctx context.Context, rq *models.Request) (*models.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	out := *rq
	out.ID = s.lastID
	s.requests[out.ID] = out
	return &out, nil
}

func (s *MemoryStore) ListRequests(ctx context.Context) ([]models.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Request, 0, len(s.requests))
	for _, rq := range s.requests {
		out = append(out, rq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) DeleteRequest(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return ErrNotFound
	}
	delete(s.requests, id)
	return nil
}
