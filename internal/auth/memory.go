package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ UserStore = (*InMemoryStore)(nil)

// InMemoryStore is a UserStore for tests and single-process development.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]*User
	byEmail map[string]int64
}

// NewInMemoryStore returns an empty in-memory user store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[int64]*User),
		byEmail: make(map[string]int64),
	}
}

func cloneUser(u *User) *User {
	copied := *u
	copied.Roles = append([]Role(nil), u.Roles...)
	return &copied
}

func (s *InMemoryStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return ErrConflict
	}
	s.nextID++
	u.ID = s.nextID
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.byID[u.ID] = cloneUser(u)
	s.byEmail[email] = u.ID
	return nil
}

func (s *InMemoryStore) Find(ctx context.Context, id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *InMemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *InMemoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*User, 0, len(s.byID))
	for _, u := range s.byID {
		users = append(users, cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *InMemoryStore) Update(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	newEmail := strings.ToLower(u.Email)
	oldEmail := strings.ToLower(existing.Email)
	if newEmail != oldEmail {
		if _, taken := s.byEmail[newEmail]; taken {
			return ErrConflict
		}
		delete(s.byEmail, oldEmail)
		s.byEmail[newEmail] = u.ID
	}
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.byID[u.ID] = cloneUser(u)
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(u.Email))
	delete(s.byID, id)
	return nil
}
