package auth_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/auth"
)

// memoryStorage is an in-memory PasswordStorage and MFAStorage for tests.
type memoryStorage struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*auth.User
	byEmail map[string]uuid.UUID
	hashes  map[uuid.UUID][]byte
	factors map[uuid.UUID]*auth.Factor

	failStoreHash bool
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		users:   make(map[uuid.UUID]*auth.User),
		byEmail: make(map[string]uuid.UUID),
		hashes:  make(map[uuid.UUID][]byte),
		factors: make(map[uuid.UUID]*auth.Factor),
	}
}

func (s *memoryStorage) CreateUser(_ context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return auth.ErrEmailAlreadyExists
	}
	copied := *user
	s.users[user.ID] = &copied
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *memoryStorage) GetUserByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memoryStorage) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	copied := *s.users[id]
	return &copied, nil
}

func (s *memoryStorage) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[id]; ok {
		delete(s.byEmail, user.Email)
		delete(s.users, id)
		delete(s.hashes, id)
	}
	return nil
}

func (s *memoryStorage) StorePasswordHash(_ context.Context, userID uuid.UUID, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failStoreHash {
		return context.DeadlineExceeded
	}
	s.hashes[userID] = hash
	return nil
}

func (s *memoryStorage) GetPasswordHash(_ context.Context, userID uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.hashes[userID]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return hash, nil
}

func (s *memoryStorage) CreateFactor(_ context.Context, factor *auth.Factor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *factor
	s.factors[factor.ID] = &copied
	return nil
}

func (s *memoryStorage) GetFactor(_ context.Context, id uuid.UUID) (*auth.Factor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	factor, ok := s.factors[id]
	if !ok {
		return nil, auth.ErrFactorNotFound
	}
	copied := *factor
	return &copied, nil
}

func (s *memoryStorage) ListFactors(_ context.Context, userID uuid.UUID) ([]*auth.Factor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*auth.Factor
	for _, factor := range s.factors {
		if factor.UserID == userID {
			copied := *factor
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memoryStorage) MarkFactorVerified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	factor, ok := s.factors[id]
	if !ok {
		return auth.ErrFactorNotFound
	}
	factor.Verified = true
	return nil
}

func (s *memoryStorage) DeleteFactor(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.factors, id)
	return nil
}
