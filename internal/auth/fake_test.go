package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/storage"
)

type memAccounts struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*db.Account
	createErr error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: make(map[uuid.UUID]*db.Account)}
}

func (m *memAccounts) Create(ctx context.Context, a *db.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.byID {
		if existing.Email == a.Email || existing.Username == a.Username {
			return db.ErrAccountExists
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.byID[a.ID] = &cp
	return nil
}

func (m *memAccounts) GetByID(ctx context.Context, id uuid.UUID) (*db.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, db.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*db.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, db.ErrAccountNotFound
}

func (m *memAccounts) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Email == email || a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memAccounts) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return db.ErrAccountNotFound
	}
	a.RefreshTokenHash.String = hash
	a.RefreshTokenHash.Valid = hash != ""
	return nil
}

func (m *memAccounts) SwapRefreshTokenHash(ctx context.Context, id uuid.UUID, oldHash, newHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || !a.RefreshTokenHash.Valid || a.RefreshTokenHash.String != oldHash {
		return false, nil
	}
	a.RefreshTokenHash.String = newHash
	return true, nil
}

// seed stores an account with the given password and returns it.
func (m *memAccounts) seed(email, username, password string) *db.Account {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	a := &db.Account{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		FullName:     "Test " + username,
		PasswordHash: string(hash),
		AvatarURL:    "http://cdn.local/avatars/" + username + ".png",
	}
	if err := m.Create(context.Background(), a); err != nil {
		panic(err)
	}
	return a
}

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    24 * time.Hour,
	}
}

func newTestService() (*Service, *memAccounts, *storage.MemoryStore) {
	accounts := newMemAccounts()
	media := storage.NewMemory("http://cdn.local/media")
	tokens := NewTokenService(accounts, testTokenConfig())
	return NewService(accounts, tokens, media, bcrypt.MinCost), accounts, media
}
