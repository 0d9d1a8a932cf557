package repository

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type Admin struct {
	Username     string
	PasswordHash string
}

type AdminAuthRepository interface {
	GetByUsername(username string) (*Admin, error)
	CreateNewUser(username, password string) error
}

// adminAuthRepository keeps staff accounts in memory. The account from
// configuration is seeded at start-up with an already hashed password.
type adminAuthRepository struct {
	mu     sync.RWMutex
	admins map[string]Admin
}

func NewAdminAuthRepository(seed ...Admin) AdminAuthRepository {
	r := &adminAuthRepository{admins: make(map[string]Admin)}
	for _, a := range seed {
		if a.Username == "" || a.PasswordHash == "" {
			continue
		}
		r.admins[strings.ToLower(a.Username)] = a
	}
	return r
}

// GetByUsername returns nil, nil when the account does not exist.
func (r *adminAuthRepository) GetByUsername(username string) (*Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admin, ok := r.admins[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return nil, nil
	}
	return &admin, nil
}

func (r *adminAuthRepository) CreateNewUser(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.New("username and password cannot be empty")
	}
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(username)
	if _, exists := r.admins[key]; exists {
		return errors.New("admin already exists")
	}
	r.admins[key] = Admin{Username: username, PasswordHash: hashedPassword}
	return nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hashed), err
}
