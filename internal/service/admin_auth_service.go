package service

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bobbystable/internal/auth"
	"bobbystable/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminAuthService interface {
	Login(username, password string) (token string, expires time.Time, err error)
	CreateAdmin(username, password string) error
}

type adminAuthService struct {
	repo   repository.AdminAuthRepository
	tokens *auth.TokenIssuer
}

func NewAdminAuthService(repo repository.AdminAuthRepository, tokens *auth.TokenIssuer) AdminAuthService {
	return &adminAuthService{repo: repo, tokens: tokens}
}

func (s *adminAuthService) Login(username, password string) (string, time.Time, error) {
	admin, err := s.repo.GetByUsername(username)
	if err != nil {
		return "", time.Time{}, err
	}
	if admin == nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return s.tokens.Issue(admin.Username, auth.RoleAdmin, auth.AdminTokenTTL)
}

func (s *adminAuthService) CreateAdmin(username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password cannot be empty")
	}
	return s.repo.CreateNewUser(username, password)
}
