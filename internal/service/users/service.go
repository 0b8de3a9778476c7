// Package users provides registration, authentication, and profile management.
package users

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/repository"
)

var (
	// ErrEmailTaken is returned when the email already belongs to an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound is returned when the user does not exist.
	ErrNotFound = errors.New("user not found")
)

// UserStore is the user persistence surface the service needs.
type UserStore interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	EmailTaken(email string, excludeID uint) (bool, error)
	UpdateProfile(id uint, name, email string) (*models.User, error)
	UpdatePassword(userID uint, hashed string) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Generate(userID uint) (string, error)
}

// Service handles account lifecycle and login.
type Service struct {
	repo   UserStore
	tokens TokenIssuer
}

// NewService creates a user service.
func NewService(repo UserStore, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Register creates an account and returns it with a session token.
func (s *Service) Register(name, email, password string) (*models.User, string, error) {
	email = normalizeEmail(email)

	taken, err := s.repo.EmailTaken(email, 0)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.repo.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a session token.
func (s *Service) Login(email, password string) (*models.User, string, error) {
	user, err := s.repo.GetByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Get returns a user by id.
func (s *Service) Get(userID uint) (*models.User, error) {
	user, err := s.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile edits name and email; empty fields keep their value.
func (s *Service) UpdateProfile(userID uint, name, email string) (*models.User, error) {
	user, err := s.Get(userID)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = user.Name
	}
	if email == "" {
		email = user.Email
	} else {
		email = normalizeEmail(email)
		if email != user.Email {
			taken, err := s.repo.EmailTaken(email, userID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken
			}
		}
	}

	return s.repo.UpdateProfile(userID, name, email)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(userID uint, current, next string) error {
	user, err := s.Get(userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(userID, string(hashed))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
