package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"linenloft/internal/domain"
	"linenloft/internal/repos"
)

var (
	ErrBadCreds   = errors.New("invalid email or password")
	ErrEmailTaken = errors.New("email already registered")
)

// SessionTTL matches the sid cookie expiry.
const SessionTTL = 24 * time.Hour

const resetTokenTTL = 30 * time.Minute

type AuthService struct {
	Users *repos.UserRepo
	// Secret signs password-reset tokens (shared with the session cookie
	// secret; reset tokens are stateless so there is no token table).
	Secret string
}

func (s *AuthService) Register(sid, email, name, password string) (*domain.User, error) {
	if _, err := s.Users.ByEmail(email); err == nil {
		return nil, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Hash:  string(hash),
		Role:  domain.RoleCustomer,
	}
	if err := s.Users.Insert(u); err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(sid, u.ID, SessionTTL); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID, SessionTTL); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// ResetToken issues a short-lived signed token for the password-reset link.
// Returns the token and the recipient user, or ErrBadCreds when the email
// is unknown (callers should not reveal which).
func (s *AuthService) ResetToken(email string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return "", nil, ErrBadCreds
	}
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(resetTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

// ResetPassword validates the token and replaces the user's hash.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return errors.New("invalid or expired reset token")
	}
	claims := parsed.Claims.(*jwt.RegisteredClaims)
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), 12)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(claims.Subject, string(hash))
}
