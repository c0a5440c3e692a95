// Package auth guards the operator endpoints with a bearer token whose
// bcrypt hash is configured at startup.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin access is not configured")
)

// Service checks admin tokens
type Service struct {
	hash []byte
}

// New creates a Service for the given bcrypt hash. An empty hash
// disables admin access entirely.
func New(hash string) (*Service, error) {
	if hash == "" {
		return &Service{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("admin token hash: %w", err)
	}
	return &Service{hash: []byte(hash)}, nil
}

// Enabled reports whether a token hash is configured
func (s *Service) Enabled() bool {
	return len(s.hash) > 0
}

// Verify checks token against the configured hash
func (s *Service) Verify(token string) error {
	if !s.Enabled() {
		return ErrAdminDisabled
	}
	if token == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(token)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashToken returns the bcrypt hash to configure for token
func HashToken(token string, cost int) (string, error) {
	if token == "" {
		return "", ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateToken returns a random URL-safe token
func GenerateToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
