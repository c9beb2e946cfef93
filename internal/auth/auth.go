// Package auth registers accounts and issues signed tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"socialhub/internal/apperr"
	"socialhub/internal/model"
	"socialhub/internal/store"
)

const (
	// BcryptCost matches the cost of the hashes already stored by earlier deployments.
	BcryptCost = 10
	Issuer     = "socialhub"
)

// Claims is the JWT payload issued on register and login.
type Claims struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
	jwt.RegisteredClaims
}

// Service hashes passwords and signs tokens on top of a UserStore.
type Service struct {
	users  store.UserStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	cost   int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for iat / exp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService returns a Service signing HS256 tokens with secret.
func NewService(users store.UserStore, secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		cost:   BcryptCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and returns a token for it.
func (s *Service) Register(ctx context.Context, login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if err := requireCredentials("auth.register", login, password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth.register: hash: %w", err)
	}

	u, err := s.users.CreateUser(ctx, login, string(hash))
	if err != nil {
		return "", err
	}
	return s.issue(u)
}

// Login verifies the password of an existing account and returns a token.
// An unknown login and a wrong password fail the same way.
func (s *Service) Login(ctx context.Context, login, password string) (string, error) {
	login = strings.TrimSpace(login)
	if err := requireCredentials("auth.login", login, password); err != nil {
		return "", err
	}

	u, err := s.users.UserByLogin(ctx, login)
	if apperr.IsNotFound(err) {
		return "", apperr.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", apperr.ErrInvalidCredentials
	}
	return s.issue(u)
}

// ParseToken validates a token and returns its claims.
func (s *Service) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(apperr.ErrInvalidCredentials, err)
	}
	return claims, nil
}

// AuthorizeSender checks that token is valid and was issued to sender.
func (s *Service) AuthorizeSender(token, sender string) error {
	if token == "" {
		return apperr.ErrInvalidCredentials
	}
	claims, err := s.ParseToken(token)
	if err != nil {
		return err
	}
	if claims.Login != sender {
		return fmt.Errorf("%w: token issued to %q", apperr.ErrInvalidCredentials, claims.Login)
	}
	return nil
}

func (s *Service) issue(u model.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: u.ID,
		Login:  u.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   u.Login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

func requireCredentials(op, login, password string) error {
	if login == "" {
		return apperr.ValidationError{Op: op, Field: "login"}
	}
	if password == "" {
		return apperr.ValidationError{Op: op, Field: "password"}
	}
	return nil
}
