package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt hashes.
const MaxPasswordBytes = 72

type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type Service struct {
	users      UserRepository
	denyList   TokenDenyList
	tokens     tokenIssuer
	bcryptCost int
	now        func() time.Time
}

func NewService(users UserRepository, denyList TokenDenyList, opts Options) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		users:      users,
		denyList:   denyList,
		tokens:     tokenIssuer{secret: []byte(opts.Secret), ttl: opts.TokenTTL},
		bcryptCost: opts.BcryptCost,
		now:        time.Now,
	}
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &User{
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		ProfileImage: strings.TrimSpace(in.ProfileImage),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login returns a signed access token for valid credentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, _, err := s.tokens.issue(user, s.now())
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

// Logout deny-lists the caller's token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	ttl := id.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.denyList.Deny(ctx, id.Token, ttl)
}

func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.parse(token, s.now())
	if err != nil {
		return nil, ErrUnauthorized
	}

	denied, err := s.denyList.IsDenied(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("check deny-list: %w", err)
	}
	if denied {
		return nil, ErrUnauthorized
	}

	return &Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*User, error) {
	return s.users.FindByID(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
