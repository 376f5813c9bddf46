package signup

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-storefront/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultTokenTTL = 30 * 24 * time.Hour
	DefaultIssuer   = "simple-storefront"
)

// SignupService registers users and issues their tokens
type SignupService struct {
	repo     UserRepository
	secret   []byte
	tokenTTL time.Duration
	issuer   string
	now      func() time.Time
}

type SignupServiceOption func(*SignupService)

func WithJwtSecret(secret string) SignupServiceOption {
	return func(s *SignupService) {
		s.secret = []byte(secret)
	}
}

func WithTokenTTL(ttl time.Duration) SignupServiceOption {
	return func(s *SignupService) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithIssuer(issuer string) SignupServiceOption {
	return func(s *SignupService) {
		s.issuer = issuer
	}
}

func WithClock(now func() time.Time) SignupServiceOption {
	return func(s *SignupService) {
		s.now = now
	}
}

func NewSignupService(repo UserRepository, opts ...SignupServiceOption) *SignupService {
	s := &SignupService{
		repo:     repo,
		secret:   []byte("very-secure-jwt-secret"),
		tokenTTL: DefaultTokenTTL,
		issuer:   DefaultIssuer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MsgPasswordTooLong is returned for passwords bcrypt cannot hash.
const MsgPasswordTooLong = "Password must be at most 72 bytes"

// RegisterUser validates the request, stores the user and returns it with a fresh token.
func (s *SignupService) RegisterUser(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return RegisterResponse{}, errors.New(errors.ErrCodeMissingRequired, "Name, email and password are required")
	}

	if _, exists, err := s.repo.FindByEmail(ctx, req.Email); err != nil {
		return RegisterResponse{}, errors.InternalWrap(err, "Failed to register user")
	} else if exists {
		return RegisterResponse{}, errors.New(errors.ErrCodeUserAlreadyExists, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if stderrors.Is(err, bcrypt.ErrPasswordTooLong) {
		return RegisterResponse{}, errors.New(errors.ErrCodeInvalidInput, MsgPasswordTooLong)
	}
	if err != nil {
		return RegisterResponse{}, errors.InternalWrap(err, "Failed to register user")
	}

	user, err := s.repo.Create(ctx, User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if stderrors.Is(err, ErrUserAlreadyExists) {
		return RegisterResponse{}, errors.New(errors.ErrCodeUserAlreadyExists, "User already exists")
	}
	if err != nil {
		return RegisterResponse{}, errors.InternalWrap(err, "Failed to register user")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return RegisterResponse{}, errors.InternalWrap(err, "Failed to register user")
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	return RegisterResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		Token:    token,
	}, nil
}

// TokenTTL is the lifetime of issued tokens.
func (s *SignupService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *SignupService) issueToken(user User) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies a token issued by this service and returns its subject.
func (s *SignupService) ParseToken(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
