package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/repository"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// response does not reveal which accounts exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrAccountDisabled indicates the account exists but has been deactivated.
var ErrAccountDisabled = errors.New("account is disabled")

// ErrSessionNotFound indicates the session was revoked or has expired.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// AuthService handles sign-in, sign-out and session introspection. Tokens
// are HMAC-signed JWTs; each carries a jti that must still exist in redis,
// so sign-out revokes a token before its exp claim lapses.
type AuthService interface {
	SignIn(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	SignOut(ctx context.Context, sessionID string) error
	CurrentSession(ctx context.Context, actor Actor, sessionID string) (dto.SessionResponse, error)
	ValidateSession(ctx context.Context, sessionID string) error
}

type authService struct {
	users     repository.UserRepository
	redis     *redis.Client
	audit     AuditRecorder
	validator *validator.Validate
	secret    []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	users repository.UserRepository,
	redisClient *redis.Client,
	audit AuditRecorder,
	validate *validator.Validate,
	secret string,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &authService{
		users:     users,
		redis:     redisClient,
		audit:     audit,
		validator: validate,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) SignIn(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Email = email

	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn a comparison so response timing matches the wrong
			// password path.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv"), []byte(payload.Password))
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return dto.LoginResponse{}, ErrAccountDisabled
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	sessionID := uuid.NewString()

	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": user.Role,
		"jti":  sessionID,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if err := s.redis.Set(ctx, sessionKeyPrefix+sessionID, user.ID, s.tokenTTL).Err(); err != nil {
		return dto.LoginResponse{}, err
	}

	s.audit.Enqueue(AuditEntry{
		UserID:       user.ID,
		Action:       "sign_in",
		ResourceType: "session",
		Details:      map[string]interface{}{"role": user.Role},
	})

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user signed in")

	return dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        dto.NewUserResponse(user),
	}, nil
}

func (s *authService) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}

	deleted, err := s.redis.Del(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (s *authService) CurrentSession(ctx context.Context, actor Actor, sessionID string) (dto.SessionResponse, error) {
	if err := s.ValidateSession(ctx, sessionID); err != nil {
		return dto.SessionResponse{}, err
	}

	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrSessionNotFound
		}
		return dto.SessionResponse{}, err
	}

	ttl, err := s.redis.TTL(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return dto.SessionResponse{
		User:      dto.NewUserResponse(user),
		ExpiresAt: s.now().Add(ttl),
	}, nil
}

// ValidateSession reports whether the jti still maps to a live redis entry.
func (s *authService) ValidateSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionNotFound
	}

	exists, err := s.redis.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrSessionNotFound
	}

	return nil
}
