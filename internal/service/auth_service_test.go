package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bedaya-app/lms-api/internal/dto"
	"github.com/bedaya-app/lms-api/internal/models"
	"github.com/bedaya-app/lms-api/internal/repository"
)

func setupAuthService(t *testing.T) (AuthService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.School{}))

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	validate := validator.New(validator.WithRequiredStructEnabled())
	service := NewAuthService(repository.NewUserRepository(db), client, &stubAuditRecorder{}, validate, "test-secret", time.Hour, zerolog.Nop())

	return service, db
}

func createAccount(t *testing.T, db *gorm.DB, email, password, role string, active bool) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Email: email, Name: "Test User", PasswordHash: string(hash), Role: role, IsActive: active}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func sessionIDFromToken(t *testing.T, token string) string {
	t.Helper()
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	sessionID, ok := claims["jti"].(string)
	require.True(t, ok)
	require.NotEmpty(t, sessionID)
	return sessionID
}

func TestAuthSignInIssuesToken(t *testing.T) {
	service, db := setupAuthService(t)
	user := createAccount(t, db, "sam@test.dev", "correct-horse", models.RoleStudent, true)

	response, err := service.SignIn(context.Background(), dto.LoginRequest{Email: "sam@test.dev", Password: "correct-horse"})
	require.NoError(t, err)
	require.NotEmpty(t, response.AccessToken)
	require.Equal(t, user.ID, response.User.ID)
	require.Equal(t, models.RoleStudent, response.User.Role)
	require.WithinDuration(t, time.Now().Add(time.Hour), response.ExpiresAt, time.Minute)
}

func TestAuthSignInNormalizesEmail(t *testing.T) {
	service, db := setupAuthService(t)
	createAccount(t, db, "sam@test.dev", "correct-horse", models.RoleStudent, true)

	_, err := service.SignIn(context.Background(), dto.LoginRequest{Email: "  SAM@test.dev ", Password: "correct-horse"})
	require.NoError(t, err)
}

func TestAuthSignInWrongPassword(t *testing.T) {
	service, db := setupAuthService(t)
	createAccount(t, db, "sam@test.dev", "correct-horse", models.RoleStudent, true)

	_, err := service.SignIn(context.Background(), dto.LoginRequest{Email: "sam@test.dev", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthSignInUnknownEmail(t *testing.T) {
	service, _ := setupAuthService(t)

	_, err := service.SignIn(context.Background(), dto.LoginRequest{Email: "ghost@test.dev", Password: "irrelevant"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthSignInDisabledAccount(t *testing.T) {
	service, db := setupAuthService(t)
	createAccount(t, db, "sam@test.dev", "correct-horse", models.RoleStudent, false)

	_, err := service.SignIn(context.Background(), dto.LoginRequest{Email: "sam@test.dev", Password: "correct-horse"})
	require.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthSignOutRevokesSession(t *testing.T) {
	service, db := setupAuthService(t)
	user := createAccount(t, db, "sam@test.dev", "correct-horse", models.RoleStudent, true)

	response, err := service.SignIn(context.Background(), dto.LoginRequest{Email: "sam@test.dev", Password: "correct-horse"})
	require.NoError(t, err)

	sessionID := sessionIDFromToken(t, response.AccessToken)

	require.NoError(t, service.ValidateSession(context.Background(), sessionID))
	require.NoError(t, service.SignOut(context.Background(), sessionID))

	require.ErrorIs(t, service.ValidateSession(context.Background(), sessionID), ErrSessionNotFound)
	require.ErrorIs(t, service.SignOut(context.Background(), sessionID), ErrSessionNotFound)

	_, err = service.CurrentSession(context.Background(), Actor{ID: user.ID, Role: user.Role}, sessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAuthCurrentSession(t *testing.T) {
	service, db := setupAuthService(t)
	user := createAccount(t, db, "sam@test.dev", "correct-horse", models.RoleStudent, true)

	response, err := service.SignIn(context.Background(), dto.LoginRequest{Email: "sam@test.dev", Password: "correct-horse"})
	require.NoError(t, err)

	sessionID := sessionIDFromToken(t, response.AccessToken)

	session, err := service.CurrentSession(context.Background(), Actor{ID: user.ID, Role: user.Role}, sessionID)
	require.NoError(t, err)
	require.Equal(t, user.Email, session.User.Email)
	require.WithinDuration(t, response.ExpiresAt, session.ExpiresAt, time.Minute)
}
