package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Dosada05/sports-sessions/models"
	"github.com/Dosada05/sports-sessions/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserRepository struct {
	usersByEmail map[string]*models.User
	nextID       int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		usersByEmail: make(map[string]*models.User),
		nextID:       1,
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if _, exists := m.usersByEmail[user.Email]; exists {
		return repositories.ErrUserEmailConflict
	}
	user.ID = m.nextID
	m.nextID++
	stored := *user
	m.usersByEmail[user.Email] = &stored
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	for _, user := range m.usersByEmail {
		if user.ID == id {
			u := *user
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.usersByEmail[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func registerInput() RegisterInput {
	return RegisterInput{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "Alice@Example.com",
		Password:  "correct horse",
		Role:      models.RolePlayer,
	}
}

func TestRegister_HashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo)

	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.PasswordHash, "hash must not leak out of the service")

	stored := repo.usersByEmail["alice@example.com"]
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$2"), "expected a bcrypt hash")
}

func TestRegister_RoleHandling(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo)
	ctx := context.Background()

	input := registerInput()
	input.Role = ""
	user, err := svc.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, models.RolePlayer, user.Role)

	input = registerInput()
	input.Email = "admin@example.com"
	input.Role = models.RoleAdmin
	user, err = svc.Register(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	input = registerInput()
	input.Email = "other@example.com"
	input.Role = models.UserRole("superuser")
	_, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, ErrAuthInvalidRole)
}

func TestRegister_ShortPasswordRejected(t *testing.T) {
	svc := NewAuthService(newMockUserRepository())

	input := registerInput()
	input.Password = "short"
	_, err := svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput())
	assert.ErrorIs(t, err, ErrAuthEmailTaken)
}

func TestGetProfile(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo)
	ctx := context.Background()

	created, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	user, err := svc.GetProfile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Empty(t, user.PasswordHash, "hash must not leak out of the service")

	_, err = svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogin(t *testing.T) {
	repo := newMockUserRepository()
	svc := NewAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	user, err := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
