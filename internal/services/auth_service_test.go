package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepositoryInterface
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepositoryInterface = (*MockUserRepository)(nil)

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, tenantID, email string) (*models.User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, tenantID string, limit, offset int) ([]models.User, int64, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) CreateRole(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	if args.Error(0) == nil {
		role.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetRoleByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.Role, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockUserRepository) ListRoles(ctx context.Context, tenantID string) ([]models.Role, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Role), args.Error(1)
}

func (m *MockUserRepository) SetRolePermissions(ctx context.Context, role *models.Role, permissionIDs []uuid.UUID) error {
	args := m.Called(ctx, role, permissionIDs)
	return args.Error(0)
}

func (m *MockUserRepository) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Permission), args.Error(1)
}

// --- fixtures ---

const testJWTSecret = "test-secret-not-for-production"

func newTestAuth(repo *MockUserRepository) *AuthService {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	// Nil Redis runs the pure-JWT path; session revocation is off.
	return NewAuthService(repo, nil, testJWTSecret, time.Hour, logger)
}

func activeUser(email, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           uuid.New(),
		TenantID:     testTenant,
		Email:        email,
		Name:         "Test Operator",
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		RoleID:       uuid.New(),
	}
}

// ===========================================
// Login Tests
// ===========================================

func TestLogin_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	repo.On("GetUserByEmail", ctx, testTenant, "nobody@example.com").Return(nil, repository.ErrNotFound)

	_, _, err := service.Login(ctx, testTenant, models.LoginRequest{Email: "nobody@example.com", Password: "hunter2"})

	assert.Error(t, err)
	// Unknown email and wrong password read the same to the caller.
	assert.Equal(t, "INVALID_CREDENTIALS", apperrors.CodeOf(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	user := activeUser("ops@example.com", "correct-horse")
	repo.On("GetUserByEmail", ctx, testTenant, user.Email).Return(user, nil)

	_, _, err := service.Login(ctx, testTenant, models.LoginRequest{Email: user.Email, Password: "wrong-horse"})

	assert.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apperrors.CodeOf(err))
}

func TestLogin_InactiveAccount(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	user := activeUser("ops@example.com", "correct-horse")
	user.Status = models.UserStatusInactive
	repo.On("GetUserByEmail", ctx, testTenant, user.Email).Return(user, nil)

	_, _, err := service.Login(ctx, testTenant, models.LoginRequest{Email: user.Email, Password: "correct-horse"})

	assert.Error(t, err)
	assert.Equal(t, "ACCOUNT_DISABLED", apperrors.CodeOf(err))
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	user := activeUser("ops@example.com", "correct-horse")
	repo.On("GetUserByEmail", ctx, testTenant, user.Email).Return(user, nil)
	repo.On("SaveUser", ctx, user).Return(nil)
	repo.On("GetUserByID", mock.Anything, testTenant, user.ID).Return(user, nil)

	token, loggedIn, err := service.Login(ctx, testTenant, models.LoginRequest{Email: user.Email, Password: "correct-horse"})

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Empty(t, loggedIn.PasswordHash)
	assert.NotNil(t, loggedIn.LastLoginAt)

	// The issued token authenticates straight back to the same user.
	authed, err := service.Authenticate(ctx, token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	repo.AssertExpectations(t)
}

// ===========================================
// Authenticate Tests
// ===========================================

func TestAuthenticate_GarbageToken(t *testing.T) {
	service := newTestAuth(new(MockUserRepository))

	_, err := service.Authenticate(context.Background(), "not-a-jwt")

	assert.Error(t, err)
	assert.Equal(t, "INVALID_TOKEN", apperrors.CodeOf(err))
}

func TestAuthenticate_WrongSecretRejected(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)

	user := activeUser("ops@example.com", "correct-horse")
	repo.On("GetUserByEmail", ctx, testTenant, user.Email).Return(user, nil)
	repo.On("SaveUser", ctx, user).Return(nil)

	issuer := newTestAuth(repo)
	token, _, err := issuer.Login(ctx, testTenant, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	assert.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	verifier := NewAuthService(repo, nil, "a-different-secret", time.Hour, logger)

	_, err = verifier.Authenticate(ctx, token)

	assert.Error(t, err)
	assert.Equal(t, "INVALID_TOKEN", apperrors.CodeOf(err))
}

func TestAuthenticate_DeactivatedAfterIssue(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	user := activeUser("ops@example.com", "correct-horse")
	repo.On("GetUserByEmail", ctx, testTenant, user.Email).Return(user, nil)
	repo.On("SaveUser", ctx, user).Return(nil)

	token, _, err := service.Login(ctx, testTenant, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	assert.NoError(t, err)

	// The account is disabled between login and the next request.
	disabled := *user
	disabled.Status = models.UserStatusInactive
	repo.On("GetUserByID", ctx, testTenant, user.ID).Return(&disabled, nil)

	_, err = service.Authenticate(ctx, token)

	assert.Error(t, err)
	assert.Equal(t, "ACCOUNT_DISABLED", apperrors.CodeOf(err))
}

func TestAuthenticate_UserGone(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	user := activeUser("ops@example.com", "correct-horse")
	repo.On("GetUserByEmail", ctx, testTenant, user.Email).Return(user, nil)
	repo.On("SaveUser", ctx, user).Return(nil)

	token, _, err := service.Login(ctx, testTenant, models.LoginRequest{Email: user.Email, Password: "correct-horse"})
	assert.NoError(t, err)

	repo.On("GetUserByID", ctx, testTenant, user.ID).Return(nil, repository.ErrNotFound)

	_, err = service.Authenticate(ctx, token)

	assert.Error(t, err)
	assert.Equal(t, "SESSION_EXPIRED", apperrors.CodeOf(err))
}

// ===========================================
// User Administration Tests
// ===========================================

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	roleID := uuid.New()
	repo.On("GetRoleByID", ctx, testTenant, roleID).Return(&models.Role{ID: roleID}, nil)
	repo.On("GetUserByEmail", ctx, testTenant, "ops@example.com").Return(activeUser("ops@example.com", "x"), nil)

	_, err := service.CreateUser(ctx, testTenant, models.CreateUserRequest{
		Email:    "ops@example.com",
		Name:     "Dup",
		Password: "secret123",
		RoleID:   roleID,
	})

	assert.Error(t, err)
	assert.Equal(t, "DUPLICATE_EMAIL", apperrors.CodeOf(err))
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestCreateUser_HashesPasswordAndStripsIt(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	roleID := uuid.New()
	repo.On("GetRoleByID", ctx, testTenant, roleID).Return(&models.Role{ID: roleID}, nil)
	repo.On("GetUserByEmail", ctx, testTenant, "new@example.com").Return(nil, repository.ErrNotFound)

	var stored string
	repo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.User).PasswordHash
	}).Return(nil)

	user, err := service.CreateUser(ctx, testTenant, models.CreateUserRequest{
		Email:    "new@example.com",
		Name:     "New Operator",
		Password: "secret123",
		RoleID:   roleID,
	})

	assert.NoError(t, err)
	assert.Empty(t, user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("secret123")))
	repo.AssertExpectations(t)
}

func TestUpdateUser_UnknownRoleRejected(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	user := activeUser("ops@example.com", "x")
	badRole := uuid.New()
	repo.On("GetUserByID", ctx, testTenant, user.ID).Return(user, nil)
	repo.On("GetRoleByID", ctx, testTenant, badRole).Return(nil, repository.ErrNotFound)

	_, err := service.UpdateUser(ctx, testTenant, user.ID, models.UpdateUserRequest{RoleID: &badRole})

	assert.Error(t, err)
	assert.Equal(t, "ROLE_NOT_FOUND", apperrors.CodeOf(err))
	repo.AssertNotCalled(t, "SaveUser", mock.Anything, mock.Anything)
}

// ===========================================
// Role Administration Tests
// ===========================================

func TestUpdateRolePermissions_ReplacesSet(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	roleID := uuid.New()
	permA, permB := uuid.New(), uuid.New()
	role := &models.Role{ID: roleID, TenantID: testTenant, Name: "picker"}
	reloaded := &models.Role{
		ID: roleID, TenantID: testTenant, Name: "picker",
		Permissions: []models.Permission{
			{ID: permA, Resource: "orders", Action: "read"},
			{ID: permB, Resource: "picking", Action: "confirm"},
		},
	}

	repo.On("GetRoleByID", ctx, testTenant, roleID).Return(role, nil).Once()
	repo.On("SetRolePermissions", ctx, role, []uuid.UUID{permA, permB}).Return(nil)
	repo.On("GetRoleByID", ctx, testTenant, roleID).Return(reloaded, nil).Once()

	got, err := service.UpdateRolePermissions(ctx, testTenant, roleID, models.UpdateRolePermissionsRequest{
		PermissionIDs: []string{permA.String(), permB.String()},
	})

	assert.NoError(t, err)
	assert.Len(t, got.Permissions, 2)
	repo.AssertExpectations(t)
}

func TestUpdateRolePermissions_UnknownRole(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	roleID := uuid.New()
	repo.On("GetRoleByID", ctx, testTenant, roleID).Return(nil, repository.ErrNotFound)

	_, err := service.UpdateRolePermissions(ctx, testTenant, roleID, models.UpdateRolePermissionsRequest{})

	assert.Error(t, err)
	assert.Equal(t, "ROLE_NOT_FOUND", apperrors.CodeOf(err))
	repo.AssertNotCalled(t, "SetRolePermissions", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateRolePermissions_BadPermissionID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	service := newTestAuth(repo)

	roleID := uuid.New()
	repo.On("GetRoleByID", ctx, testTenant, roleID).Return(&models.Role{ID: roleID}, nil)

	_, err := service.UpdateRolePermissions(ctx, testTenant, roleID, models.UpdateRolePermissionsRequest{
		PermissionIDs: []string{"not-a-uuid"},
	})

	assert.Error(t, err)
	assert.Equal(t, "INVALID_PERMISSION_ID", apperrors.CodeOf(err))
	repo.AssertNotCalled(t, "SetRolePermissions", mock.Anything, mock.Anything, mock.Anything)
}
