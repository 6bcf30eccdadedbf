package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"wms-service/internal/apperrors"
	"wms-service/internal/models"
	"wms-service/internal/repository"
)

// AuthService handles login, sessions and operator administration.
// Sessions live in Redis so a logout invalidates the token before expiry.
type AuthService struct {
	repo       repository.UserRepositoryInterface
	redis      *redis.Client
	jwtSecret  []byte
	sessionTTL time.Duration
	logger     *logrus.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo repository.UserRepositoryInterface, redisClient *redis.Client, jwtSecret string, sessionTTL time.Duration, logger *logrus.Logger) *AuthService {
	return &AuthService{
		repo:       repo,
		redis:      redisClient,
		jwtSecret:  []byte(jwtSecret),
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Claims is the JWT payload issued on login.
type Claims struct {
	TenantID string `json:"tenant"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

func sessionKey(jti string) string { return "session:" + jti }

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, tenantID string, req models.LoginRequest) (string, *models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, tenantID, req.Email)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", nil, apperrors.New(apperrors.KindValidation, "INVALID_CREDENTIALS", "invalid email or password")
		}
		return "", nil, err
	}
	if user.Status != models.UserStatusActive {
		return "", nil, apperrors.Conflict("ACCOUNT_DISABLED", "account is not active")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, apperrors.New(apperrors.KindValidation, "INVALID_CREDENTIALS", "invalid email or password")
	}

	jti := uuid.New().String()
	now := time.Now()
	claims := Claims{
		TenantID: tenantID,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.KindInternal, "TOKEN_SIGN_FAILED", "could not sign token", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, sessionKey(jti), user.ID.String(), s.sessionTTL).Err(); err != nil {
			return "", nil, apperrors.Wrap(apperrors.KindInternal, "SESSION_STORE_FAILED", "could not store session", err)
		}
	}

	user.LastLoginAt = &now
	if err := s.repo.SaveUser(ctx, user); err != nil {
		s.logger.WithError(err).Warn("could not record last login")
	}

	user.PasswordHash = ""
	return token, user, nil
}

// Logout drops the session behind a token.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if s.redis != nil {
		return s.redis.Del(ctx, sessionKey(claims.ID)).Err()
	}
	return nil
}

func (s *AuthService) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.New(apperrors.KindValidation, "INVALID_TOKEN", "token is invalid or expired")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, apperrors.New(apperrors.KindValidation, "INVALID_TOKEN", "token is invalid or expired")
	}
	return claims, nil
}

// Authenticate validates a token against its Redis session and loads the user
// with role and permissions.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		if _, err := s.redis.Get(ctx, sessionKey(claims.ID)).Result(); err == redis.Nil {
			return nil, apperrors.New(apperrors.KindValidation, "SESSION_EXPIRED", "session is no longer valid")
		} else if err != nil {
			return nil, err
		}
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "INVALID_TOKEN", "token is invalid or expired")
	}
	user, err := s.repo.GetUserByID(ctx, claims.TenantID, userID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.New(apperrors.KindValidation, "SESSION_EXPIRED", "session is no longer valid")
		}
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.Conflict("ACCOUNT_DISABLED", "account is not active")
	}
	return user, nil
}

// ========== User administration ==========

func (s *AuthService) CreateUser(ctx context.Context, tenantID string, req models.CreateUserRequest) (*models.User, error) {
	if _, err := s.repo.GetRoleByID(ctx, tenantID, req.RoleID); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return nil, err
	}
	if _, err := s.repo.GetUserByEmail(ctx, tenantID, req.Email); err == nil {
		return nil, apperrors.Conflict("DUPLICATE_EMAIL", "a user with this email already exists")
	} else if err != repository.ErrNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "HASH_FAILED", "could not hash password", err)
	}
	user := &models.User{
		TenantID:     tenantID,
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		RoleID:       req.RoleID,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, tenantID string, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, tenantID, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("USER_NOT_FOUND", "user not found")
	}
	return user, err
}

func (s *AuthService) ListUsers(ctx context.Context, tenantID string, limit, offset int) ([]models.User, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListUsers(ctx, tenantID, limit, offset)
}

func (s *AuthService) UpdateUser(ctx context.Context, tenantID string, id uuid.UUID, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.RoleID != nil {
		if _, err := s.repo.GetRoleByID(ctx, tenantID, *req.RoleID); err != nil {
			if err == repository.ErrNotFound {
				return nil, apperrors.NotFound("ROLE_NOT_FOUND", "role not found")
			}
			return nil, err
		}
		user.RoleID = *req.RoleID
	}
	if err := s.repo.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ========== Role administration ==========

func (s *AuthService) CreateRole(ctx context.Context, tenantID string, req models.CreateRoleRequest) (*models.Role, error) {
	role := &models.Role{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	if len(req.PermissionIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(req.PermissionIDs))
		for _, raw := range req.PermissionIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, apperrors.Validation("INVALID_PERMISSION_ID", "permission id is not a UUID")
			}
			ids = append(ids, id)
		}
		if err := s.repo.SetRolePermissions(ctx, role, ids); err != nil {
			return nil, err
		}
	}
	return s.repo.GetRoleByID(ctx, tenantID, role.ID)
}

// UpdateRolePermissions replaces the permission set of an existing role.
func (s *AuthService) UpdateRolePermissions(ctx context.Context, tenantID string, roleID uuid.UUID, req models.UpdateRolePermissionsRequest) (*models.Role, error) {
	role, err := s.repo.GetRoleByID(ctx, tenantID, roleID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NotFound("ROLE_NOT_FOUND", "role not found")
		}
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, raw := range req.PermissionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperrors.Validation("INVALID_PERMISSION_ID", "permission id is not a UUID")
		}
		ids = append(ids, id)
	}
	if err := s.repo.SetRolePermissions(ctx, role, ids); err != nil {
		return nil, err
	}
	return s.repo.GetRoleByID(ctx, tenantID, role.ID)
}

func (s *AuthService) ListRoles(ctx context.Context, tenantID string) ([]models.Role, error) {
	return s.repo.ListRoles(ctx, tenantID)
}

func (s *AuthService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	return s.repo.ListPermissions(ctx)
}
