package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"github.com/SAP-F-2025/quiz-service/pkg/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// IdentityVerifier validates tokens issued by an external identity provider.
type IdentityVerifier interface {
	Verify(token string) (*auth.ExternalIdentity, error)
}

type authService struct {
	repo      repositories.Repository
	jwt       *auth.JWTService
	external  IdentityVerifier
	logger    *slog.Logger
	svcLogger *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
}

// NewAuthService issues local tokens. When external is non-nil, bearer tokens
// are verified by the external provider instead and users are provisioned on
// first sight.
func NewAuthService(repo repositories.Repository, jwtService *auth.JWTService, external IdentityVerifier, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		jwt:       jwtService,
		external:  external,
		logger:    logger,
		svcLogger: NewServiceLogger(logger, LogConfig{Service: "quiz-service", Component: "auth"}),
		validator: validator,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	op := s.svcLogger.WithOperation(ctx, "register", 0)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(0, "user", err)
		return nil, err
	}

	exists, err := s.repo.User().ExistsByUsername(ctx, nil, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		op.LogResult(0, "user", ErrUsernameTaken)
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = models.DefaultTimezone
	}
	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsActive:     true,
		Profile: &models.Profile{
			RollNumber: req.RollNumber,
			Institute:  req.Institute,
			Department: req.Department,
			Position:   req.Position,
			Timezone:   timezone,
		},
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			err = ErrUsernameTaken
		}
		op.LogResult(0, "user", err)
		return nil, err
	}

	resp, err := s.issue(ctx, user)
	op.LogResult(user.ID, "user", err)
	return resp, err
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	op := s.svcLogger.WithOperation(ctx, "login", 0)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByUsername(ctx, nil, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			op.LogResult(0, "user", ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		op.LogResult(user.ID, "user", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		op.LogResult(user.ID, "user", ErrUserInactive)
		return nil, ErrUserInactive
	}

	loginAt := s.now()
	user.LastLoginAt = &loginAt
	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		s.logger.Warn("Failed to record login time", "user_id", user.ID, "error", err)
	}

	resp, err := s.issue(ctx, user)
	op.LogResult(user.ID, "user", err)
	return resp, err
}

// issue replaces any previous token of the user with a fresh one.
func (s *authService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokenID := uuid.NewString()
	signed, expiresAt, err := s.jwt.GenerateToken(user.ID, user.Username, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.AuthToken().DeleteByUser(ctx, tx, user.ID); err != nil {
			return err
		}
		return s.repo.AuthToken().Create(ctx, tx, &models.AuthToken{ID: tokenID, UserID: user.ID, ExpiresAt: expiresAt})
	})
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, userID uint) error {
	return s.repo.AuthToken().DeleteByUser(ctx, nil, userID)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if s.external != nil {
		return s.authenticateExternal(ctx, token)
	}

	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	stored, err := s.repo.AuthToken().GetByID(ctx, nil, claims.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if stored.UserID != claims.UserID || s.now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User().GetByID(ctx, nil, claims.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

func (s *authService) authenticateExternal(ctx context.Context, token string) (*models.User, error) {
	identity, err := s.external.Verify(token)
	if err != nil {
		s.logger.Debug("External token rejected", "error", err)
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User().GetByUsername(ctx, nil, identity.Username)
	if err == nil {
		if !user.IsActive {
			return nil, ErrUserInactive
		}
		return s.repo.User().GetByID(ctx, nil, user.ID)
	}
	if !repositories.IsNotFoundError(err) {
		return nil, err
	}

	user = &models.User{
		Username:  identity.Username,
		Email:     identity.Email,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		// external users never log in with a local password
		PasswordHash: "!",
		IsActive:     true,
		Profile: &models.Profile{
			DisplayName: identity.DisplayName,
			Timezone:    models.DefaultTimezone,
			IsModerator: identity.IsAdmin,
		},
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		if !repositories.IsDuplicateKeyError(err) {
			return nil, err
		}
		// provisioned concurrently
		existing, gerr := s.repo.User().GetByUsername(ctx, nil, identity.Username)
		if gerr != nil {
			return nil, gerr
		}
		user = existing
	}
	s.logger.Info("Provisioned external user", "user_id", user.ID, "username", user.Username)
	return s.repo.User().GetByID(ctx, nil, user.ID)
}

func (s *authService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.User, error) {
	op := s.svcLogger.WithOperation(ctx, "update_profile", userID)

	if err := s.validator.Validate(req); err != nil {
		op.LogResult(userID, "user", err)
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	before := *user
	if user.Profile == nil {
		user.Profile = &models.Profile{UserID: user.ID, Timezone: models.DefaultTimezone}
	}

	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&user.FirstName, req.FirstName)
	set(&user.LastName, req.LastName)
	set(&user.Email, req.Email)
	p := user.Profile
	set(&p.RollNumber, req.RollNumber)
	set(&p.Institute, req.Institute)
	set(&p.Department, req.Department)
	set(&p.Position, req.Position)
	set(&p.Timezone, req.Timezone)
	set(&p.Bio, req.Bio)
	set(&p.Phone, req.Phone)
	set(&p.City, req.City)
	set(&p.Country, req.Country)
	set(&p.DisplayName, req.DisplayName)

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.User().Update(ctx, tx, user); err != nil {
			return err
		}
		return s.repo.User().UpdateProfile(ctx, tx, p)
	})
	if err != nil {
		op.LogResult(userID, "user", err)
		return nil, err
	}

	op.LogAudit(AuditEventUpdate, userID, "user", map[string]interface{}{"email": before.Email}, map[string]interface{}{"email": user.Email})
	op.LogResult(userID, "user", nil)
	return user, nil
}

