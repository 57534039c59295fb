package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eropik/analytics-e-store/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PagedUserResponse is the paginated account listing.
type PagedUserResponse struct {
	Users      []model.User `json:"users"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	TotalPages int          `json:"totalPages"`
	TotalItems int          `json:"totalItems"`
}

// UserService exposes account administration to the console.
type UserService interface {
	ListUsers(ctx context.Context, role model.Role, page, limit int, actor model.Actor) (*PagedUserResponse, error)
	GetUser(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.User, error)
	SetUserActive(ctx context.Context, id uuid.UUID, active bool, actor model.Actor) (*model.User, error)
}

type userServiceImpl struct {
	db     *gorm.DB
	authz  Authorizer
	logger *zap.Logger
}

// NewUserService creates the account administration service.
func NewUserService(db *gorm.DB, authz Authorizer, logger *zap.Logger) UserService {
	return &userServiceImpl{db: db, authz: authz, logger: logger}
}

// ListUsers returns a page of accounts, optionally restricted to one role.
func (s *userServiceImpl) ListUsers(ctx context.Context, role model.Role, page, limit int, actor model.Actor) (*PagedUserResponse, error) {
	if err := s.require(actor, model.CapUserView); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&model.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []model.User
	err := query.Preload("Profile").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}

	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}

	return &PagedUserResponse{
		Users:      users,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		TotalItems: int(totalCount),
	}, nil
}

// GetUser loads one account with its profile.
func (s *userServiceImpl) GetUser(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.User, error) {
	if err := s.require(actor, model.CapUserView); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.WithContext(ctx).Preload("Profile").Where("user_id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundf("user %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.PasswordHash = ""
	return &user, nil
}

// SetUserActive activates or deactivates an account. Deactivated accounts
// keep their history but can no longer sign in.
func (s *userServiceImpl) SetUserActive(ctx context.Context, id uuid.UUID, active bool, actor model.Actor) (*model.User, error) {
	if err := s.require(actor, model.CapUserActivate); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundf("user %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsActive != active {
		if err := s.db.WithContext(ctx).Model(&user).Update("is_active", active).Error; err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		user.IsActive = active
		s.logger.Info("user active flag changed",
			zap.String("user_id", id.String()),
			zap.Bool("active", active),
			zap.String("actor", actor.UserID.String()))
	}

	user.PasswordHash = ""
	return &user, nil
}

func (s *userServiceImpl) require(actor model.Actor, capability model.Capability) error {
	allowed, err := s.authz.HasCapability(actor, capability)
	if err != nil {
		return err
	}
	if !allowed {
		return model.AccessDeniedf("actor %s lacks %s", actor.Email, capability)
	}
	return nil
}
