package admin

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// UserService 运营人员管理住客账号
type UserService struct {
	userRepo *repository.UserRepository
	log      *zap.Logger
}

// NewUserService 创建住客管理服务
func NewUserService(userRepo *repository.UserRepository, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		userRepo: userRepo,
		log:      log.Named("user_admin"),
	}
}

// GuestInfo 运营侧看到的住客信息
type GuestInfo struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	Status    int8      `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsersRequest 住客列表筛选
type ListUsersRequest struct {
	Status  *int8  `form:"status" binding:"omitempty,oneof=0 1"`
	Keyword string `form:"keyword" binding:"omitempty,max=100"`
}

// UpdateUserStatusRequest 启用或禁用住客
type UpdateUserStatusRequest struct {
	Status *int8 `json:"status" binding:"required,oneof=0 1"`
}

// ListUsers 分页查询住客
func (s *UserService) ListUsers(ctx context.Context, req *ListUsersRequest, page, pageSize int) ([]*GuestInfo, int64, error) {
	p := utils.NewPagination(page, pageSize)
	users, total, err := s.userRepo.List(ctx, repository.UserFilter{
		Status:  req.Status,
		Keyword: req.Keyword,
	}, p.Offset(), p.Limit())
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*GuestInfo, 0, len(users))
	for _, u := range users {
		list = append(list, toGuestInfo(u))
	}
	return list, total, nil
}

// GetUser 住客详情
func (s *UserService) GetUser(ctx context.Context, userID int64) (*GuestInfo, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toGuestInfo(user), nil
}

// UpdateUserStatus 启用或禁用住客；禁用后无法登录或刷新令牌，已有预订保持不变
func (s *UserService) UpdateUserStatus(ctx context.Context, operatorID, userID int64, status int8) (*GuestInfo, error) {
	if !models.IsValidUserStatus(status) {
		return nil, errors.ErrInvalidParams.WithMessage("无效的账号状态")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == status {
		return toGuestInfo(user), nil
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	user.Status = status

	s.log.Info("user status updated",
		zap.Int64("operator_id", operatorID),
		zap.Int64("user_id", userID),
		zap.Int8("status", status),
	)
	return toGuestInfo(user), nil
}

func (s *UserService) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return user, nil
}

func toGuestInfo(user *models.User) *GuestInfo {
	return &GuestInfo{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
}
