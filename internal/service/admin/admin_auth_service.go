// Package admin 提供后台操作员认证、账号管理与仪表盘服务
package admin

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-booking-backend/internal/common/crypto"
	"github.com/dumeirei/hotel-booking-backend/internal/common/errors"
	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
	"github.com/dumeirei/hotel-booking-backend/internal/common/utils"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
)

// AdminAuthService 管理员认证服务
type AdminAuthService struct {
	adminRepo  *repository.AdminRepository
	jwtManager *jwt.Manager
	log        *zap.Logger
}

// NewAdminAuthService 创建管理员认证服务
func NewAdminAuthService(adminRepo *repository.AdminRepository, jwtManager *jwt.Manager, log *zap.Logger) *AdminAuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminAuthService{
		adminRepo:  adminRepo,
		jwtManager: jwtManager,
		log:        log.Named("admin"),
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Admin     *AdminInfo     `json:"admin"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// AdminInfo 管理员信息（不含敏感字段）
type AdminInfo struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name,omitempty"`
	Role        string     `json:"role"`
	Status      int8       `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP *string    `json:"last_login_ip,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateAdminRequest 创建操作员请求
type CreateAdminRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50"`
	Password    string `json:"password" binding:"required,min=6,max=72"`
	DisplayName string `json:"display_name" binding:"omitempty,max=50"`
	Role        string `json:"role" binding:"omitempty,oneof=admin super_admin"`
}

// ListAdminsRequest 操作员列表筛选
type ListAdminsRequest struct {
	Role    string `form:"role" binding:"omitempty,oneof=admin super_admin"`
	Status  *int8  `form:"status" binding:"omitempty,oneof=0 1"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// UpdateAdminStatusRequest 启用或禁用操作员
type UpdateAdminStatusRequest struct {
	Status *int8 `json:"status" binding:"required,oneof=0 1"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=72"`
}

// Login 管理员登录
func (s *AdminAuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	admin, err := s.adminRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPasswordError
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if !crypto.VerifyPassword(req.Password, admin.PasswordHash) {
		return nil, errors.ErrPasswordError
	}
	if !admin.IsActive() {
		return nil, errors.ErrAccountDisabled
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(admin.ID, jwt.UserTypeAdmin, admin.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	if crypto.NeedsRehash(admin.PasswordHash) {
		if hash, err := crypto.HashPassword(req.Password); err == nil {
			if err := s.adminRepo.SetPasswordHash(ctx, admin.ID, hash); err != nil {
				s.log.Warn("rehash admin password failed", zap.Int64("admin_id", admin.ID), zap.Error(err))
			}
		}
	}

	// 登录信息写入失败不影响登录
	if err := s.adminRepo.RecordLogin(ctx, admin.ID, req.IP, time.Now()); err != nil {
		s.log.Warn("update admin login info failed", zap.Int64("admin_id", admin.ID), zap.Error(err))
	}

	s.log.Info("admin logged in", zap.Int64("admin_id", admin.ID), zap.String("ip", req.IP))
	return &LoginResponse{
		Admin:     toAdminInfo(admin),
		TokenPair: tokenPair,
	}, nil
}

// RefreshToken 刷新令牌
func (s *AdminAuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	tokenPair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenRefreshFail.WithError(err)
	}
	return tokenPair, nil
}

// GetProfile 获取当前管理员信息
func (s *AdminAuthService) GetProfile(ctx context.Context, adminID int64) (*AdminInfo, error) {
	admin, err := s.getAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return toAdminInfo(admin), nil
}

// ChangePassword 修改密码
func (s *AdminAuthService) ChangePassword(ctx context.Context, adminID int64, req *ChangePasswordRequest) error {
	admin, err := s.getAdmin(ctx, adminID)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(req.OldPassword, admin.PasswordHash) {
		return errors.ErrPasswordError.WithMessage("原密码错误")
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.adminRepo.SetPasswordHash(ctx, adminID, hash); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// CreateAdmin 创建操作员，仅超级管理员可用
func (s *AdminAuthService) CreateAdmin(ctx context.Context, operatorRole string, req *CreateAdminRequest) (*AdminInfo, error) {
	if operatorRole != models.RoleCodeSuperAdmin {
		return nil, errors.ErrPermissionDenied
	}

	role := req.Role
	if role == "" {
		role = models.RoleCodeAdmin
	}
	if !models.IsValidAdminRole(role) {
		return nil, errors.ErrInvalidParams.WithMessage("无效的角色")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, errors.ErrInvalidParams.WithMessage("用户名不能为空")
	}

	exists, err := s.adminRepo.UsernameTaken(ctx, username)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrUsernameTaken
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}
	admin := &models.Admin{
		Username:     username,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
		Role:         role,
		Status:       models.AdminStatusActive,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	s.log.Info("admin created", zap.Int64("admin_id", admin.ID), zap.String("role", role))
	return toAdminInfo(admin), nil
}

// ListAdmins 分页获取操作员列表
func (s *AdminAuthService) ListAdmins(ctx context.Context, req *ListAdminsRequest, page, pageSize int) ([]*AdminInfo, int64, error) {
	filter := repository.AdminFilter{}
	if req != nil {
		filter = repository.AdminFilter{Role: req.Role, Status: req.Status, Keyword: req.Keyword}
	}
	p := utils.NewPagination(page, pageSize)
	admins, total, err := s.adminRepo.List(ctx, filter, p.Offset(), p.Limit())
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	list := make([]*AdminInfo, 0, len(admins))
	for _, a := range admins {
		list = append(list, toAdminInfo(a))
	}
	return list, total, nil
}

// UpdateAdminStatus 启用或禁用操作员，仅超级管理员可用
// 不能修改自己的状态，也不能禁用最后一个启用的超级管理员
func (s *AdminAuthService) UpdateAdminStatus(ctx context.Context, operatorID int64, operatorRole string, targetID int64, status int8) (*AdminInfo, error) {
	if operatorRole != models.RoleCodeSuperAdmin {
		return nil, errors.ErrPermissionDenied
	}
	if !models.IsValidAdminStatus(status) {
		return nil, errors.ErrInvalidParams.WithMessage("无效的账号状态")
	}
	if operatorID == targetID {
		return nil, errors.ErrPermissionDenied.WithMessage("不能修改自己的账号状态")
	}

	target, err := s.getAdmin(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Status == status {
		return toAdminInfo(target), nil
	}
	if status == models.AdminStatusDisabled && target.IsSuperAdmin() && target.IsActive() {
		n, err := s.adminRepo.CountActiveSuperAdmins(ctx)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		if n <= 1 {
			return nil, errors.ErrPermissionDenied.WithMessage("至少保留一个启用的超级管理员")
		}
	}

	if err := s.adminRepo.SetStatus(ctx, targetID, status); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAdminNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	target.Status = status

	s.log.Info("admin status updated",
		zap.Int64("operator_id", operatorID),
		zap.Int64("admin_id", targetID),
		zap.Int8("status", status),
	)
	return toAdminInfo(target), nil
}

// SeedDefaultAdmin 在没有任何操作员时创建默认超级管理员
func (s *AdminAuthService) SeedDefaultAdmin(ctx context.Context, username, password string) (bool, error) {
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleCodeSuperAdmin,
		Status:       models.AdminStatusActive,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return false, err
	}
	s.log.Info("default admin seeded", zap.String("username", username))
	return true, nil
}

func (s *AdminAuthService) getAdmin(ctx context.Context, adminID int64) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrAdminNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return admin, nil
}

func toAdminInfo(admin *models.Admin) *AdminInfo {
	return &AdminInfo{
		ID:          admin.ID,
		Username:    admin.Username,
		DisplayName: admin.DisplayName,
		Role:        admin.Role,
		Status:      admin.Status,
		LastLoginAt: admin.LastLoginAt,
		LastLoginIP: admin.LastLoginIP,
		CreatedAt:   admin.CreatedAt,
	}
}
