package service

import (
	"fmt"
	"time"

	"github.com/fenxiao-next/internal/config"
	"github.com/fenxiao-next/internal/constants"
	"github.com/fenxiao-next/internal/logger"
	"github.com/fenxiao-next/internal/models"
	"github.com/fenxiao-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AdminClaims 管理端 JWT 载荷
type AdminClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserClaims 用户端 JWT 载荷
type UserClaims struct {
	UserID uint   `json:"user_id"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}

// AuthService 鉴权服务
type AuthService struct {
	adminRepo   repository.AdminRepository
	userRepo    repository.UserRepository
	userService *UserService
	jwtConfig   config.JWTConfig
}

// NewAuthService 创建鉴权服务
func NewAuthService(
	adminRepo repository.AdminRepository,
	userRepo repository.UserRepository,
	userService *UserService,
	jwtConfig config.JWTConfig,
) *AuthService {
	return &AuthService{
		adminRepo:   adminRepo,
		userRepo:    userRepo,
		userService: userService,
		jwtConfig:   jwtConfig,
	}
}

// AdminLogin 管理员登录
func (s *AuthService) AdminLogin(username, password string) (string, *models.Admin, error) {
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return "", nil, err
	}
	if admin == nil {
		return "", nil, ErrAuthInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		logger.Warnw("admin_login_password_mismatch", "username", username)
		return "", nil, ErrAuthInvalidCredentials
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		logger.Warnw("admin_last_login_update_failed", "admin_id", admin.ID, "error", err)
	}

	token, err := s.signToken(AdminClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("admin:%d", admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL())),
		},
	})
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

// UserLogin 用户登录，未注册的手机号自动注册；inviterID 非零时尝试绑定上级
func (s *AuthService) UserLogin(phone, nickname string, inviterID uint) (string, *models.User, error) {
	user, err := s.userService.Register(phone, nickname, inviterID)
	if err != nil {
		return "", nil, err
	}
	if user.Status != constants.UserStatusActive {
		return "", nil, ErrUserDisabled
	}

	now := time.Now()
	token, err := s.signToken(UserClaims{
		UserID: user.ID,
		Phone:  user.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("user:%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL())),
		},
	})
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) signToken(claims jwt.Claims) (string, error) {
	if s.jwtConfig.SecretKey == "" {
		return "", fmt.Errorf("%w: jwt secret 未配置", ErrConfigInvalid)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.SecretKey))
}

func (s *AuthService) tokenTTL() time.Duration {
	hours := s.jwtConfig.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}
