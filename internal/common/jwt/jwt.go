// Package jwt 签发与校验住客、操作员的访问令牌和刷新令牌
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dumeirei/hotel-booking-backend/internal/common/config"
)

// 主体类型
const (
	UserTypeUser  = "user"
	UserTypeAdmin = "admin"
)

// 令牌用途
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenInvalid   = errors.New("jwt: invalid token")
	ErrTokenExpired   = errors.New("jwt: token expired")
	ErrTokenWrongType = errors.New("jwt: token type mismatch")
)

// Claims 令牌声明，Subject 与 UserType 一致
type Claims struct {
	UserID    int64  `json:"user_id"`
	UserType  string `json:"user_type"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// IsOperator 是否为后台操作员
func (c *Claims) IsOperator() bool {
	return c.UserType == UserTypeAdmin
}

// Config 签名密钥与有效期
type Config struct {
	Secret            string
	AccessExpireTime  time.Duration
	RefreshExpireTime time.Duration
	Issuer            string
}

// TokenPair 令牌对，ExpiresAt 为访问令牌过期的 Unix 秒
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Manager 使用 HS256 签发令牌
type Manager struct {
	cfg    Config
	key    []byte
	parser *jwt.Parser
}

// NewManager 创建令牌管理器；Issuer 非空时校验签发者
func NewManager(cfg *Config) *Manager {
	return &Manager{
		cfg: *cfg,
		key: []byte(cfg.Secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithIssuedAt(),
		),
	}
}

// NewManagerFromConfig 按应用配置创建
func NewManagerFromConfig(cfg *config.JWTConfig) *Manager {
	return NewManager(&Config{
		Secret:            cfg.Secret,
		AccessExpireTime:  cfg.AccessTokenTTL,
		RefreshExpireTime: cfg.RefreshTokenTTL,
		Issuer:            cfg.Issuer,
	})
}

// GenerateTokenPair 同时签发访问令牌与刷新令牌
func (m *Manager) GenerateTokenPair(userID int64, userType, role string) (*TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(m.cfg.AccessExpireTime)

	access, err := m.sign(userID, userType, role, TokenTypeAccess, now, accessExp)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(userID, userType, role, TokenTypeRefresh, now, now.Add(m.cfg.RefreshExpireTime))
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExp.Unix()}, nil
}

func (m *Manager) sign(userID int64, userType, role, tokenType string, issuedAt, expireAt time.Time) (string, error) {
	claims := &Claims{
		UserID:    userID,
		UserType:  userType,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   userType,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expireAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// ParseToken 校验签名与有效期，不区分用途
// 过期返回 ErrTokenExpired，其余失败统一为 ErrTokenInvalid
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	claims := new(Claims)
	_, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
}

func (m *Manager) parseAs(tokenString, tokenType string) (*Claims, error) {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, ErrTokenWrongType
	}
	return claims, nil
}

// ParseAccessToken 只接受访问令牌
func (m *Manager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parseAs(tokenString, TokenTypeAccess)
}

// RefreshToken 用刷新令牌换取新的令牌对，身份与角色沿用原令牌
func (m *Manager) RefreshToken(refreshToken string) (*TokenPair, error) {
	claims, err := m.parseAs(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	return m.GenerateTokenPair(claims.UserID, claims.UserType, claims.Role)
}
