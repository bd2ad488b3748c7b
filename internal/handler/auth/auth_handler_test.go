package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/hotel-booking-backend/internal/common/crypto"
	"github.com/dumeirei/hotel-booking-backend/internal/common/jwt"
	"github.com/dumeirei/hotel-booking-backend/internal/middleware"
	"github.com/dumeirei/hotel-booking-backend/internal/models"
	"github.com/dumeirei/hotel-booking-backend/internal/repository"
	authService "github.com/dumeirei/hotel-booking-backend/internal/service/auth"
)

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	crypto.SetBcryptCost(bcrypt.MinCost)
	t.Cleanup(func() { crypto.SetBcryptCost(bcrypt.DefaultCost) })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            "test-secret-key-auth-api",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 2 * time.Hour,
		Issuer:            "test",
	})
	h := NewHandler(authService.NewAuthService(repository.NewUserRepository(db), jwtManager, nil))

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/refresh", h.RefreshToken)
	user := v1.Group("/user", middleware.UserAuth(jwtManager))
	user.GET("/profile", h.GetProfile)
	user.PUT("/profile", h.UpdateProfile)

	return &testEnv{router: r, db: db}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func register(email string) map[string]string {
	return map[string]string{"name": "张三", "email": email, "password": "secret123"}
}

func TestAuthAPI_Register(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("注册成功", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", register("Guest@Example.com"))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var result authService.LoginResponse
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		assert.Equal(t, "guest@example.com", result.User.Email)
		assert.NotEmpty(t, result.TokenPair.AccessToken)
	})

	t.Run("邮箱已注册", func(t *testing.T) {
		w, resp := env.do(t, http.MethodPost, "/api/v1/auth/register", "", register("guest@example.com"))
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 3001, resp.Code)
	})

	t.Run("参数校验", func(t *testing.T) {
		cases := map[string]map[string]string{
			"缺少姓名": {"email": "a@example.com", "password": "secret123"},
			"邮箱格式": {"name": "a", "email": "not-an-email", "password": "secret123"},
			"密码过短": {"name": "a", "email": "a@example.com", "password": "123"},
		}
		for name, body := range cases {
			w, _ := env.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
		}
	})
}

func TestAuthAPI_Login(t *testing.T) {
	env := setupTestEnv(t)
	w, _ := env.do(t, http.MethodPost, "/api/v1/auth/register", "", register("guest@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	login := func(email, password string) (*httptest.ResponseRecorder, apiResponse) {
		return env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	}

	var tokens jwt.TokenPair
	t.Run("登录成功", func(t *testing.T) {
		w, resp := login(" GUEST@example.com ", "secret123")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result authService.LoginResponse
		require.NoError(t, json.Unmarshal(resp.Data, &result))
		tokens = *result.TokenPair

		w, _ = env.do(t, http.MethodGet, "/api/v1/user/profile", tokens.AccessToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("密码错误", func(t *testing.T) {
		w, resp := login("guest@example.com", "wrong-password")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 2007, resp.Code)
	})

	t.Run("邮箱不存在与密码错误不可区分", func(t *testing.T) {
		w, resp := login("nobody@example.com", "secret123")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 2007, resp.Code)
	})

	t.Run("缺少密码", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "guest@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("禁用账号", func(t *testing.T) {
		require.NoError(t, env.db.Model(&models.User{}).
			Where("email = ?", "guest@example.com").
			Update("status", models.UserStatusDisabled).Error)

		w, resp := login("guest@example.com", "secret123")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 2005, resp.Code)

		w, resp = env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 2005, resp.Code)
	})

	t.Run("无效的刷新令牌", func(t *testing.T) {
		w, _ := env.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": "garbage"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthAPI_ProfileRequiresLogin(t *testing.T) {
	env := setupTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/v1/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodPut, "/api/v1/user/profile", "not-a-token", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
