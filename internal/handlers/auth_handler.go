package handlers

import (
	"abserver/internal/middleware"
	"abserver/internal/models"
	"abserver/internal/services"
	"abserver/pkg/jwt"
	"abserver/pkg/logger"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService   *services.UserService
	systemService *services.SystemService
	jwtManager    *jwt.JWTManager
}

func NewAuthHandler(userService *services.UserService, systemService *services.SystemService, jwtManager *jwt.JWTManager) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		systemService: systemService,
		jwtManager:    jwtManager,
	}
}

// LoginRequest RustDesk 客户端登录请求，id/uuid 为客户端设备标识
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	ID       string `json:"id"`
	UUID     string `json:"uuid"`
}

// LoginResponse 客户端要求的固定格式
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	Type        string   `json:"type"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	Note    string `json:"note"`
}

func toUserInfo(user *models.User) UserInfo {
	return UserInfo{
		Name:    user.DisplayName(),
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.WithContext(c.Request.Context()).WithField("username", req.Username).Info("Login failed")
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateToken(user.ID, user.Username, user.IsAdmin)
	if err != nil {
		response.ServerError(c, "failed to generate token")
		return
	}

	// 审计失败不影响登录
	if err := h.systemService.RecordLogin(c.Request.Context(), user.ID, req.ID, c.ClientIP()); err != nil {
		logger.WithContext(c.Request.Context()).Warnf("Failed to record login: %v", err)
	}

	response.JSON(c, LoginResponse{
		AccessToken: token,
		Type:        "access_token",
		User:        toUserInfo(user),
	})
}

// Logout 令牌无状态，直接返回成功
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Empty(c)
}

// CurrentUser 当前登录用户信息
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, toUserInfo(user))
}
