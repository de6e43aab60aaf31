package middleware

import (
	"strings"

	"abserver/internal/services"
	apperrors "abserver/pkg/errors"
	"abserver/pkg/jwt"
	"abserver/pkg/logger"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

// 上下文中的键
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextIsAdmin  = "is_admin"
	ContextClaims   = "claims"
	ContextUser     = "user"
)

// AuthMiddleware 权限中间件
type AuthMiddleware struct {
	userService *services.UserService
	jwtManager  *jwt.JWTManager
}

func NewAuthMiddleware(userService *services.UserService, jwtManager *jwt.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// RequireLogin 校验 Bearer 令牌，并确认用户仍然存在且未被禁用
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Missing authorization header")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			response.Unauthorized(c, "Invalid authorization format")
			return
		}

		claims, err := m.jwtManager.VerifyToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			return
		}

		user, err := m.userService.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			// 用户已删除视为令牌失效，存储故障按内部错误处理
			if apperrors.CodeOf(err) == apperrors.CodeNotFound {
				response.Unauthorized(c, "Invalid or expired token")
				return
			}
			response.Error(c, err)
			return
		}
		if !user.IsActive() {
			response.Unauthorized(c, "User is disabled")
			return
		}

		// 将用户信息保存到上下文
		ctx := c.Request.Context()
		c.Request = c.Request.WithContext(logger.NewContext(ctx, logger.WithContext(ctx).WithField("user_id", user.ID)))
		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Set(ContextIsAdmin, user.IsAdmin)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// RequireAdmin 要求管理员，必须放在 RequireLogin 之后
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextIsAdmin) {
			response.Forbidden(c, "Admin access required")
			return
		}
		c.Next()
	}
}

// CurrentUserID 获取当前登录用户ID
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}

// CurrentUsername 获取当前登录用户名
func CurrentUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}
