package handlers

import (
	"abserver/internal/middleware"
	"abserver/internal/services"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserHandler 管理员的用户管理接口
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List 用户列表
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, users, int64(len(users)))
}

// Create 创建用户
func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserInput
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.userService.Create(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Update 部分更新用户
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.UserPatch
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.Update(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}
