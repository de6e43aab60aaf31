package handlers

import (
	"abserver/internal/services"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, groups, int64(len(groups)))
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req services.CreateGroupInput
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.groupService.Create(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.GroupPatch
	if !bindJSON(c, &req) {
		return
	}

	if err := h.groupService.Update(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.groupService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Members 组成员列表
func (h *GroupHandler) Members(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	members, err := h.groupService.Members(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, members, int64(len(members)))
}

// AddMember 添加组成员
func (h *GroupHandler) AddMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.groupService.AddMember(c.Request.Context(), id, req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// RemoveMember 移除组成员
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	if err := h.groupService.RemoveMember(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}
