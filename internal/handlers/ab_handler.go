package handlers

import (
	"abserver/internal/middleware"
	"abserver/internal/services"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

// AbHandler 地址簿概要与旧版整簿同步接口
type AbHandler struct {
	accessService *services.AccessService
	shareService  *services.ShareService
	legacyService *services.LegacySyncService
}

func NewAbHandler(accessService *services.AccessService, shareService *services.ShareService, legacyService *services.LegacySyncService) *AbHandler {
	return &AbHandler{
		accessService: accessService,
		shareService:  shareService,
		legacyService: legacyService,
	}
}

// LegacyUpdateRequest 旧版客户端上传的整簿数据，data 是序列化后的字符串
type LegacyUpdateRequest struct {
	Data string `json:"data"`
}

// AbSettings 地址簿设置，0 表示不限制
type AbSettings struct {
	MaxPeerOneAb int `json:"max_peer_one_ab"`
}

// GetLegacy 导出个人地址簿
func (h *AbHandler) GetLegacy(c *gin.Context) {
	ctx := c.Request.Context()
	guid, err := h.accessService.EnsurePersonal(ctx, middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.legacyService.Export(ctx, guid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, data)
}

// UpdateLegacy 用上传的文档整体替换个人地址簿
func (h *AbHandler) UpdateLegacy(c *gin.Context) {
	var req LegacyUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	guid, err := h.accessService.EnsurePersonal(ctx, middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.legacyService.Import(ctx, guid, req.Data); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Personal 个人地址簿概要
func (h *AbHandler) Personal(c *gin.Context) {
	guid, err := h.accessService.EnsurePersonal(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, h.shareService.PersonalProfile(guid, middleware.CurrentUsername(c)))
}

// SharedProfiles 共享给当前用户的地址簿
func (h *AbHandler) SharedProfiles(c *gin.Context) {
	profiles, err := h.shareService.ListShared(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, profiles, int64(len(profiles)))
}

// Settings 地址簿设置
func (h *AbHandler) Settings(c *gin.Context) {
	response.JSON(c, AbSettings{MaxPeerOneAb: 0})
}
