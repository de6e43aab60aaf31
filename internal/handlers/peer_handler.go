package handlers

import (
	"abserver/internal/middleware"
	"abserver/internal/services"
	"abserver/pkg/pagination"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

type PeerHandler struct {
	accessService *services.AccessService
	peerService   *services.PeerService
}

func NewPeerHandler(accessService *services.AccessService, peerService *services.PeerService) *PeerHandler {
	return &PeerHandler{
		accessService: accessService,
		peerService:   peerService,
	}
}

// UpdatePeerRequest id 定位设备，其余字段为可选的部分更新
type UpdatePeerRequest struct {
	ID string `json:"id" binding:"required,max=100"`
	services.PeerPatch
}

// DeletePeersRequest 批量 ids，部分客户端版本只发送单个 id
type DeletePeersRequest struct {
	IDs []string `json:"ids"`
	ID  *string  `json:"id"`
}

// resolve 解析请求操作的地址簿，失败时已写入响应
func resolve(c *gin.Context, access *services.AccessService, guid string) (string, bool) {
	resolved, err := access.Resolve(c.Request.Context(), middleware.CurrentUserID(c), guid)
	if err != nil {
		response.Error(c, err)
		return "", false
	}
	return resolved, true
}

// List 分页获取设备，ab 为空时使用个人地址簿
func (h *PeerHandler) List(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Query("ab"))
	if !ok {
		return
	}

	peers, total, err := h.peerService.List(c.Request.Context(), guid, pagination.ParsePageParams(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, peers, total)
}

// Add 添加或覆盖设备
func (h *PeerHandler) Add(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	var req services.PeerPayload
	if !bindJSON(c, &req) {
		return
	}

	if err := h.peerService.Upsert(c.Request.Context(), guid, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Update 部分更新设备
func (h *PeerHandler) Update(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	var req UpdatePeerRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.peerService.Update(c.Request.Context(), guid, req.ID, req.PeerPatch); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Delete 批量删除设备
func (h *PeerHandler) Delete(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	var req DeletePeersRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.peerService.Delete(c.Request.Context(), guid, services.MergeNames(req.IDs, req.ID)); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}
