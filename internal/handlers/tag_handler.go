package handlers

import (
	"abserver/internal/models"
	"abserver/internal/services"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	accessService *services.AccessService
	tagService    *services.TagService
}

func NewTagHandler(accessService *services.AccessService, tagService *services.TagService) *TagHandler {
	return &TagHandler{
		accessService: accessService,
		tagService:    tagService,
	}
}

// AddTagRequest color 缺省为不透明黑色
type AddTagRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Color *int64 `json:"color"`
}

type RenameTagRequest struct {
	Old string `json:"old" binding:"required"`
	New string `json:"new" binding:"required,max=255"`
}

type UpdateTagColorRequest struct {
	Name  string `json:"name" binding:"required"`
	Color int64  `json:"color"`
}

// DeleteTagsRequest 批量 names，部分客户端版本只发送单个 name
type DeleteTagsRequest struct {
	Names []string `json:"names"`
	Name  *string  `json:"name"`
}

// List 获取地址簿的全部标签
func (h *TagHandler) List(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	tags, err := h.tagService.List(c.Request.Context(), guid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, tags, int64(len(tags)))
}

// Add 创建标签
func (h *TagHandler) Add(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	var req AddTagRequest
	if !bindJSON(c, &req) {
		return
	}
	color := models.DefaultTagColor
	if req.Color != nil {
		color = *req.Color
	}

	if err := h.tagService.Add(c.Request.Context(), guid, req.Name, color); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Rename 重命名标签
func (h *TagHandler) Rename(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	var req RenameTagRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.tagService.Rename(c.Request.Context(), guid, req.Old, req.New); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// UpdateColor 修改标签颜色
func (h *TagHandler) UpdateColor(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	var req UpdateTagColorRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.tagService.Recolor(c.Request.Context(), guid, req.Name, req.Color); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Delete 批量删除标签
func (h *TagHandler) Delete(c *gin.Context) {
	guid, ok := resolve(c, h.accessService, c.Param("guid"))
	if !ok {
		return
	}

	var req DeleteTagsRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.tagService.Delete(c.Request.Context(), guid, services.MergeNames(req.Names, req.Name)); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}
