package handlers

import (
	"bytes"
	"encoding/json"
	"io"

	"abserver/internal/services"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

// 请求体上限，心跳和审计都很小
const maxTelemetryBody = 64 << 10

// SystemHandler 客户端心跳、系统信息和审计上报，均无需登录
type SystemHandler struct {
	systemService *services.SystemService
}

func NewSystemHandler(systemService *services.SystemService) *SystemHandler {
	return &SystemHandler{systemService: systemService}
}

// HeartbeatResponse 客户端要求返回 modified_at
type HeartbeatResponse struct {
	ModifiedAt string `json:"modified_at"`
}

// readBody 读取原始请求体并解析到 req；空请求体视为空对象
func readBody(c *gin.Context, req interface{}) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTelemetryBody))
	if err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return nil, false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, true
	}
	if err := json.Unmarshal(raw, req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return nil, false
	}
	return raw, true
}

func (h *SystemHandler) Heartbeat(c *gin.Context) {
	var req services.HeartbeatInput
	if _, ok := readBody(c, &req); !ok {
		return
	}

	if err := h.systemService.Heartbeat(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, HeartbeatResponse{ModifiedAt: ""})
}

func (h *SystemHandler) Sysinfo(c *gin.Context) {
	var req services.SysinfoInput
	raw, ok := readBody(c, &req)
	if !ok {
		return
	}

	if err := h.systemService.Sysinfo(c.Request.Context(), req, raw); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

func (h *SystemHandler) Audit(c *gin.Context) {
	var req services.AuditInput
	raw, ok := readBody(c, &req)
	if !ok {
		return
	}

	if err := h.systemService.Audit(c.Request.Context(), req, raw); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Health 健康检查
func (h *SystemHandler) Health(c *gin.Context) {
	response.JSON(c, gin.H{"status": "ok"})
}
