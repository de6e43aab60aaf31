package pagination

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageParams 分页参数，Current 从 1 开始，0 表示不分页（偏移量为 0）
type PageParams struct {
	Current  int `json:"current" form:"current"`
	PageSize int `json:"pageSize" form:"pageSize"`
}

// 分页配置
const (
	DefaultPageSize = 100
	// MaxOffset 偏移量上限，超出时返回空页而不是溢出成负数
	MaxOffset = math.MaxInt32
)

// ParsePageParams 从请求中解析 RustDesk 客户端的 current / pageSize 参数
func ParsePageParams(c *gin.Context) *PageParams {
	current, err := strconv.Atoi(c.DefaultQuery("current", "0"))
	if err != nil || current < 0 {
		current = 0
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(DefaultPageSize)))
	if err != nil {
		pageSize = DefaultPageSize
	}

	return New(current, pageSize)
}

// New 规范化分页参数
func New(current, pageSize int) *PageParams {
	if current < 0 {
		current = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PageParams{Current: current, PageSize: pageSize}
}

// GetOffset 计算offset
func (p *PageParams) GetOffset() int {
	if p.Current <= 0 {
		return 0
	}
	if p.Current-1 > MaxOffset/p.PageSize {
		return MaxOffset
	}
	return (p.Current - 1) * p.PageSize
}

// GetLimit 计算limit
func (p *PageParams) GetLimit() int {
	return p.PageSize
}
