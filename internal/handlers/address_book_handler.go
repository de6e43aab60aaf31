package handlers

import (
	"abserver/internal/services"
	"abserver/pkg/response"

	"github.com/gin-gonic/gin"
)

// AddressBookHandler 管理员的共享地址簿与授权接口
type AddressBookHandler struct {
	bookService *services.AddressBookService
}

func NewAddressBookHandler(bookService *services.AddressBookService) *AddressBookHandler {
	return &AddressBookHandler{bookService: bookService}
}

func (h *AddressBookHandler) List(c *gin.Context) {
	books, err := h.bookService.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, books, int64(len(books)))
}

// Create 创建共享地址簿，返回新地址簿
func (h *AddressBookHandler) Create(c *gin.Context) {
	var req services.CreateAddressBookInput
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.bookService.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, book)
}

func (h *AddressBookHandler) Delete(c *gin.Context) {
	if err := h.bookService.Delete(c.Request.Context(), c.Param("guid")); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}

// Shares 地址簿的授权列表
func (h *AddressBookHandler) Shares(c *gin.Context) {
	shares, err := h.bookService.Shares(c.Request.Context(), c.Param("guid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.List(c, shares, int64(len(shares)))
}

// Grant 授权给用户或用户组
func (h *AddressBookHandler) Grant(c *gin.Context) {
	var req services.GrantShareInput
	if !bindJSON(c, &req) {
		return
	}

	share, err := h.bookService.Grant(c.Request.Context(), c.Param("guid"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, share)
}

// Revoke 撤销授权
func (h *AddressBookHandler) Revoke(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.bookService.Revoke(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Empty(c)
}
