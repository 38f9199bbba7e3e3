// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"angeldesk-go/internal/service"

	"github.com/gin-gonic/gin"
)

// BlobHandler 提供预览会话期间的临时二进制访问。
// PDF 和图片预览返回的 objectUrl 指向这里；预览关闭后令牌被撤销，
// 再次访问返回 404。
type BlobHandler struct {
	registry *service.ObjectURLRegistry
}

// NewBlobHandler 创建一个新的 BlobHandler 实例。
func NewBlobHandler(registry *service.ObjectURLRegistry) *BlobHandler {
	return &BlobHandler{registry: registry}
}

// Get 按令牌返回二进制内容。
func (h *BlobHandler) Get(c *gin.Context) {
	objectURL := service.ObjectURLPrefix + c.Param("id")
	data, contentType, ok := h.registry.Resolve(objectURL)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "链接不存在或已撤销"})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// Revoke 撤销令牌，释放其持有的内容。重复撤销是无害的。
func (h *BlobHandler) Revoke(c *gin.Context) {
	objectURL := service.ObjectURLPrefix + c.Param("id")
	h.registry.Revoke(objectURL)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "已撤销", "data": nil})
}
