// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"angeldesk-go/internal/service"
	"angeldesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// IngestHandler 负责接收外部邮件转发 webhook 的推送。
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler 创建一个新的 IngestHandler 实例。
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// InboundEmail 处理一封转发进来的邮件。
func (h *IngestHandler) InboundEmail(c *gin.Context) {
	user := currentUser(c)
	var email service.InboundEmail
	if err := c.ShouldBindJSON(&email); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	record, err := h.ingestService.IngestEmail(c.Request.Context(), user.ID, email)
	if err != nil {
		log.Errorf("InboundEmail: 邮件摄取失败, from: %s, error: %v", email.From, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "摄取成功", "data": record})
}

// ListEmails 列出当前用户摄取的邮件。
func (h *IngestHandler) ListEmails(c *gin.Context) {
	user := currentUser(c)
	emails, err := h.ingestService.ListEmails(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询邮件列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": emails})
}
