// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"angeldesk-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ConversationHandler 负责对话的创建与历史查询。
// 实时消息收发走 ChatHandler 的 WebSocket 通道。
type ConversationHandler struct {
	chatService service.ChatService
}

// NewConversationHandler 创建一个新的 ConversationHandler 实例。
func NewConversationHandler(chatService service.ChatService) *ConversationHandler {
	return &ConversationHandler{chatService: chatService}
}

// CreateConversationRequest 定义了创建对话 API 的请求体结构。
type CreateConversationRequest struct {
	DealID    *string `json:"dealId"`
	CompanyID *string `json:"companyId"`
	Title     string  `json:"title"`
}

// Create 创建一个新对话。
func (h *ConversationHandler) Create(c *gin.Context) {
	user := currentUser(c)
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	conv, err := h.chatService.CreateConversation(user.ID, req.DealID, req.CompanyID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建对话失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "创建成功", "data": conv})
}

// List 列出当前用户的对话。
func (h *ConversationHandler) List(c *gin.Context) {
	user := currentUser(c)
	convs, err := h.chatService.ListConversations(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询对话列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": convs})
}

// Messages 返回对话的已持久化消息。
func (h *ConversationHandler) Messages(c *gin.Context) {
	user := currentUser(c)
	msgs, err := h.chatService.GetMessages(c.Param("id"), user.ID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询消息失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": msgs})
}
