// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"angeldesk-go/internal/service"
	"angeldesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责处理文件库与预览相关的 API 请求。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// List 列出当前用户可见的文件。
func (h *DocumentHandler) List(c *gin.Context) {
	user := currentUser(c)
	files, err := h.documentService.ListFiles(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询文件列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": files})
}

// visibilityRequest 定义了切换文件公开状态的请求体。
type visibilityRequest struct {
	IsPublic *bool `json:"isPublic" binding:"required"`
}

// SetVisibility 切换文件的公开状态。公开后其他用户也能看到并搜索到该文件。
func (h *DocumentHandler) SetVisibility(c *gin.Context) {
	user := currentUser(c)
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数: " + err.Error()})
		return
	}
	file, err := h.documentService.SetVisibility(c.Request.Context(), c.Param("id"), user.ID, *req.IsPublic)
	if err != nil {
		h.respondPreviewError(c, c.Param("id"), user.ID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": file})
}

// Preview 把文件解析为前端可渲染的预览结构。
// 预览失败时按失败类别返回对应的状态码与恢复提示，
// 不支持的格式仍然给出下载链接作为兜底动作。
func (h *DocumentHandler) Preview(c *gin.Context) {
	user := currentUser(c)
	fileID := c.Param("id")

	preview, err := h.documentService.PreviewFile(c.Request.Context(), fileID, user.ID)
	if err != nil {
		h.respondPreviewError(c, fileID, user.ID, err)
		return
	}
	// Close 由前端通过 DELETE /blobs/:id 显式触发，这里不关闭

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": preview})
}

// DownloadURL 生成文件的临时下载链接。
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	user := currentUser(c)
	url, err := h.documentService.DownloadURL(c.Request.Context(), c.Param("id"), user.ID)
	if err != nil {
		h.respondPreviewError(c, c.Param("id"), user.ID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{"url": url}})
}

// Delete 删除文件。
func (h *DocumentHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if err := h.documentService.DeleteFile(c.Request.Context(), c.Param("id"), user.ID); err != nil {
		h.respondPreviewError(c, c.Param("id"), user.ID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功", "data": nil})
}

// respondPreviewError 把预览与文件访问错误映射为 HTTP 响应。
func (h *DocumentHandler) respondPreviewError(c *gin.Context, fileID string, userID uint, err error) {
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFileOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNoFileAttached):
		c.JSON(http.StatusNotFound, gin.H{"error": "该记录没有附加文件"})
	case errors.Is(err, service.ErrUnsupportedFormat):
		// 无法预览但仍可下载
		url, urlErr := h.documentService.DownloadURL(c.Request.Context(), fileID, userID)
		payload := gin.H{"error": "不支持预览的文件格式"}
		if urlErr == nil {
			payload["downloadUrl"] = url
		}
		c.JSON(http.StatusUnprocessableEntity, payload)
	case errors.Is(err, service.ErrDecodeFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "文件内容无法解析"})
	case errors.Is(err, service.ErrFetchFailed):
		log.Errorf("Preview: 文件获取失败, file: %s, error: %v", fileID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "文件获取失败，请稍后重试"})
	default:
		log.Errorf("Preview: 未预期的错误, file: %s, error: %v", fileID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "预览失败"})
	}
}
