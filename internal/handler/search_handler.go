// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"angeldesk-go/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler 负责处理全文搜索请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// Search 在用户可见的文档范围内做全文检索。
// 查询参数：q 关键词，topK 返回条数（默认 10）。
func (h *SearchHandler) Search(c *gin.Context) {
	user := currentUser(c)
	query := c.Query("q")
	topK, _ := strconv.Atoi(c.DefaultQuery("topK", "10"))

	results, err := h.searchService.Search(c.Request.Context(), query, topK, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": results})
}
