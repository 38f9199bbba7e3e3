// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"angeldesk-go/internal/service"
	"angeldesk-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DealHandler 负责处理投资机会漏斗相关的 API 请求。
type DealHandler struct {
	dealService     service.DealService
	documentService service.DocumentService
}

// NewDealHandler 创建一个新的 DealHandler 实例。
func NewDealHandler(dealService service.DealService, documentService service.DocumentService) *DealHandler {
	return &DealHandler{dealService: dealService, documentService: documentService}
}

// CreateDealRequest 定义了创建项目 API 的请求体结构。
type CreateDealRequest struct {
	CompanyName string `json:"companyName" binding:"required"`
	Sector      string `json:"sector"`
	Stage       string `json:"stage"`
	RoundSize   int64  `json:"roundSize"`
}

// Create 处理创建项目的请求。
func (h *DealHandler) Create(c *gin.Context) {
	user := currentUser(c)
	var req CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}

	deal, err := h.dealService.CreateDeal(user.ID, req.CompanyName, req.Sector, req.Stage, req.RoundSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "创建成功", "data": deal})
}

// List 列出当前用户的项目，支持按状态过滤（?status=inbox）。
func (h *DealHandler) List(c *gin.Context) {
	user := currentUser(c)
	deals, err := h.dealService.ListDeals(user.ID, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询项目列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": deals})
}

// Get 获取单个项目详情。
func (h *DealHandler) Get(c *gin.Context) {
	user := currentUser(c)
	deal, err := h.dealService.GetDeal(c.Param("id"), user.ID)
	if err != nil {
		respondDealError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": deal})
}

// UpdateNotesRequest 定义了更新笔记 API 的请求体结构。
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes 更新项目的尽调笔记。
func (h *DealHandler) UpdateNotes(c *gin.Context) {
	user := currentUser(c)
	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	deal, err := h.dealService.UpdateNotes(c.Param("id"), user.ID, req.Notes)
	if err != nil {
		respondDealError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "更新成功", "data": deal})
}

// MoveDealRequest 定义了状态流转 API 的请求体结构。
type MoveDealRequest struct {
	Status string `json:"status" binding:"required"`
}

// Move 在漏斗中移动项目状态。
func (h *DealHandler) Move(c *gin.Context) {
	user := currentUser(c)
	var req MoveDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载：status 不能为空"})
		return
	}
	deal, err := h.dealService.MoveDeal(c.Param("id"), user.ID, req.Status)
	if err != nil {
		respondDealError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "状态已更新", "data": deal})
}

// Delete 删除项目。
func (h *DealHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if err := h.dealService.DeleteDeal(c.Param("id"), user.ID); err != nil {
		respondDealError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功", "data": nil})
}

// UploadDeck 接收项目的 pitch deck 上传。
func (h *DealHandler) UploadDeck(c *gin.Context) {
	user := currentUser(c)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	stored, err := h.dealService.UploadDeckFile(c.Request.Context(), c.Param("id"), user.ID, fileHeader.Filename, file)
	if err != nil {
		log.Errorf("UploadDeck: 上传失败, deal: %s, error: %v", c.Param("id"), err)
		respondDealError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "上传成功", "data": stored})
}

// ListFiles 列出项目下的文件。
func (h *DealHandler) ListFiles(c *gin.Context) {
	user := currentUser(c)
	files, err := h.documentService.ListDealFiles(c.Param("id"), user.ID)
	if err != nil {
		respondDealError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": files})
}

// respondDealError 把项目业务错误映射为对应的 HTTP 状态码。
func respondDealError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDealNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotDealOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDealNotInFlow):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
