// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"angeldesk-go/internal/service"

	"github.com/gin-gonic/gin"
)

// CompanyHandler 负责处理投资组合相关的 API 请求。
type CompanyHandler struct {
	companyService service.CompanyService
}

// NewCompanyHandler 创建一个新的 CompanyHandler 实例。
func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// CreateCompanyRequest 定义了创建公司 API 的请求体结构。
type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	Sector  string `json:"sector"`
	Website string `json:"website"`
}

// Create 手工登记一家组合公司。
func (h *CompanyHandler) Create(c *gin.Context) {
	user := currentUser(c)
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载: " + err.Error()})
		return
	}
	company, err := h.companyService.CreateCompany(user.ID, req.Name, req.Sector, req.Website)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "创建成功", "data": company})
}

// List 列出当前用户的投资组合。
func (h *CompanyHandler) List(c *gin.Context) {
	user := currentUser(c)
	companies, err := h.companyService.ListCompanies(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询组合失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": companies})
}

// Get 获取单个公司详情。
func (h *CompanyHandler) Get(c *gin.Context) {
	user := currentUser(c)
	company, err := h.companyService.GetCompany(c.Param("id"), user.ID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": company})
}

// UpdateCompanyRequest 定义了更新公司 API 的请求体结构。
type UpdateCompanyRequest struct {
	Sector  string `json:"sector"`
	Website string `json:"website"`
	Notes   string `json:"notes"`
}

// Update 更新公司信息。
func (h *CompanyHandler) Update(c *gin.Context) {
	user := currentUser(c)
	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	company, err := h.companyService.UpdateCompany(c.Param("id"), user.ID, req.Sector, req.Website, req.Notes)
	if err != nil {
		respondCompanyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "更新成功", "data": company})
}

// Delete 删除公司。
func (h *CompanyHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	if err := h.companyService.DeleteCompany(c.Param("id"), user.ID); err != nil {
		respondCompanyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "删除成功", "data": nil})
}

// ListFiles 列出公司的报告与附件。
func (h *CompanyHandler) ListFiles(c *gin.Context) {
	user := currentUser(c)
	files, err := h.companyService.ListCompanyFiles(c.Param("id"), user.ID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": files})
}

// ListEmails 列出公司相关的往来邮件。
func (h *CompanyHandler) ListEmails(c *gin.Context) {
	user := currentUser(c)
	emails, err := h.companyService.ListCompanyEmails(c.Param("id"), user.ID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": emails})
}

// respondCompanyError 把公司业务错误映射为对应的 HTTP 状态码。
func respondCompanyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCompanyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotCompanyOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
