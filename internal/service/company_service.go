// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"

	"angeldesk-go/internal/model"
	"angeldesk-go/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrCompanyNotFound = errors.New("组合公司不存在")
	ErrNotCompanyOwner = errors.New("无权操作该公司")
)

// CompanyService 接口定义了投资组合相关的业务操作。
type CompanyService interface {
	CreateCompany(userID uint, name, sector, website string) (*model.Company, error)
	GetCompany(id string, userID uint) (*model.Company, error)
	ListCompanies(userID uint) ([]model.Company, error)
	UpdateCompany(id string, userID uint, sector, website, notes string) (*model.Company, error)
	DeleteCompany(id string, userID uint) error
	ListCompanyFiles(id string, userID uint) ([]model.StoredFile, error)
	ListCompanyEmails(id string, userID uint) ([]model.EmailMessage, error)
}

type companyService struct {
	companyRepo repository.CompanyRepository
	fileRepo    repository.FileRepository
	emailRepo   repository.EmailRepository
}

// NewCompanyService 创建一个新的 CompanyService 实例。
func NewCompanyService(companyRepo repository.CompanyRepository, fileRepo repository.FileRepository, emailRepo repository.EmailRepository) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		fileRepo:    fileRepo,
		emailRepo:   emailRepo,
	}
}

// CreateCompany 手工登记一家组合公司（多数公司由 deal 投资流转自动创建）。
func (s *companyService) CreateCompany(userID uint, name, sector, website string) (*model.Company, error) {
	if name == "" {
		return nil, errors.New("公司名称不能为空")
	}
	company := &model.Company{
		ID:      uuid.NewString(),
		UserID:  userID,
		Name:    name,
		Sector:  sector,
		Website: website,
	}
	if err := s.companyRepo.Create(company); err != nil {
		return nil, err
	}
	return company, nil
}

// GetCompany 获取单个公司，并校验归属。
func (s *companyService) GetCompany(id string, userID uint) (*model.Company, error) {
	company, err := s.companyRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}
	if company.UserID != userID {
		return nil, ErrNotCompanyOwner
	}
	return company, nil
}

// ListCompanies 列出用户的投资组合。
func (s *companyService) ListCompanies(userID uint) ([]model.Company, error) {
	return s.companyRepo.FindByUserID(userID)
}

// UpdateCompany 更新公司的基础信息和备注。
func (s *companyService) UpdateCompany(id string, userID uint, sector, website, notes string) (*model.Company, error) {
	company, err := s.GetCompany(id, userID)
	if err != nil {
		return nil, err
	}
	company.Sector = sector
	company.Website = website
	company.Notes = notes
	if err := s.companyRepo.Update(company); err != nil {
		return nil, err
	}
	return company, nil
}

// DeleteCompany 删除公司。
func (s *companyService) DeleteCompany(id string, userID uint) error {
	if _, err := s.GetCompany(id, userID); err != nil {
		return err
	}
	return s.companyRepo.Delete(id, userID)
}

// ListCompanyFiles 列出归属于该公司的报告与附件。
func (s *companyService) ListCompanyFiles(id string, userID uint) ([]model.StoredFile, error) {
	if _, err := s.GetCompany(id, userID); err != nil {
		return nil, err
	}
	return s.fileRepo.FindByCompanyID(id)
}

// ListCompanyEmails 列出该公司相关的往来邮件。
func (s *companyService) ListCompanyEmails(id string, userID uint) ([]model.EmailMessage, error) {
	if _, err := s.GetCompany(id, userID); err != nil {
		return nil, err
	}
	return s.emailRepo.FindByCompanyID(id)
}
