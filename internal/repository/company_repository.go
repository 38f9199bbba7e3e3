// Package repository 提供了数据访问层的实现。
package repository

import (
	"angeldesk-go/internal/model"

	"gorm.io/gorm"
)

// CompanyRepository 定义了组合公司数据的操作接口。
type CompanyRepository interface {
	Create(company *model.Company) error
	Update(company *model.Company) error
	Delete(id string, userID uint) error
	FindByID(id string) (*model.Company, error)
	FindByUserID(userID uint) ([]model.Company, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository 创建一个新的 CompanyRepository 实例。
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(company *model.Company) error {
	return r.db.Create(company).Error
}

func (r *companyRepository) Update(company *model.Company) error {
	return r.db.Save(company).Error
}

func (r *companyRepository) Delete(id string, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Company{}).Error
}

func (r *companyRepository) FindByID(id string) (*model.Company, error) {
	var company model.Company
	if err := r.db.First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByUserID(userID uint) ([]model.Company, error) {
	var companies []model.Company
	if err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}
