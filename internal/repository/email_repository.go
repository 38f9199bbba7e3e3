// Package repository 提供了数据访问层的实现。
package repository

import (
	"angeldesk-go/internal/model"

	"gorm.io/gorm"
)

// EmailRepository 定义了摄取邮件记录的操作接口。
type EmailRepository interface {
	Create(email *model.EmailMessage) error
	FindByUserID(userID uint) ([]model.EmailMessage, error)
	FindByCompanyID(companyID string) ([]model.EmailMessage, error)
}

type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository 创建一个新的 EmailRepository 实例。
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) Create(email *model.EmailMessage) error {
	return r.db.Create(email).Error
}

func (r *emailRepository) FindByUserID(userID uint) ([]model.EmailMessage, error) {
	var emails []model.EmailMessage
	if err := r.db.Where("user_id = ?", userID).Order("received_at DESC").Find(&emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *emailRepository) FindByCompanyID(companyID string) ([]model.EmailMessage, error) {
	var emails []model.EmailMessage
	if err := r.db.Where("company_id = ?", companyID).Order("received_at DESC").Find(&emails).Error; err != nil {
		return nil, err
	}
	return emails, nil
}
