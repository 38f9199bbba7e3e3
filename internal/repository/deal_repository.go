// Package repository 提供了数据访问层的实现。
package repository

import (
	"angeldesk-go/internal/model"

	"gorm.io/gorm"
)

// DealRepository 定义了 deal 数据的操作接口。
type DealRepository interface {
	Create(deal *model.Deal) error
	Update(deal *model.Deal) error
	Delete(id string, userID uint) error
	FindByID(id string) (*model.Deal, error)
	FindByUserID(userID uint, status string) ([]model.Deal, error)
}

type dealRepository struct {
	db *gorm.DB
}

// NewDealRepository 创建一个新的 DealRepository 实例。
func NewDealRepository(db *gorm.DB) DealRepository {
	return &dealRepository{db: db}
}

func (r *dealRepository) Create(deal *model.Deal) error {
	return r.db.Create(deal).Error
}

func (r *dealRepository) Update(deal *model.Deal) error {
	return r.db.Save(deal).Error
}

func (r *dealRepository) Delete(id string, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Deal{}).Error
}

func (r *dealRepository) FindByID(id string) (*model.Deal, error) {
	var deal model.Deal
	if err := r.db.First(&deal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &deal, nil
}

// FindByUserID 按用户查询 deal 列表，status 为空时返回全部状态。
func (r *dealRepository) FindByUserID(userID uint, status string) ([]model.Deal, error) {
	var deals []model.Deal
	query := r.db.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&deals).Error; err != nil {
		return nil, err
	}
	return deals, nil
}
