// Package repository 提供了数据访问层的实现。
package repository

import (
	"time"

	"angeldesk-go/internal/model"

	"gorm.io/gorm"
)

// FileRepository 定义了存储文件元数据的操作接口。
type FileRepository interface {
	Create(file *model.StoredFile) error
	Update(file *model.StoredFile) error
	Delete(id string) error
	FindByID(id string) (*model.StoredFile, error)
	FindByMD5(fileMD5 string, userID uint) (*model.StoredFile, error)
	FindByDealID(dealID string) ([]model.StoredFile, error)
	FindByCompanyID(companyID string) ([]model.StoredFile, error)
	FindAccessible(userID uint) ([]model.StoredFile, error)
	MarkProcessed(id, summary string) error
	MarkFailed(id string) error
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository 创建一个新的 FileRepository 实例。
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.StoredFile) error {
	return r.db.Create(file).Error
}

func (r *fileRepository) Update(file *model.StoredFile) error {
	return r.db.Save(file).Error
}

func (r *fileRepository) Delete(id string) error {
	return r.db.Delete(&model.StoredFile{}, "id = ?", id).Error
}

func (r *fileRepository) FindByID(id string) (*model.StoredFile, error) {
	var file model.StoredFile
	if err := r.db.First(&file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// FindByMD5 用于上传去重：同一用户重复上传同一文件直接复用记录。
func (r *fileRepository) FindByMD5(fileMD5 string, userID uint) (*model.StoredFile, error) {
	var file model.StoredFile
	if err := r.db.Where("file_md5 = ? AND user_id = ?", fileMD5, userID).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) FindByDealID(dealID string) ([]model.StoredFile, error) {
	var files []model.StoredFile
	if err := r.db.Where("deal_id = ?", dealID).Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepository) FindByCompanyID(companyID string) ([]model.StoredFile, error) {
	var files []model.StoredFile
	if err := r.db.Where("company_id = ?", companyID).Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// FindAccessible 返回用户自己的文件加上公开文件。
func (r *fileRepository) FindAccessible(userID uint) ([]model.StoredFile, error) {
	var files []model.StoredFile
	if err := r.db.Where("user_id = ? OR is_public = ?", userID, true).
		Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// MarkProcessed 记录摄取管道的处理结果。
func (r *fileRepository) MarkProcessed(id, summary string) error {
	now := time.Now()
	return r.db.Model(&model.StoredFile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       model.FileStatusProcessed,
		"summary":      summary,
		"processed_at": &now,
	}).Error
}

func (r *fileRepository) MarkFailed(id string) error {
	return r.db.Model(&model.StoredFile{}).Where("id = ?", id).
		Update("status", model.FileStatusFailed).Error
}
