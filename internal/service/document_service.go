// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"

	"angeldesk-go/internal/model"
	"angeldesk-go/internal/repository"
	"angeldesk-go/pkg/es"
	"angeldesk-go/pkg/log"
	"angeldesk-go/pkg/storage"

	"gorm.io/gorm"
)

var (
	ErrFileNotFound = errors.New("文件不存在")
	ErrNotFileOwner = errors.New("无权访问该文件")
)

// DocumentService 接口定义了文件库相关的业务操作：
// 列表、预览、下载和删除，预览解析委托给 PreviewService。
type DocumentService interface {
	ListFiles(userID uint) ([]model.StoredFile, error)
	ListDealFiles(dealID string, userID uint) ([]model.StoredFile, error)
	GetFile(id string, userID uint) (*model.StoredFile, error)
	// SetVisibility 切换文件的公开状态。公开的文件对所有用户可见、可检索。
	SetVisibility(ctx context.Context, id string, userID uint, isPublic bool) (*model.StoredFile, error)
	PreviewFile(ctx context.Context, id string, userID uint) (*Preview, error)
	DownloadURL(ctx context.Context, id string, userID uint) (string, error)
	DeleteFile(ctx context.Context, id string, userID uint) error
}

type documentService struct {
	fileRepo repository.FileRepository
	dealRepo repository.DealRepository
	preview  PreviewService

	// 索引可见性的同步入口，测试时可替换
	indexVisibility func(ctx context.Context, fileID string, isPublic bool) error
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(fileRepo repository.FileRepository, dealRepo repository.DealRepository, preview PreviewService) DocumentService {
	return &documentService{
		fileRepo:        fileRepo,
		dealRepo:        dealRepo,
		preview:         preview,
		indexVisibility: es.UpdateVisibility,
	}
}

// ListFiles 列出用户可见的所有文件（自有的和公开的）。
func (s *documentService) ListFiles(userID uint) ([]model.StoredFile, error) {
	return s.fileRepo.FindAccessible(userID)
}

// ListDealFiles 列出某个项目下的文件。
func (s *documentService) ListDealFiles(dealID string, userID uint) ([]model.StoredFile, error) {
	deal, err := s.dealRepo.FindByID(dealID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}
	if deal.UserID != userID {
		return nil, ErrNotDealOwner
	}
	return s.fileRepo.FindByDealID(dealID)
}

// GetFile 获取文件元数据，并校验访问权限。
func (s *documentService) GetFile(id string, userID uint) (*model.StoredFile, error) {
	file, err := s.fileRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if file.UserID != userID && !file.IsPublic {
		return nil, ErrNotFileOwner
	}
	return file, nil
}

// SetVisibility 切换文件的公开状态，只有属主可以操作。
// 已入索引的文档同步更新检索可见性；同步失败只告警，
// 数据库里的状态是权威，读路径的 owner 校验不依赖索引。
func (s *documentService) SetVisibility(ctx context.Context, id string, userID uint, isPublic bool) (*model.StoredFile, error) {
	file, err := s.fileRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	if file.UserID != userID {
		return nil, ErrNotFileOwner
	}
	if file.IsPublic == isPublic {
		return file, nil
	}

	file.IsPublic = isPublic
	if err := s.fileRepo.Update(file); err != nil {
		return nil, err
	}
	if file.Status == model.FileStatusProcessed {
		if err := s.indexVisibility(ctx, id, isPublic); err != nil {
			log.Warnf("[DocumentService] 同步索引可见性失败, file: %s, error: %v", id, err)
		}
	}
	return file, nil
}

// PreviewFile 把库中文件解析为可渲染的预览。
// 已处理完成的纯文本类摘要不在此返回，预览始终基于原始文件内容。
func (s *documentService) PreviewFile(ctx context.Context, id string, userID uint) (*Preview, error) {
	file, err := s.GetFile(id, userID)
	if err != nil {
		return nil, err
	}
	ref := model.DocumentRef{
		Name:        file.FileName,
		MimeType:    file.MimeType,
		StoragePath: file.StoragePath,
	}
	return s.preview.ResolvePreview(ctx, ref)
}

// DownloadURL 生成文件的临时下载链接。
func (s *documentService) DownloadURL(ctx context.Context, id string, userID uint) (string, error) {
	file, err := s.GetFile(id, userID)
	if err != nil {
		return "", err
	}
	return s.preview.RawDownloadURL(ctx, model.DocumentRef{
		Name:        file.FileName,
		StoragePath: file.StoragePath,
	})
}

// DeleteFile 删除文件：先移除对象存储中的内容，再删除元数据。
// 对象删除失败只告警，元数据删除保证列表一致性。
func (s *documentService) DeleteFile(ctx context.Context, id string, userID uint) error {
	file, err := s.fileRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFileNotFound
		}
		return err
	}
	if file.UserID != userID {
		return ErrNotFileOwner
	}
	if err := storage.RemoveObject(ctx, file.StorageArea, file.StoragePath); err != nil {
		log.Warnf("[DocumentService] 删除对象失败, file: %s, error: %v", id, err)
	}
	return s.fileRepo.Delete(id)
}
