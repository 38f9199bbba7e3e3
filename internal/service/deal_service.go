// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"angeldesk-go/internal/model"
	"angeldesk-go/internal/repository"
	"angeldesk-go/pkg/kafka"
	"angeldesk-go/pkg/log"
	"angeldesk-go/pkg/storage"
	"angeldesk-go/pkg/tasks"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDealNotFound  = errors.New("项目不存在")
	ErrNotDealOwner  = errors.New("无权操作该项目")
	ErrDealNotInFlow = errors.New("项目已做出决策，不能再变更")
)

// 合法的状态流转。inbox → review → invested/passed，invested/passed 为终态。
var dealTransitions = map[string][]string{
	model.DealStatusInbox:  {model.DealStatusReview, model.DealStatusPassed},
	model.DealStatusReview: {model.DealStatusInvested, model.DealStatusPassed},
}

// DealService 接口定义了投资机会漏斗相关的业务操作。
type DealService interface {
	CreateDeal(userID uint, companyName, sector, stage string, roundSize int64) (*model.Deal, error)
	GetDeal(id string, userID uint) (*model.Deal, error)
	ListDeals(userID uint, status string) ([]model.Deal, error)
	UpdateNotes(id string, userID uint, notes string) (*model.Deal, error)
	MoveDeal(id string, userID uint, targetStatus string) (*model.Deal, error)
	DeleteDeal(id string, userID uint) error
	UploadDeckFile(ctx context.Context, dealID string, userID uint, fileName string, file multipart.File) (*model.StoredFile, error)
}

type dealService struct {
	dealRepo    repository.DealRepository
	companyRepo repository.CompanyRepository
	fileRepo    repository.FileRepository
	deckArea    string // pitch deck 所在的存储区名称
}

// NewDealService 创建一个新的 DealService 实例。
func NewDealService(dealRepo repository.DealRepository, companyRepo repository.CompanyRepository, fileRepo repository.FileRepository, deckArea string) DealService {
	return &dealService{
		dealRepo:    dealRepo,
		companyRepo: companyRepo,
		fileRepo:    fileRepo,
		deckArea:    deckArea,
	}
}

// CreateDeal 在漏斗入口创建一个新项目，初始状态为 inbox。
func (s *dealService) CreateDeal(userID uint, companyName, sector, stage string, roundSize int64) (*model.Deal, error) {
	if companyName == "" {
		return nil, errors.New("公司名称不能为空")
	}
	deal := &model.Deal{
		ID:          uuid.NewString(),
		UserID:      userID,
		CompanyName: companyName,
		Sector:      sector,
		Stage:       stage,
		Status:      model.DealStatusInbox,
		RoundSize:   roundSize,
	}
	if err := s.dealRepo.Create(deal); err != nil {
		log.Errorf("[DealService] 创建项目失败, company: %s, error: %v", companyName, err)
		return nil, err
	}
	return deal, nil
}

// GetDeal 获取单个项目，并校验归属。
func (s *dealService) GetDeal(id string, userID uint) (*model.Deal, error) {
	deal, err := s.dealRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDealNotFound
		}
		return nil, err
	}
	if deal.UserID != userID {
		return nil, ErrNotDealOwner
	}
	return deal, nil
}

// ListDeals 列出用户的项目，status 为空时返回全部。
func (s *dealService) ListDeals(userID uint, status string) ([]model.Deal, error) {
	return s.dealRepo.FindByUserID(userID, status)
}

// UpdateNotes 更新项目的尽调笔记。
func (s *dealService) UpdateNotes(id string, userID uint, notes string) (*model.Deal, error) {
	deal, err := s.GetDeal(id, userID)
	if err != nil {
		return nil, err
	}
	deal.Notes = notes
	if err := s.dealRepo.Update(deal); err != nil {
		return nil, err
	}
	return deal, nil
}

// MoveDeal 在漏斗中移动项目状态。移动到 invested 时自动创建组合公司
// 并回填关联；invested 和 passed 都会记录决策时间。
func (s *dealService) MoveDeal(id string, userID uint, targetStatus string) (*model.Deal, error) {
	deal, err := s.GetDeal(id, userID)
	if err != nil {
		return nil, err
	}

	allowed, ok := dealTransitions[deal.Status]
	if !ok {
		return nil, ErrDealNotInFlow
	}
	valid := false
	for _, next := range allowed {
		if next == targetStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("不允许从 '%s' 流转到 '%s'", deal.Status, targetStatus)
	}

	deal.Status = targetStatus
	if targetStatus == model.DealStatusInvested || targetStatus == model.DealStatusPassed {
		now := time.Now()
		deal.DecidedAt = &now
	}

	if targetStatus == model.DealStatusInvested {
		company := &model.Company{
			ID:         uuid.NewString(),
			UserID:     userID,
			Name:       deal.CompanyName,
			Sector:     deal.Sector,
			InvestedAt: deal.DecidedAt,
		}
		if err := s.companyRepo.Create(company); err != nil {
			log.Errorf("[DealService] 创建组合公司失败, deal: %s, error: %v", id, err)
			return nil, fmt.Errorf("创建组合公司失败: %w", err)
		}
		deal.CompanyID = &company.ID
	}

	if err := s.dealRepo.Update(deal); err != nil {
		return nil, err
	}
	log.Infof("[DealService] 项目状态变更, deal: %s, status: %s", id, targetStatus)
	return deal, nil
}

// DeleteDeal 删除项目。
func (s *dealService) DeleteDeal(id string, userID uint) error {
	if _, err := s.GetDeal(id, userID); err != nil {
		return err
	}
	return s.dealRepo.Delete(id, userID)
}

// UploadDeckFile 接收 pitch deck：按 MD5 去重，新文件落 MinIO 后
// 发送 Kafka 摄取任务，由管道异步提取文本、生成摘要并写入索引。
func (s *dealService) UploadDeckFile(ctx context.Context, dealID string, userID uint, fileName string, file multipart.File) (*model.StoredFile, error) {
	deal, err := s.GetDeal(dealID, userID)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取上传内容失败: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("上传的文件为空")
	}

	sum := md5.Sum(data)
	fileMD5 := hex.EncodeToString(sum[:])

	// 秒传：同一用户上传过相同内容时直接复用已有记录
	if existing, err := s.fileRepo.FindByMD5(fileMD5, userID); err == nil {
		log.Infof("[DealService] 文件秒传命中, md5: %s, file: %s", fileMD5, existing.ID)
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fileID := uuid.NewString()
	objectName := fmt.Sprintf("%s/%s_%s", dealID, fileID, fileName)
	contentType := mimeByName(fileName)
	if err := storage.PutBytes(ctx, s.deckArea, objectName, data, contentType); err != nil {
		log.Errorf("[DealService] 上传到对象存储失败, file: %s, error: %v", fileName, err)
		return nil, fmt.Errorf("上传到对象存储失败: %w", err)
	}

	stored := &model.StoredFile{
		ID:          fileID,
		UserID:      userID,
		DealID:      &deal.ID,
		Kind:        model.FileKindDeck,
		FileName:    fileName,
		FileMD5:     fileMD5,
		MimeType:    contentType,
		StorageArea: s.deckArea,
		StoragePath: objectName,
		Size:        int64(len(data)),
		Status:      model.FileStatusUploaded,
	}
	if err := s.fileRepo.Create(stored); err != nil {
		return nil, err
	}

	task := tasks.IngestTask{
		FileID:      stored.ID,
		FileName:    stored.FileName,
		StorageArea: stored.StorageArea,
		StoragePath: stored.StoragePath,
		Kind:        stored.Kind,
		UserID:      userID,
		IsPublic:    stored.IsPublic,
		DealID:      dealID,
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		// 任务投递失败不阻塞上传，标记失败等待重新触发
		log.Errorf("[DealService] 发送摄取任务失败, file: %s, error: %v", stored.ID, err)
		_ = s.fileRepo.MarkFailed(stored.ID)
	}

	return stored, nil
}
