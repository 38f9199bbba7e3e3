// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"angeldesk-go/internal/model"
	"angeldesk-go/internal/repository"
	"angeldesk-go/pkg/kafka"
	"angeldesk-go/pkg/log"
	"angeldesk-go/pkg/storage"
	"angeldesk-go/pkg/tasks"

	"github.com/google/uuid"
)

// InboundAttachment 是邮件转发 webhook 推送的单个附件。
type InboundAttachment struct {
	FileName string `json:"fileName" binding:"required"`
	MimeType string `json:"mimeType"`
	// Base64 编码的附件内容
	Content string `json:"content" binding:"required"`
}

// InboundEmail 是邮件转发 webhook 的请求体。
// 投资人把公司往来邮件转发到专属地址，转发服务解析后推到这里。
type InboundEmail struct {
	From        string              `json:"from" binding:"required"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	CompanyID   *string             `json:"companyId"`
	DealID      *string             `json:"dealId"`
	ReceivedAt  time.Time           `json:"receivedAt"`
	Attachments []InboundAttachment `json:"attachments"`
}

// IngestService 接口定义了邮件与报告摄取的业务操作。
type IngestService interface {
	// IngestEmail 落库邮件、把正文和附件写入 reports 存储区，
	// 并为每个落盘文件发送摄取任务。
	IngestEmail(ctx context.Context, userID uint, email InboundEmail) (*model.EmailMessage, error)
	ListEmails(userID uint) ([]model.EmailMessage, error)
}

type ingestService struct {
	emailRepo  repository.EmailRepository
	fileRepo   repository.FileRepository
	reportArea string // 邮件正文与附件落地的存储区
}

// NewIngestService 创建一个新的 IngestService 实例。
func NewIngestService(emailRepo repository.EmailRepository, fileRepo repository.FileRepository, reportArea string) IngestService {
	return &ingestService{
		emailRepo:  emailRepo,
		fileRepo:   fileRepo,
		reportArea: reportArea,
	}
}

// IngestEmail 处理一封转发进来的邮件。
// 正文作为一个文本文件落盘，每个附件单独落盘，全部进入摄取管道。
func (s *ingestService) IngestEmail(ctx context.Context, userID uint, email InboundEmail) (*model.EmailMessage, error) {
	if email.From == "" {
		return nil, errors.New("发件人不能为空")
	}
	if email.ReceivedAt.IsZero() {
		email.ReceivedAt = time.Now()
	}

	emailID := uuid.NewString()

	// 1. 正文落盘
	var bodyFileID string
	if email.Body != "" {
		bodyName := fmt.Sprintf("%s-body.txt", emailID)
		stored, err := s.storeAndDispatch(ctx, userID, email, emailID, bodyName, "text/plain", []byte(email.Body))
		if err != nil {
			return nil, fmt.Errorf("保存邮件正文失败: %w", err)
		}
		bodyFileID = stored.ID
	}

	// 2. 附件逐个落盘，单个附件失败不终止整封邮件
	for _, att := range email.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			log.Warnf("[IngestService] 附件解码失败, email: %s, file: %s, error: %v", emailID, att.FileName, err)
			continue
		}
		contentType := att.MimeType
		if contentType == "" {
			contentType = mimeByName(att.FileName)
		}
		if _, err := s.storeAndDispatch(ctx, userID, email, emailID, att.FileName, contentType, data); err != nil {
			log.Errorf("[IngestService] 附件保存失败, email: %s, file: %s, error: %v", emailID, att.FileName, err)
		}
	}

	// 3. 邮件元数据落库
	record := &model.EmailMessage{
		ID:         emailID,
		UserID:     userID,
		CompanyID:  email.CompanyID,
		DealID:     email.DealID,
		FromAddr:   email.From,
		Subject:    email.Subject,
		BodyFileID: bodyFileID,
		ReceivedAt: email.ReceivedAt,
	}
	if err := s.emailRepo.Create(record); err != nil {
		return nil, err
	}
	log.Infof("[IngestService] 邮件摄取完成, email: %s, from: %s, attachments: %d", emailID, email.From, len(email.Attachments))
	return record, nil
}

// ListEmails 列出用户摄取的全部邮件。
func (s *ingestService) ListEmails(userID uint) ([]model.EmailMessage, error) {
	return s.emailRepo.FindByUserID(userID)
}

// storeAndDispatch 把一段字节写入 reports 存储区、登记 StoredFile
// 并投递摄取任务。
func (s *ingestService) storeAndDispatch(ctx context.Context, userID uint, email InboundEmail, emailID, fileName, contentType string, data []byte) (*model.StoredFile, error) {
	fileID := uuid.NewString()
	objectName := fmt.Sprintf("emails/%s/%s_%s", emailID, fileID, fileName)
	if err := storage.PutBytes(ctx, s.reportArea, objectName, data, contentType); err != nil {
		return nil, err
	}

	stored := &model.StoredFile{
		ID:          fileID,
		UserID:      userID,
		DealID:      email.DealID,
		CompanyID:   email.CompanyID,
		Kind:        model.FileKindEmail,
		FileName:    fileName,
		MimeType:    contentType,
		StorageArea: s.reportArea,
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
	}
	if email.DealID != nil {
		task.DealID = *email.DealID
	}
	if email.CompanyID != nil {
		task.CompanyID = *email.CompanyID
	}
	if err := kafka.ProduceIngestTask(task); err != nil {
		log.Errorf("[IngestService] 发送摄取任务失败, file: %s, error: %v", stored.ID, err)
		_ = s.fileRepo.MarkFailed(stored.ID)
	}
	return stored, nil
}
