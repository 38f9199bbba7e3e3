// Package pipeline 定义了文件摄取处理的核心流程。
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"angeldesk-go/internal/model"
	"angeldesk-go/internal/repository"
	"angeldesk-go/pkg/ai"
	"angeldesk-go/pkg/es"
	"angeldesk-go/pkg/log"
	"angeldesk-go/pkg/storage"
	"angeldesk-go/pkg/tasks"
	"angeldesk-go/pkg/tika"
)

// maxSummaryInput 限制送往 AI 摘要的文本长度（字符数），
// 超长的 deck 或报告只取开头部分。
const maxSummaryInput = 12000

// Processor 封装了文件摄取处理的所有依赖和逻辑。
// 每条 Kafka 任务对应一次 Process 调用：
// 下载 → Tika 提取文本 → AI 生成摘要 → 写入 ES 索引 → 更新文件状态。
type Processor struct {
	tikaClient *tika.Client
	aiClient   ai.Client
	fileRepo   repository.FileRepository
	dealRepo   repository.DealRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(tikaClient *tika.Client, aiClient ai.Client, fileRepo repository.FileRepository, dealRepo repository.DealRepository) *Processor {
	return &Processor{
		tikaClient: tikaClient,
		aiClient:   aiClient,
		fileRepo:   fileRepo,
		dealRepo:   dealRepo,
	}
}

// Process 是文件摄取处理的主函数。
func (p *Processor) Process(ctx context.Context, task tasks.IngestTask) error {
	log.Infof("[Processor] 开始处理文件, FileID: %s, FileName: %s, UserID: %d", task.FileID, task.FileName, task.UserID)

	err := p.process(ctx, task)
	if err != nil {
		if markErr := p.fileRepo.MarkFailed(task.FileID); markErr != nil {
			log.Errorf("[Processor] 标记文件失败状态出错, FileID: %s, Error: %v", task.FileID, markErr)
		}
	}
	return err
}

func (p *Processor) process(ctx context.Context, task tasks.IngestTask) error {
	// 1. 从对象存储下载文件
	log.Infof("[Processor] 步骤1: 下载文件, Area: %s, Object: %s", task.StorageArea, task.StoragePath)
	data, err := storage.FetchBytes(ctx, task.StorageArea, task.StoragePath)
	if err != nil {
		log.Errorf("[Processor] 下载文件失败, Object: %s, Error: %v", task.StoragePath, err)
		return fmt.Errorf("下载文件失败: %w", err)
	}
	if len(data) == 0 {
		log.Warnf("[Processor] 文件 '%s' 内容为空, 处理中止", task.FileName)
		return errors.New("文件内容为空")
	}

	// 2. 使用 Tika 提取文本
	log.Info("[Processor] 步骤2: 使用Tika提取文本内容")
	textContent, err := p.tikaClient.ExtractText(bytes.NewReader(data), task.FileName)
	if err != nil {
		log.Errorf("[Processor] 使用Tika提取文本失败, FileName: %s, Error: %v", task.FileName, err)
		return fmt.Errorf("使用 Tika 提取文本失败: %w", err)
	}
	if textContent == "" {
		log.Warnf("[Processor] Tika提取的文本内容为空, 处理中止, FileName: %s", task.FileName)
		return errors.New("提取的文本内容为空")
	}
	log.Infof("[Processor] 步骤2: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(textContent))

	// 3. AI 生成摘要。摘要失败不中止流程，文档仍可被全文检索到
	log.Info("[Processor] 步骤3: 生成AI摘要")
	summary, err := p.aiClient.Summarize(ctx, task.FileName, truncateRunes(textContent, maxSummaryInput))
	if err != nil {
		log.Warnf("[Processor] 生成摘要失败, FileName: %s, Error: %v", task.FileName, err)
		summary = ""
	}

	// 4. 写入 Elasticsearch 索引
	log.Info("[Processor] 步骤4: 写入搜索索引")
	doc := model.EsDocument{
		FileID:      task.FileID,
		FileName:    task.FileName,
		DealID:      task.DealID,
		CompanyID:   task.CompanyID,
		Kind:        task.Kind,
		Summary:     summary,
		TextContent: textContent,
		UserID:      task.UserID,
		IsPublic:    task.IsPublic,
		CreatedAt:   time.Now(),
	}
	if err := es.IndexDocument(ctx, doc); err != nil {
		log.Errorf("[Processor] 写入索引失败, FileID: %s, Error: %v", task.FileID, err)
		return fmt.Errorf("写入搜索索引失败: %w", err)
	}

	// 5. 更新文件状态，deck 的摘要同时回填到所属项目
	if err := p.fileRepo.MarkProcessed(task.FileID, summary); err != nil {
		log.Errorf("[Processor] 更新文件状态失败, FileID: %s, Error: %v", task.FileID, err)
		return fmt.Errorf("更新文件状态失败: %w", err)
	}
	if task.Kind == model.FileKindDeck && task.DealID != "" && summary != "" {
		p.backfillDealSummary(task.DealID, summary)
	}

	log.Infof("[Processor] 文件处理完成, FileID: %s", task.FileID)
	return nil
}

// backfillDealSummary 把 deck 的 AI 摘要写回项目卡片。
// 项目已有手工摘要时不覆盖。
func (p *Processor) backfillDealSummary(dealID, summary string) {
	deal, err := p.dealRepo.FindByID(dealID)
	if err != nil {
		log.Warnf("[Processor] 回填摘要时查找项目失败, DealID: %s, Error: %v", dealID, err)
		return
	}
	if deal.Summary != "" {
		return
	}
	deal.Summary = summary
	if err := p.dealRepo.Update(deal); err != nil {
		log.Warnf("[Processor] 回填项目摘要失败, DealID: %s, Error: %v", dealID, err)
	}
}

// truncateRunes 按字符数截断文本，避免把多字节字符切成半个。
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
