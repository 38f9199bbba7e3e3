// Package service 包含了应用的业务逻辑层。
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"angeldesk-go/internal/model"
	"angeldesk-go/pkg/log"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xuri/excelize/v2"
)

// 预览失败的分类，handler 层据此给出对应的用户提示与恢复动作。
var (
	ErrNoFileAttached    = errors.New("该记录没有附加文件")
	ErrFetchFailed       = errors.New("所有存储区都未能取到文件")
	ErrDecodeFailed      = errors.New("文件内容无法解析")
	ErrUnsupportedFormat = errors.New("不支持预览的文件格式")
)

// AreaFetcher 按存储区获取文件字节、探测对象存在性或生成下载链接。
type AreaFetcher interface {
	FetchBytes(ctx context.Context, area, objectName string) ([]byte, error)
	// Stat 只检查对象是否存在，不下载内容。
	Stat(ctx context.Context, area, objectName string) error
	PresignedURL(area, objectName string, expiry time.Duration) (string, error)
}

// WordConverter 把 Word 文档字节转换为 HTML（由 Tika 实现）。
type WordConverter interface {
	ExtractHTML(r io.Reader, fileName string) (string, error)
}

// PreviewGrid 是表格类文件的预览结构：首行作为表头，数据行封顶截断。
type PreviewGrid struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"` // 截断前的数据行总数
	Truncated bool       `json:"truncated"`
}

// Preview 是一次预览会话的产物。其中的 ObjectURL 等临时资源归会话独占，
// 预览关闭或切换文档时必须调用 Close 释放。
type Preview struct {
	FileName    string         `json:"fileName"`
	FileType    model.FileType `json:"fileType"`
	Text        string         `json:"text,omitempty"`
	HTML        string         `json:"html,omitempty"`
	Grid        *PreviewGrid   `json:"grid,omitempty"`
	ObjectURL   string         `json:"objectUrl,omitempty"`
	DownloadURL string         `json:"downloadUrl,omitempty"`
	Zoom        ZoomState      `json:"zoom"`

	registry *ObjectURLRegistry
	once     sync.Once
}

// Close 释放预览持有的临时资源。可以安全地重复调用，撤销只会发生一次。
func (p *Preview) Close() {
	p.once.Do(func() {
		if p.registry != nil && p.ObjectURL != "" {
			p.registry.Revoke(p.ObjectURL)
		}
	})
}

// PreviewService 定义了文档预览的业务操作。
type PreviewService interface {
	// ResolvePreview 把一个 DocumentRef 解析为可渲染的预览。
	ResolvePreview(ctx context.Context, ref model.DocumentRef) (*Preview, error)
	// RawDownloadURL 绕过预览，直接生成原始文件的临时下载链接。
	RawDownloadURL(ctx context.Context, ref model.DocumentRef) (string, error)
}

type previewService struct {
	fetcher   AreaFetcher
	word      WordConverter
	sanitizer *bluemonday.Policy
	registry  *ObjectURLRegistry
	areas     []string // 按顺序尝试的存储区
	maxRows   int
}

// NewPreviewService 创建一个新的 PreviewService 实例。
// areas 是字节获取时按顺序尝试的存储区名称列表。
func NewPreviewService(fetcher AreaFetcher, word WordConverter, registry *ObjectURLRegistry, areas []string, maxRows int) PreviewService {
	return &previewService{
		fetcher:   fetcher,
		word:      word,
		sanitizer: bluemonday.UGCPolicy(),
		registry:  registry,
		areas:     areas,
		maxRows:   maxRows,
	}
}

// ResolvePreview 实现预览解析的主流程：
// 类型判定 → 字节获取（多存储区顺序回退）→ 按格式转换。
func (s *previewService) ResolvePreview(ctx context.Context, ref model.DocumentRef) (*Preview, error) {
	// 预提取文本直接渲染，完全不走字节获取
	if ref.InlineText != "" {
		return &Preview{
			FileName: ref.Name,
			FileType: model.FileTypeText,
			Text:     ref.InlineText,
			Zoom:     NewZoomState(),
		}, nil
	}

	if ref.StoragePath == "" {
		return nil, ErrNoFileAttached
	}

	fileType := DetectFileType(ref)
	if fileType == model.FileTypeUnknown {
		return nil, ErrUnsupportedFormat
	}

	data, area, err := s.fetchWithFallback(ctx, ref.StoragePath)
	if err != nil {
		return nil, err
	}

	preview := &Preview{
		FileName: ref.Name,
		FileType: fileType,
		Zoom:     NewZoomState(),
		registry: s.registry,
	}

	// 下载兜底链接对所有格式都提供
	if url, err := s.fetcher.PresignedURL(area, ref.StoragePath, time.Hour); err == nil {
		preview.DownloadURL = url
	} else {
		log.Warnf("[PreviewService] 生成下载链接失败: %v", err)
	}

	switch fileType {
	case model.FileTypeText:
		preview.Text = string(data)

	case model.FileTypeWord:
		html, err := s.word.ExtractHTML(bytes.NewReader(data), ref.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: word 转换失败: %v", ErrDecodeFailed, err)
		}
		preview.HTML = s.sanitizer.Sanitize(html)

	case model.FileTypeExcel:
		grid, err := s.parseGrid(ref, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		preview.Grid = grid

	case model.FileTypePDF:
		preview.ObjectURL = s.registry.Create(data, "application/pdf")

	case model.FileTypeImage:
		preview.ObjectURL = s.registry.Create(data, imageContentType(ref))
	}

	return preview, nil
}

// fetchWithFallback 按配置顺序逐个存储区尝试下载，第一个成功即返回。
// 各存储区严格串行：并行预取只会为常见的首区命中浪费请求。
func (s *previewService) fetchWithFallback(ctx context.Context, objectName string) ([]byte, string, error) {
	var attemptErrs []string
	for _, area := range s.areas {
		// 消费方已经离开（切换文档、关闭页面）时中断整条链，
		// 迟到的结果直接丢弃而不是套用到当前视图上
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		data, err := s.fetcher.FetchBytes(ctx, area, objectName)
		if err == nil {
			return data, area, nil
		}
		log.Warnf("[PreviewService] 存储区 '%s' 获取 '%s' 失败: %v", area, objectName, err)
		attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", area, err))
	}
	return nil, "", fmt.Errorf("%w: %s", ErrFetchFailed, strings.Join(attemptErrs, "; "))
}

// RawDownloadURL 找到实际存有该对象的存储区并生成预签名下载链接。
// 只做存在性探测，不把对象内容拉回来。
func (s *previewService) RawDownloadURL(ctx context.Context, ref model.DocumentRef) (string, error) {
	if ref.StoragePath == "" {
		return "", ErrNoFileAttached
	}
	area, err := s.locateArea(ctx, ref.StoragePath)
	if err != nil {
		return "", err
	}
	return s.fetcher.PresignedURL(area, ref.StoragePath, time.Hour)
}

// locateArea 按回退顺序找到实际存有对象的存储区。
func (s *previewService) locateArea(ctx context.Context, objectName string) (string, error) {
	var attemptErrs []string
	for _, area := range s.areas {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := s.fetcher.Stat(ctx, area, objectName)
		if err == nil {
			return area, nil
		}
		attemptErrs = append(attemptErrs, fmt.Sprintf("%s: %v", area, err))
	}
	return "", fmt.Errorf("%w: %s", ErrFetchFailed, strings.Join(attemptErrs, "; "))
}

// parseGrid 把表格类字节解析为预览网格。CSV 走分隔文本解析，
// XLSX 走工作簿解析且只取第一个工作表。数据行超过 maxRows 时截断并标记。
func (s *previewService) parseGrid(ref model.DocumentRef, data []byte) (*PreviewGrid, error) {
	if isCSV(ref) {
		return s.parseCSVGrid(data)
	}
	return s.parseWorkbookGrid(data)
}

func (s *previewService) parseCSVGrid(data []byte) (*PreviewGrid, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // 行宽不齐的 CSV 也照常预览
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv 解析失败: %v", err)
	}
	return s.buildGrid(rows), nil
}

func (s *previewService) parseWorkbookGrid(data []byte) (*PreviewGrid, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("工作簿打开失败: %v", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("工作簿没有工作表")
	}
	// 只预览第一个工作表
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %v", err)
	}
	return s.buildGrid(rows), nil
}

// buildGrid 把原始行拆成表头和封顶的数据行。
func (s *previewService) buildGrid(rows [][]string) *PreviewGrid {
	grid := &PreviewGrid{Headers: []string{}, Rows: [][]string{}}
	if len(rows) == 0 {
		return grid
	}
	grid.Headers = rows[0]
	dataRows := rows[1:]
	grid.TotalRows = len(dataRows)
	if len(dataRows) > s.maxRows {
		dataRows = dataRows[:s.maxRows]
		grid.Truncated = true
	}
	grid.Rows = dataRows
	return grid
}

// isCSV 判断表格文件应当按分隔文本而不是工作簿来解析。
func isCSV(ref model.DocumentRef) bool {
	if strings.EqualFold(filepath.Ext(ref.Name), ".csv") {
		return true
	}
	return strings.Contains(strings.ToLower(ref.MimeType), "csv")
}

// imageContentType 推断图片的内容类型，推断不出时退回声明值。
func imageContentType(ref model.DocumentRef) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(ref.Name))); ct != "" {
		return ct
	}
	if ref.MimeType != "" {
		return ref.MimeType
	}
	return "application/octet-stream"
}
