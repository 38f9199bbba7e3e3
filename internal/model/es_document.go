// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// EsDocument 代表存储在 Elasticsearch 中的文档结构。
// 摄取管道为每个处理完成的文件写入一条。
type EsDocument struct {
	FileID      string    `json:"file_id"`
	FileName    string    `json:"file_name"`
	DealID      string    `json:"deal_id,omitempty"`
	CompanyID   string    `json:"company_id,omitempty"`
	Kind        string    `json:"kind"`
	Summary     string    `json:"summary"`
	TextContent string    `json:"text_content"`
	UserID      uint      `json:"user_id"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResponseDTO 定义了返回给前端的搜索结果结构。
type SearchResponseDTO struct {
	FileID    string  `json:"fileId"`
	FileName  string  `json:"fileName"`
	DealID    string  `json:"dealId,omitempty"`
	CompanyID string  `json:"companyId,omitempty"`
	Kind      string  `json:"kind"`
	Summary   string  `json:"summary"`
	Score     float64 `json:"score"`
}
