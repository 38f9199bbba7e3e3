// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// StoredFile 的处理状态。
const (
	FileStatusUploaded  = 0 // 已落库，等待摄取管道处理
	FileStatusProcessed = 1 // 已提取文本、生成摘要并写入索引
	FileStatusFailed    = 2 // 管道处理失败
)

// 文件的业务类别。
const (
	FileKindDeck   = "deck"   // 项目方发来的 pitch deck
	FileKindReport = "report" // 组合公司的定期报告
	FileKindEmail  = "email"  // 邮件正文或附件
)

// StoredFile 定义了 stored_files 表的 ORM 模型。
// 它记录了每个落到对象存储中的文件的元数据、归属和处理状态。
type StoredFile struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"userId"`
	DealID      *string    `gorm:"type:varchar(36);index" json:"dealId"`
	CompanyID   *string    `gorm:"type:varchar(36);index" json:"companyId"`
	Kind        string     `gorm:"type:varchar(16);not null" json:"kind"`
	FileName    string     `gorm:"type:varchar(255);not null" json:"fileName"`
	FileMD5     string     `gorm:"type:varchar(32);index" json:"fileMd5"`
	MimeType    string     `gorm:"type:varchar(128)" json:"mimeType"`
	StorageArea string     `gorm:"type:varchar(32);not null" json:"storageArea"`
	StoragePath string     `gorm:"type:varchar(255);not null" json:"storagePath"`
	Size        int64      `gorm:"not null" json:"size"`
	Summary     string     `gorm:"type:text" json:"summary"`
	Status      int        `gorm:"type:tinyint;not null;default:0" json:"status"`
	IsPublic    bool       `gorm:"not null;default:false" json:"isPublic"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	ProcessedAt *time.Time `gorm:"default:null" json:"processedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (StoredFile) TableName() string {
	return "stored_files"
}
