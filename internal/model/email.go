// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// EmailMessage 定义了 email_messages 表的 ORM 模型。
// 由外部邮件转发 webhook 推送进来，正文与附件各自落到 reports 存储区。
type EmailMessage struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"userId"`
	CompanyID  *string   `gorm:"type:varchar(36);index" json:"companyId"`
	DealID     *string   `gorm:"type:varchar(36);index" json:"dealId"`
	FromAddr   string    `gorm:"type:varchar(255);not null" json:"from"`
	Subject    string    `gorm:"type:varchar(512)" json:"subject"`
	BodyFileID string    `gorm:"type:varchar(36)" json:"bodyFileId"` // 正文存储为 StoredFile
	ReceivedAt time.Time `json:"receivedAt"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (EmailMessage) TableName() string {
	return "email_messages"
}
