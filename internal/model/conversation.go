// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息角色。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation 代表一个与 AI 助手的对话，限定在某个 deal 或组合公司范围内。
type Conversation struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	DealID    *string   `gorm:"type:varchar(36);index" json:"dealId"`
	CompanyID *string   `gorm:"type:varchar(36);index" json:"companyId"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// Message 代表持久化在 MySQL 中的单条对话消息。
// 正在流式展示的消息先以临时 ID 存在于内存中，完整展示后才落库，
// 此时临时消息被携带相同内容的持久记录原地替换。
type Message struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ConversationID string    `gorm:"type:varchar(36);index;not null" json:"conversationId"`
	Role           string    `gorm:"type:varchar(16);not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`

	// IsStreaming 仅在消息内容仍在增长时为 true，从不持久化。
	IsStreaming bool `gorm:"-" json:"isStreaming,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// ChatMessage 代表存储在 Redis 中、供提示词拼接用的单条历史消息。
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
