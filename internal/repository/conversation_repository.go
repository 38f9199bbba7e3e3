// Package repository 提供了数据访问层的实现。
package repository

import (
	"angeldesk-go/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 定义了对话与消息的持久化操作接口。
type ConversationRepository interface {
	CreateConversation(conv *model.Conversation) error
	FindConversationByID(id string) (*model.Conversation, error)
	FindConversationsByUser(userID uint) ([]model.Conversation, error)
	TouchConversation(id string) error
	CreateMessage(msg *model.Message) error
	FindMessagesByConversation(conversationID string) ([]model.Message, error)
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) CreateConversation(conv *model.Conversation) error {
	return r.db.Create(conv).Error
}

func (r *conversationRepository) FindConversationByID(id string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindConversationsByUser(userID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	if err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&convs).Error; err != nil {
		return nil, err
	}
	return convs, nil
}

// TouchConversation 更新对话的最后活跃时间，供列表排序。
func (r *conversationRepository) TouchConversation(id string) error {
	return r.db.Model(&model.Conversation{}).Where("id = ?", id).
		Update("updated_at", gorm.Expr("NOW()")).Error
}

func (r *conversationRepository) CreateMessage(msg *model.Message) error {
	return r.db.Create(msg).Error
}

func (r *conversationRepository) FindMessagesByConversation(conversationID string) ([]model.Message, error) {
	var msgs []model.Message
	if err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}
