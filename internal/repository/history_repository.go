// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"angeldesk-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// HistoryRepository 定义了 Redis 中提示词历史的操作接口。
// 与 MySQL 中的完整消息记录不同，这里只保留拼提示词所需的最近几轮。
type HistoryRepository interface {
	GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	AppendExchange(ctx context.Context, conversationID, question, answer string) error
}

type redisHistoryRepository struct {
	redisClient *redis.Client
}

// NewHistoryRepository 创建一个新的 HistoryRepository 实例。
func NewHistoryRepository(redisClient *redis.Client) HistoryRepository {
	return &redisHistoryRepository{redisClient: redisClient}
}

// GetHistory 从 Redis 获取对话的提示词历史。
func (r *redisHistoryRepository) GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	key := fmt.Sprintf("conversation:%s:history", conversationID)
	jsonData, err := r.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil // 还没有历史
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	if err := json.Unmarshal([]byte(jsonData), &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendExchange 把一轮问答追加到历史，只保留最近 20 条。
func (r *redisHistoryRepository) AppendExchange(ctx context.Context, conversationID, question, answer string) error {
	messages, err := r.GetHistory(ctx, conversationID)
	if err != nil {
		return err
	}

	now := time.Now()
	messages = append(messages,
		model.ChatMessage{Role: model.RoleUser, Content: question, Timestamp: now},
		model.ChatMessage{Role: model.RoleAssistant, Content: answer, Timestamp: now},
	)
	if len(messages) > 20 {
		messages = messages[len(messages)-20:]
	}

	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}
	key := fmt.Sprintf("conversation:%s:history", conversationID)
	if err := r.redisClient.Set(ctx, key, jsonData, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}
