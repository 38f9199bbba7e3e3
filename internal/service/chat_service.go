// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"angeldesk-go/internal/config"
	"angeldesk-go/internal/model"
	"angeldesk-go/internal/repository"
	"angeldesk-go/pkg/ai"
	"angeldesk-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrConversationNotFound = errors.New("对话不存在")

// ChatService 定义了对话相关的业务操作。
// 助手的回答通过外部 AI webhook 一次性取得完整文本，
// 再交给 StreamPresenter 做逐步展示，展示完成后才落库。
type ChatService interface {
	CreateConversation(userID uint, dealID, companyID *string, title string) (*model.Conversation, error)
	ListConversations(userID uint) ([]model.Conversation, error)
	GetMessages(conversationID string, userID uint) ([]model.Message, error)
	// SendMessage 保存用户消息、取得助手完整回答并启动流式展示。
	// 返回已持久化的用户消息和流式展示中的临时助手消息。
	SendMessage(ctx context.Context, conversationID string, userID uint, text string, sink StreamSink) (userMsg, assistantMsg model.Message, err error)
	// StopStreaming 中止指定对话的展示，消息立即跳到完整内容。
	// 只有对话属主能停止自己的流。
	StopStreaming(conversationID string, userID uint) error
	// Close 取消所有对话的活动流，服务停机时调用。
	Close()
}

type chatService struct {
	conversationRepo repository.ConversationRepository
	historyRepo      repository.HistoryRepository
	aiClient         ai.Client
	streamInterval   time.Duration
	streamChunk      int

	// 每个对话一个 presenter：各对话的流互不干扰，
	// 只有同一对话内的新消息才会取代旧流
	mu         sync.Mutex
	presenters map[string]*StreamPresenter
}

// NewChatService 创建一个新的 ChatService 实例。
// streamInterval 和 streamChunk 是每个对话流式展示的节奏参数。
func NewChatService(conversationRepo repository.ConversationRepository, historyRepo repository.HistoryRepository, aiClient ai.Client, streamInterval time.Duration, streamChunk int) ChatService {
	return &chatService{
		conversationRepo: conversationRepo,
		historyRepo:      historyRepo,
		aiClient:         aiClient,
		streamInterval:   streamInterval,
		streamChunk:      streamChunk,
		presenters:       make(map[string]*StreamPresenter),
	}
}

// CreateConversation 创建一个限定在 deal 或组合公司范围内的新对话。
func (s *chatService) CreateConversation(userID uint, dealID, companyID *string, title string) (*model.Conversation, error) {
	if title == "" {
		title = "新对话"
	}
	conv := &model.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		DealID:    dealID,
		CompanyID: companyID,
		Title:     title,
	}
	if err := s.conversationRepo.CreateConversation(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations 列出用户的所有对话。
func (s *chatService) ListConversations(userID uint) ([]model.Conversation, error) {
	return s.conversationRepo.FindConversationsByUser(userID)
}

// GetMessages 获取对话的全部已持久化消息。
func (s *chatService) GetMessages(conversationID string, userID uint) ([]model.Message, error) {
	if _, err := s.ownedConversation(conversationID, userID); err != nil {
		return nil, err
	}
	return s.conversationRepo.FindMessagesByConversation(conversationID)
}

// SendMessage 执行一轮完整的问答：
//  1. 用户消息立即落库，前端可即时显示
//  2. 用 Redis 中的最近历史拼接提示词，调用 AI webhook 取完整回答
//  3. 完整回答交给 StreamPresenter 逐步展示
//  4. 展示完成的回调里才持久化助手消息并更新历史
func (s *chatService) SendMessage(ctx context.Context, conversationID string, userID uint, text string, sink StreamSink) (model.Message, model.Message, error) {
	var none model.Message
	if strings.TrimSpace(text) == "" {
		return none, none, errors.New("消息内容不能为空")
	}
	if _, err := s.ownedConversation(conversationID, userID); err != nil {
		return none, none, err
	}

	userMsg := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           model.RoleUser,
		Content:        text,
	}
	if err := s.conversationRepo.CreateMessage(&userMsg); err != nil {
		return none, none, err
	}

	messages, err := s.composeMessages(ctx, conversationID, text)
	if err != nil {
		log.Errorf("[ChatService] 加载对话历史失败, conversation: %s, error: %v", conversationID, err)
		// 历史不可用时退化为单轮问答
		messages = s.fallbackMessages(text)
	}

	fullAnswer, err := s.aiClient.Complete(ctx, messages)
	if err != nil {
		return none, none, fmt.Errorf("获取助手回答失败: %w", err)
	}

	presenter := s.presenterFor(conversationID)
	assistantMsg, err := presenter.StartStream(conversationID, fullAnswer, sink, func(final model.Message) {
		s.persistAnswer(conversationID, text, final)
		s.releasePresenter(conversationID, presenter)
	})
	if err != nil {
		return none, none, err
	}
	return userMsg, assistantMsg, nil
}

// StopStreaming 中止指定对话的流式展示。校验归属后才停止，
// 其他用户的流不受影响；没有活动流时是空操作。
func (s *chatService) StopStreaming(conversationID string, userID uint) error {
	if _, err := s.ownedConversation(conversationID, userID); err != nil {
		return err
	}
	s.mu.Lock()
	presenter := s.presenters[conversationID]
	s.mu.Unlock()
	if presenter == nil {
		return nil
	}
	presenter.StopStream()
	s.releasePresenter(conversationID, presenter)
	return nil
}

// Close 取消所有对话的活动流。
func (s *chatService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, presenter := range s.presenters {
		presenter.Close()
		delete(s.presenters, id)
	}
}

// presenterFor 返回对话专属的 presenter，需要时懒创建。
func (s *chatService) presenterFor(conversationID string) *StreamPresenter {
	s.mu.Lock()
	defer s.mu.Unlock()
	presenter, ok := s.presenters[conversationID]
	if !ok {
		presenter = NewStreamPresenter(s.streamInterval, s.streamChunk)
		s.presenters[conversationID] = presenter
	}
	return presenter
}

// releasePresenter 在流结束后回收闲置的 presenter，
// map 不随历史对话数无限增长。对话上已经换了新 presenter
// 或又启动了新流时不回收。
func (s *chatService) releasePresenter(conversationID string, presenter *StreamPresenter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.presenters[conversationID] == presenter && !presenter.Active() {
		delete(s.presenters, conversationID)
	}
}

// persistAnswer 在流式展示完整结束后执行：助手消息落库、
// 追加 Redis 历史、刷新对话的活跃时间。使用后台上下文，
// 展示期间即使客户端断开也要保住已生成的回答。
func (s *chatService) persistAnswer(conversationID, question string, final model.Message) {
	persisted := model.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           model.RoleAssistant,
		Content:        final.Content,
	}
	if err := s.conversationRepo.CreateMessage(&persisted); err != nil {
		log.Errorf("[ChatService] 持久化助手消息失败, conversation: %s, error: %v", conversationID, err)
		return
	}
	ctx := context.Background()
	if err := s.historyRepo.AppendExchange(ctx, conversationID, question, final.Content); err != nil {
		log.Errorf("[ChatService] 更新对话历史失败, conversation: %s, error: %v", conversationID, err)
	}
	if err := s.conversationRepo.TouchConversation(conversationID); err != nil {
		log.Errorf("[ChatService] 刷新对话时间失败, conversation: %s, error: %v", conversationID, err)
	}
}

// composeMessages 按 system + 最近历史 + 本轮提问的顺序拼接提示词。
func (s *chatService) composeMessages(ctx context.Context, conversationID, userInput string) ([]ai.Message, error) {
	history, err := s.historyRepo.GetHistory(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: model.RoleSystem, Content: config.Conf.AI.SystemPrompt})
	for _, h := range history {
		msgs = append(msgs, ai.Message{Role: h.Role, Content: h.Content})
	}
	msgs = append(msgs, ai.Message{Role: model.RoleUser, Content: userInput})
	return msgs, nil
}

func (s *chatService) fallbackMessages(userInput string) []ai.Message {
	return []ai.Message{
		{Role: model.RoleSystem, Content: config.Conf.AI.SystemPrompt},
		{Role: model.RoleUser, Content: userInput},
	}
}

// ownedConversation 取出对话并校验归属。
func (s *chatService) ownedConversation(conversationID string, userID uint) (*model.Conversation, error) {
	conv, err := s.conversationRepo.FindConversationByID(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}
