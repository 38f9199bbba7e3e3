package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"angeldesk-go/internal/model"
	"angeldesk-go/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeConversationRepo 是内存版的对话存储。
type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation
	messages      []model.Message
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[string]*model.Conversation)}
}

func (f *fakeConversationRepo) CreateConversation(conv *model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conversations[conv.ID] = conv
	return nil
}

func (f *fakeConversationRepo) FindConversationByID(id string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conv, nil
}

func (f *fakeConversationRepo) FindConversationsByUser(userID uint) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Conversation
	for _, c := range f.conversations {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) TouchConversation(string) error { return nil }

func (f *fakeConversationRepo) CreateMessage(msg *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeConversationRepo) FindMessagesByConversation(conversationID string) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) persistedByRole(conversationID, role string) []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// fakeHistoryRepo 是内存版的提示词历史。
type fakeHistoryRepo struct {
	mu      sync.Mutex
	history map[string][]model.ChatMessage
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{history: make(map[string][]model.ChatMessage)}
}

func (f *fakeHistoryRepo) GetHistory(_ context.Context, conversationID string) ([]model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChatMessage{}, f.history[conversationID]...), nil
}

func (f *fakeHistoryRepo) AppendExchange(_ context.Context, conversationID, question, answer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[conversationID] = append(f.history[conversationID],
		model.ChatMessage{Role: model.RoleUser, Content: question},
		model.ChatMessage{Role: model.RoleAssistant, Content: answer},
	)
	return nil
}

// fakeAI 返回固定回答并记录收到的提示词。
type fakeAI struct {
	mu       sync.Mutex
	answer   string
	received [][]ai.Message
}

func (f *fakeAI) Complete(_ context.Context, messages []ai.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, messages)
	return f.answer, nil
}

func (f *fakeAI) Summarize(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("not used")
}

// chatSink 记录收到的消息快照。
type chatSink struct {
	mu      sync.Mutex
	updates []model.Message
}

func (s *chatSink) OnStreamUpdate(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, msg)
}

func (s *chatSink) last() (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.updates) == 0 {
		return model.Message{}, false
	}
	return s.updates[len(s.updates)-1], true
}

func TestChatService_SendMessageFullCycle(t *testing.T) {
	convRepo := newFakeConversationRepo()
	histRepo := newFakeHistoryRepo()
	aiClient := &fakeAI{answer: "该项目的估值与同阶段 SaaS 公司持平。"}
	svc := NewChatService(convRepo, histRepo, aiClient, 2*time.Millisecond, 4)
	defer svc.Close()

	conv, err := svc.CreateConversation(7, nil, nil, "估值讨论")
	require.NoError(t, err)

	sink := &chatSink{}
	userMsg, assistantMsg, err := svc.SendMessage(context.Background(), conv.ID, 7, "这轮估值合理吗？", sink)
	require.NoError(t, err)

	assert.Equal(t, model.RoleUser, userMsg.Role)
	assert.Equal(t, "这轮估值合理吗？", userMsg.Content)
	assert.True(t, assistantMsg.IsStreaming)
	assert.Empty(t, assistantMsg.Content)

	// 用户消息立即持久化，助手消息此时还不在库里
	assert.Len(t, convRepo.persistedByRole(conv.ID, model.RoleUser), 1)
	assert.Empty(t, convRepo.persistedByRole(conv.ID, model.RoleAssistant))

	// 等待流式展示完成并触发持久化
	waitFor(t, time.Second, func() bool {
		return len(convRepo.persistedByRole(conv.ID, model.RoleAssistant)) == 1
	})

	persisted := convRepo.persistedByRole(conv.ID, model.RoleAssistant)[0]
	assert.Equal(t, aiClient.answer, persisted.Content)
	assert.NotEqual(t, assistantMsg.ID, persisted.ID) // 临时 ID 不落库

	last, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, aiClient.answer, last.Content)
	assert.False(t, last.IsStreaming)

	// 历史里追加了这一轮问答，供下一轮拼提示词
	waitFor(t, time.Second, func() bool {
		h, _ := histRepo.GetHistory(context.Background(), conv.ID)
		return len(h) == 2
	})
}

func TestChatService_PromptIncludesHistory(t *testing.T) {
	convRepo := newFakeConversationRepo()
	histRepo := newFakeHistoryRepo()
	aiClient := &fakeAI{answer: "ok"}
	svc := NewChatService(convRepo, histRepo, aiClient, 2*time.Millisecond, 4)
	defer svc.Close()
	conv, err := svc.CreateConversation(3, nil, nil, "")
	require.NoError(t, err)
	require.NoError(t, histRepo.AppendExchange(context.Background(), conv.ID, "上一轮问题", "上一轮回答"))

	_, _, err = svc.SendMessage(context.Background(), conv.ID, 3, "新问题", &chatSink{})
	require.NoError(t, err)

	require.Len(t, aiClient.received, 1)
	prompt := aiClient.received[0]
	// system + 两条历史 + 本轮提问
	require.Len(t, prompt, 4)
	assert.Equal(t, model.RoleSystem, prompt[0].Role)
	assert.Equal(t, "上一轮问题", prompt[1].Content)
	assert.Equal(t, "上一轮回答", prompt[2].Content)
	assert.Equal(t, "新问题", prompt[3].Content)
}

func TestChatService_ConversationsStreamIndependently(t *testing.T) {
	convRepo := newFakeConversationRepo()
	histRepo := newFakeHistoryRepo()
	aiClient := &fakeAI{answer: strings.Repeat("投后更新：现金流健康，增长符合预期。", 20)}
	svc := NewChatService(convRepo, histRepo, aiClient, 2*time.Millisecond, 8)
	defer svc.Close()

	convA, err := svc.CreateConversation(5, nil, nil, "A 轮跟进")
	require.NoError(t, err)
	convB, err := svc.CreateConversation(6, nil, nil, "尽调问题")
	require.NoError(t, err)

	sinkA, sinkB := &chatSink{}, &chatSink{}
	_, _, err = svc.SendMessage(context.Background(), convA.ID, 5, "最近的经营情况？", sinkA)
	require.NoError(t, err)
	// 第二个对话启动流式展示，第一个对话的流不能因此中断
	_, _, err = svc.SendMessage(context.Background(), convB.ID, 6, "核心团队背景？", sinkB)
	require.NoError(t, err)

	waitFor(t, 5*time.Second, func() bool {
		return len(convRepo.persistedByRole(convA.ID, model.RoleAssistant)) == 1 &&
			len(convRepo.persistedByRole(convB.ID, model.RoleAssistant)) == 1
	})

	assert.Equal(t, aiClient.answer, convRepo.persistedByRole(convA.ID, model.RoleAssistant)[0].Content)
	assert.Equal(t, aiClient.answer, convRepo.persistedByRole(convB.ID, model.RoleAssistant)[0].Content)

	lastA, ok := sinkA.last()
	require.True(t, ok)
	assert.Equal(t, aiClient.answer, lastA.Content)
	assert.False(t, lastA.IsStreaming)
	lastB, ok := sinkB.last()
	require.True(t, ok)
	assert.Equal(t, aiClient.answer, lastB.Content)
	assert.False(t, lastB.IsStreaming)
}

func TestChatService_StopScopedToConversation(t *testing.T) {
	convRepo := newFakeConversationRepo()
	histRepo := newFakeHistoryRepo()
	aiClient := &fakeAI{answer: strings.Repeat("条款清单逐条核对中。", 200)}
	svc := NewChatService(convRepo, histRepo, aiClient, 5*time.Millisecond, 4)
	defer svc.Close()

	convA, err := svc.CreateConversation(1, nil, nil, "")
	require.NoError(t, err)
	convB, err := svc.CreateConversation(2, nil, nil, "")
	require.NoError(t, err)

	sinkA, sinkB := &chatSink{}, &chatSink{}
	_, _, err = svc.SendMessage(context.Background(), convA.ID, 1, "估值问题", sinkA)
	require.NoError(t, err)
	_, _, err = svc.SendMessage(context.Background(), convB.ID, 2, "团队问题", sinkB)
	require.NoError(t, err)

	// 非属主停不掉别人的流
	assert.ErrorIs(t, svc.StopStreaming(convA.ID, 2), ErrConversationNotFound)

	// 属主停止自己的流：内容立即跳到全文
	require.NoError(t, svc.StopStreaming(convB.ID, 2))
	lastB, ok := sinkB.last()
	require.True(t, ok)
	assert.Equal(t, aiClient.answer, lastB.Content)
	assert.False(t, lastB.IsStreaming)

	// 没有活动流时重复停止是空操作
	require.NoError(t, svc.StopStreaming(convB.ID, 2))

	// 另一个对话不受影响，照常展示完成并落库
	waitFor(t, 10*time.Second, func() bool {
		return len(convRepo.persistedByRole(convA.ID, model.RoleAssistant)) == 1
	})
	assert.Equal(t, aiClient.answer, convRepo.persistedByRole(convA.ID, model.RoleAssistant)[0].Content)

	// 停止是展示层的快进，不触发完成回调，convB 的回答不落库
	assert.Empty(t, convRepo.persistedByRole(convB.ID, model.RoleAssistant))
}

func TestChatService_RejectsForeignConversation(t *testing.T) {
	convRepo := newFakeConversationRepo()
	svc := NewChatService(convRepo, newFakeHistoryRepo(), &fakeAI{answer: "x"}, time.Millisecond, 4)
	defer svc.Close()

	conv, err := svc.CreateConversation(1, nil, nil, "")
	require.NoError(t, err)

	_, _, err = svc.SendMessage(context.Background(), conv.ID, 2, "hi", &chatSink{})
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, _, err = svc.SendMessage(context.Background(), "missing", 1, "hi", &chatSink{})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
