// Package ai 提供了与外部 AI 管道 webhook 交互的客户端。
// 推理完全在外部服务完成：聊天补全返回完整回答文本，摘要接口返回文档摘要。
// 本应用拿到完整文本后再做模拟流式展示。
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"angeldesk-go/internal/config"
	"angeldesk-go/pkg/log"
)

// ErrNoReplyField 表示 webhook 响应中找不到任何可用的回答字段。
var ErrNoReplyField = errors.New("webhook 响应中没有可用的回答字段")

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client defines the interface for the AI pipeline webhook client.
type Client interface {
	// Complete 以 role-based 消息调用聊天 webhook，返回完整的回答文本。
	Complete(ctx context.Context, messages []Message) (string, error)
	// Summarize 请求对一段文档文本生成摘要。
	Summarize(ctx context.Context, fileName, text string) (string, error)
}

type webhookClient struct {
	cfg    config.AIConfig
	client *http.Client
}

// NewClient creates a new AI webhook client.
func NewClient(cfg config.AIConfig) Client {
	return &webhookClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

type summaryRequest struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

// Complete 调用聊天 webhook 并解析出回答文本。
func (c *webhookClient) Complete(ctx context.Context, messages []Message) (string, error) {
	raw, err := c.post(ctx, c.cfg.ChatPath, chatRequest{Messages: messages})
	if err != nil {
		return "", err
	}
	reply, err := extractReply(raw)
	if err != nil {
		return "", fmt.Errorf("解析聊天 webhook 响应失败: %w", err)
	}
	return reply, nil
}

// Summarize 调用摘要 webhook 并解析出摘要文本。
func (c *webhookClient) Summarize(ctx context.Context, fileName, text string) (string, error) {
	raw, err := c.post(ctx, c.cfg.SummaryPath, summaryRequest{FileName: fileName, Text: text})
	if err != nil {
		return "", err
	}
	reply, err := extractReply(raw)
	if err != nil {
		return "", fmt.Errorf("解析摘要 webhook 响应失败: %w", err)
	}
	return reply, nil
}

func (c *webhookClient) post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal webhook request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+path, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[AIClient] 调用 webhook 失败, path: %s, error: %v", path, err)
		return nil, fmt.Errorf("failed to call ai webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[AIClient] webhook 返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("ai webhook returned non-200 status: %s", resp.Status)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode webhook response: %w", err)
	}
	return raw, nil
}

// replyObject 覆盖各版本 webhook 返回的对象形态，字段名不统一。
type replyObject struct {
	Reply   string `json:"reply"`
	Answer  string `json:"answer"`
	Output  string `json:"output"`
	Summary string `json:"summary"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// extractReply 按固定顺序从响应中解析回答文本。
// webhook 的不同版本返回过对象和数组两种顶层形态，字段名也不一致，
// 这里显式枚举所有已知形态，都取不到时返回 ErrNoReplyField。
func extractReply(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", ErrNoReplyField
	}

	// 顶层数组：取第一个元素再按对象解析
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "", fmt.Errorf("无法解析响应数组: %w", err)
		}
		if len(items) == 0 {
			return "", ErrNoReplyField
		}
		return extractReply(items[0])
	}

	var obj replyObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return "", fmt.Errorf("无法解析响应对象: %w", err)
	}

	switch {
	case obj.Reply != "":
		return obj.Reply, nil
	case obj.Answer != "":
		return obj.Answer, nil
	case obj.Output != "":
		return obj.Output, nil
	case obj.Summary != "":
		return obj.Summary, nil
	case len(obj.Choices) > 0 && obj.Choices[0].Message.Content != "":
		return obj.Choices[0].Message.Content, nil
	}
	return "", ErrNoReplyField
}
