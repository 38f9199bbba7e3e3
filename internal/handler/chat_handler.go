// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"angeldesk-go/internal/model"
	"angeldesk-go/internal/service"
	"angeldesk-go/pkg/log"
	"angeldesk-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理 WebSocket 聊天连接。
// 每条助手消息先由 AI webhook 一次性生成完整内容，
// 再经 StreamPresenter 按固定节奏逐步下发到连接上。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	jwtManager  *token.JWTManager
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, jwtManager *token.JWTManager) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// inboundFrame 是客户端发来的 WebSocket 帧。
type inboundFrame struct {
	Type           string `json:"type"` // message | stop
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

// wsSink 把流式快照序列化后写到 WebSocket 连接上。
// gorilla 的连接不允许并发写，所有出站帧都经过同一把锁。
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// OnStreamUpdate 满足 service.StreamSink 接口。
func (s *wsSink) OnStreamUpdate(msg model.Message) {
	s.writeJSON(gin.H{"type": "update", "message": msg})
}

func (s *wsSink) writeJSON(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 失败: %v", err)
	}
}

// Handle 处理一个传入的 WebSocket 连接。
func (h *ChatHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}
	user, err := h.userService.GetProfile(claims.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", claims.Username)
	sink := &wsSink{conn: conn}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			sink.writeJSON(gin.H{"type": "error", "message": "无法解析的消息格式"})
			continue
		}

		switch frame.Type {
		case "stop":
			// 中止指定对话的展示：消息立即跳到完整内容。
			// 归属校验在 service 层做，别人的流停不掉
			if err := h.chatService.StopStreaming(frame.ConversationID, user.ID); err != nil {
				sink.writeJSON(gin.H{"type": "error", "message": err.Error()})
				continue
			}
			sink.writeJSON(gin.H{
				"type":           "stopped",
				"conversationId": frame.ConversationID,
				"timestamp":      time.Now().UnixMilli(),
			})

		case "message":
			userMsg, assistantMsg, err := h.chatService.SendMessage(c.Request.Context(), frame.ConversationID, user.ID, frame.Content, sink)
			if err != nil {
				log.Errorf("处理聊天消息失败: %v", err)
				sink.writeJSON(gin.H{"type": "error", "message": err.Error()})
				continue
			}
			// 先回执用户消息和临时助手消息的 ID，后续 update 帧持续刷新内容
			sink.writeJSON(gin.H{
				"type":        "accepted",
				"userMessage": userMsg,
				"assistantId": assistantMsg.ID,
			})

		default:
			sink.writeJSON(gin.H{"type": "error", "message": "未知的消息类型"})
		}
	}
}
