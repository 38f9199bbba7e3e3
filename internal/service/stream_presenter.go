// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"sync"
	"time"

	"angeldesk-go/internal/model"

	"github.com/google/uuid"
)

// ErrEmptyStreamText 表示试图对空文本启动流式展示。
var ErrEmptyStreamText = errors.New("流式文本不能为空")

// StreamSink 接收流式消息的每一次内容更新。
// 传入的是消息快照，实现方可以安全地持有或转发它。
// 回调内不得再调用 presenter 自身的方法。
type StreamSink interface {
	OnStreamUpdate(msg model.Message)
}

// StreamPresenter 把一段已经完整拿到的回答文本按固定节奏逐块揭示出去，
// 模拟逐 token 生成的效果。推理已在外部完成，这里只负责展示节奏：
//   - 同一 presenter 实例同时最多只有一个活动流；
//   - 每个 tick 揭示接下来的 chunkSize 个字符（按 rune 计，保证前缀合法）；
//   - 内容永远是全文的前缀切片，不做增量拼接，重复计算同一进度得到同一字符串；
//   - 完整揭示后 onComplete 恰好被调用一次，由调用方负责持久化；
//   - StopStream 是展示层的快进，不触发 onComplete。
type StreamPresenter struct {
	interval  time.Duration
	chunkSize int

	mu     sync.Mutex
	active *streamState
}

type streamState struct {
	msg        model.Message
	full       []rune
	pos        int
	stop       chan struct{}
	sink       StreamSink
	onComplete func(final model.Message)
}

// NewStreamPresenter 创建一个新的 StreamPresenter。
// interval 是揭示节奏，chunkSize 是每个 tick 追加的字符数。
func NewStreamPresenter(interval time.Duration, chunkSize int) *StreamPresenter {
	if interval <= 0 {
		interval = 40 * time.Millisecond
	}
	if chunkSize <= 0 {
		chunkSize = 4
	}
	return &StreamPresenter{interval: interval, chunkSize: chunkSize}
}

// StartStream 为指定对话启动一个流式消息。
// 它立即以空内容向 sink 插入一条 IsStreaming=true 的临时消息，
// 之后在定时器驱动下逐块增长内容。若已有活动流，先取消旧流（旧消息不再被改动）。
// 返回临时消息的快照。onComplete 在内容完整揭示后被调用恰好一次，
// 入参是最终消息；持久化以及用持久记录替换临时消息由调用方完成。
func (p *StreamPresenter) StartStream(conversationID, fullText string, sink StreamSink, onComplete func(final model.Message)) (model.Message, error) {
	if fullText == "" {
		return model.Message{}, ErrEmptyStreamText
	}

	st := &streamState{
		msg: model.Message{
			ID:             "tmp-" + uuid.NewString(),
			ConversationID: conversationID,
			Role:           model.RoleAssistant,
			Content:        "",
			CreatedAt:      time.Now(),
			IsStreaming:    true,
		},
		full:       []rune(fullText),
		stop:       make(chan struct{}),
		sink:       sink,
		onComplete: onComplete,
	}

	p.mu.Lock()
	// 同一 presenter 不允许两个定时器并存：启动新流前先取消旧流
	if p.active != nil {
		close(p.active.stop)
	}
	p.active = st
	snapshot := st.msg
	if sink != nil {
		sink.OnStreamUpdate(snapshot)
	}
	p.mu.Unlock()

	go p.run(st)
	return snapshot, nil
}

// run 在独立 goroutine 中驱动定时器，直到流完成或被取消。
func (p *StreamPresenter) run(st *streamState) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-st.stop:
			return
		case <-ticker.C:
			if p.step(st) {
				return
			}
		}
	}
}

// step 执行一个 tick：揭示下一块内容并通知 sink。返回 true 表示流已结束。
func (p *StreamPresenter) step(st *streamState) bool {
	p.mu.Lock()
	if p.active != st {
		// 已被 StopStream 快进或被新流取代，不再改动这条消息
		p.mu.Unlock()
		return true
	}

	next := st.pos + p.chunkSize
	if next > len(st.full) {
		next = len(st.full)
	}
	st.pos = next
	st.msg.Content = string(st.full[:next])

	finished := next == len(st.full)
	if finished {
		st.msg.IsStreaming = false
		p.active = nil
	}
	snapshot := st.msg
	// sink 在锁内调用，保证更新按内容增长的顺序送达，
	// 不会与 StopStream 的最终更新交错
	if st.sink != nil {
		st.sink.OnStreamUpdate(snapshot)
	}
	p.mu.Unlock()

	if finished && st.onComplete != nil {
		st.onComplete(snapshot)
	}
	return finished
}

// StopStream 立即终止当前活动流：取消定时器，把内容一次性跳到全文，
// 屏幕上不留下半截文本。不调用 onComplete —— 停止是展示层的快捷方式，
// 不是完成信号；需要持久化的调用方自行处理。
// 没有活动流时调用是空操作，重复调用与调用一次效果相同。
func (p *StreamPresenter) StopStream() {
	p.mu.Lock()
	st := p.active
	if st == nil {
		p.mu.Unlock()
		return
	}
	p.active = nil
	close(st.stop)

	st.pos = len(st.full)
	st.msg.Content = string(st.full)
	st.msg.IsStreaming = false
	if st.sink != nil {
		st.sink.OnStreamUpdate(st.msg)
	}
	p.mu.Unlock()
}

// Close 在持有方销毁时取消任何活动流，避免定时器回调继续改动已无人消费的状态。
func (p *StreamPresenter) Close() {
	p.mu.Lock()
	if p.active != nil {
		close(p.active.stop)
		p.active = nil
	}
	p.mu.Unlock()
}

// Active 报告当前是否有流正在展示。
func (p *StreamPresenter) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}
