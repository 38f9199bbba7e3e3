package service

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"angeldesk-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink 收集每一次内容更新，供断言揭示序列。
type recordingSink struct {
	mu      sync.Mutex
	updates []model.Message
}

func (s *recordingSink) OnStreamUpdate(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, msg)
}

func (s *recordingSink) snapshot() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.updates))
	copy(out, s.updates)
	return out
}

// waitFor 轮询直到条件成立或超时。
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("等待条件超时")
}

func TestStreamPresenter_RevealSequence(t *testing.T) {
	p := NewStreamPresenter(2*time.Millisecond, 4)
	defer p.Close()
	sink := &recordingSink{}

	done := make(chan model.Message, 1)
	tmp, err := p.StartStream("conv-1", "Hello world", sink, func(final model.Message) {
		done <- final
	})
	require.NoError(t, err)
	assert.True(t, tmp.IsStreaming)
	assert.Empty(t, tmp.Content)
	assert.True(t, strings.HasPrefix(tmp.ID, "tmp-"))

	var final model.Message
	select {
	case final = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onComplete 未被调用")
	}

	assert.Equal(t, "Hello world", final.Content)
	assert.False(t, final.IsStreaming)
	assert.Equal(t, tmp.ID, final.ID)

	updates := sink.snapshot()
	contents := make([]string, len(updates))
	for i, u := range updates {
		contents[i] = u.Content
	}
	// 初始空内容插入 + 每个 tick 揭示 4 个字符，末块截断到全文长度
	assert.Equal(t, []string{"", "Hell", "Hello wo", "Hello world"}, contents)

	// onComplete 只触发一次
	select {
	case extra := <-done:
		t.Fatalf("onComplete 被重复调用: %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStreamPresenter_MonotonicPrefixes(t *testing.T) {
	const fullText = "天使投资人关注的核心指标包括增长率、毛利和留存。Growth, margin, retention."
	p := NewStreamPresenter(time.Millisecond, 3)
	defer p.Close()
	sink := &recordingSink{}

	done := make(chan struct{})
	_, err := p.StartStream("conv-1", fullText, sink, func(model.Message) { close(done) })
	require.NoError(t, err)
	<-done

	prev := -1
	for _, u := range sink.snapshot() {
		content := []rune(u.Content)
		assert.True(t, strings.HasPrefix(fullText, u.Content), "每个状态都必须是全文前缀: %q", u.Content)
		assert.GreaterOrEqual(t, len(content), prev, "内容长度不允许回退")
		prev = len(content)
	}
	last := sink.snapshot()[len(sink.snapshot())-1]
	assert.Equal(t, fullText, last.Content)
}

func TestStreamPresenter_SecondStartCancelsFirst(t *testing.T) {
	p := NewStreamPresenter(2*time.Millisecond, 1)
	defer p.Close()
	sink := &recordingSink{}

	var firstCompleted atomic.Bool
	first, err := p.StartStream("conv-1", strings.Repeat("a", 1000), sink, func(model.Message) {
		firstCompleted.Store(true)
	})
	require.NoError(t, err)

	// 等第一个流至少揭示了一点内容再启动第二个
	waitFor(t, time.Second, func() bool {
		for _, u := range sink.snapshot() {
			if u.ID == first.ID && u.Content != "" {
				return true
			}
		}
		return false
	})

	done := make(chan struct{})
	second, err := p.StartStream("conv-1", "short", sink, func(model.Message) { close(done) })
	require.NoError(t, err)
	<-done

	// 第二个流完成后留出余量，确认旧流不再产生更新
	time.Sleep(20 * time.Millisecond)
	var firstFinal string
	for _, u := range sink.snapshot() {
		if u.ID == first.ID {
			firstFinal = u.Content
		}
	}
	assert.NotEqual(t, strings.Repeat("a", 1000), firstFinal, "被取消的流不应继续揭示到结尾")
	assert.False(t, firstCompleted.Load(), "被取消的流不应触发 onComplete")
	assert.False(t, p.Active())

	var secondFinal model.Message
	for _, u := range sink.snapshot() {
		if u.ID == second.ID {
			secondFinal = u
		}
	}
	assert.Equal(t, "short", secondFinal.Content)
}

func TestStreamPresenter_StopJumpsToFullText(t *testing.T) {
	p := NewStreamPresenter(2*time.Millisecond, 2)
	defer p.Close()
	sink := &recordingSink{}

	fullText := strings.Repeat("the round is oversubscribed. ", 20)
	var completed atomic.Bool
	tmp, err := p.StartStream("conv-1", fullText, sink, func(model.Message) { completed.Store(true) })
	require.NoError(t, err)

	waitFor(t, time.Second, func() bool {
		for _, u := range sink.snapshot() {
			if u.Content != "" && u.Content != fullText {
				return true
			}
		}
		return false
	})

	p.StopStream()

	updates := sink.snapshot()
	last := updates[len(updates)-1]
	assert.Equal(t, fullText, last.Content, "停止后屏幕上必须是完整文本而非半截")
	assert.False(t, last.IsStreaming)
	assert.Equal(t, tmp.ID, last.ID)
	assert.False(t, completed.Load(), "手动停止不触发 onComplete")
	assert.False(t, p.Active())

	// 幂等：重复停止不产生新的更新
	before := len(sink.snapshot())
	p.StopStream()
	assert.Equal(t, before, len(sink.snapshot()))
}

func TestStreamPresenter_StopWhenIdleIsNoop(t *testing.T) {
	p := NewStreamPresenter(time.Millisecond, 4)
	p.StopStream()
	p.StopStream()
	assert.False(t, p.Active())
}

func TestStreamPresenter_RejectsEmptyText(t *testing.T) {
	p := NewStreamPresenter(time.Millisecond, 4)
	_, err := p.StartStream("conv-1", "", nil, nil)
	assert.ErrorIs(t, err, ErrEmptyStreamText)
}
