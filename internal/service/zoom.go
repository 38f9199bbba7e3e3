// Package service 包含了应用的业务逻辑层。
package service

// 缩放百分比的边界与步长。文本预览把它用作字号比例，图片预览用作视觉缩放。
const (
	ZoomMin     = 50
	ZoomMax     = 200
	ZoomStep    = 25
	ZoomDefault = 100
)

// ZoomState 是预览会话的缩放状态，百分比表示，越界的调整会被钳制。
type ZoomState struct {
	Level int `json:"level"`
}

// NewZoomState 返回默认 100% 的缩放状态。
func NewZoomState() ZoomState {
	return ZoomState{Level: ZoomDefault}
}

// In 放大一步。
func (z ZoomState) In() ZoomState {
	return z.clamp(z.Level + ZoomStep)
}

// Out 缩小一步。
func (z ZoomState) Out() ZoomState {
	return z.clamp(z.Level - ZoomStep)
}

// Reset 回到 100%。
func (z ZoomState) Reset() ZoomState {
	return ZoomState{Level: ZoomDefault}
}

func (z ZoomState) clamp(level int) ZoomState {
	if level < ZoomMin {
		level = ZoomMin
	}
	if level > ZoomMax {
		level = ZoomMax
	}
	return ZoomState{Level: level}
}
