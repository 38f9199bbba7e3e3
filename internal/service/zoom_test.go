package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoomState_StepAndClamp(t *testing.T) {
	z := NewZoomState()
	assert.Equal(t, 100, z.Level)

	assert.Equal(t, 125, z.In().Level)
	assert.Equal(t, 75, z.Out().Out().Level)

	// 连续放大到上限后保持不变
	for i := 0; i < 10; i++ {
		z = z.In()
	}
	assert.Equal(t, ZoomMax, z.Level)
	assert.Equal(t, ZoomMax, z.In().Level)

	// 连续缩小到下限后保持不变
	for i := 0; i < 20; i++ {
		z = z.Out()
	}
	assert.Equal(t, ZoomMin, z.Level)
	assert.Equal(t, ZoomMin, z.Out().Level)

	assert.Equal(t, ZoomDefault, z.Reset().Level)
}
