package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURLRegistry_CreateResolve(t *testing.T) {
	registry := NewObjectURLRegistry()

	url := registry.Create([]byte("blob-a"), "image/png")
	require.True(t, strings.HasPrefix(url, ObjectURLPrefix))

	data, contentType, ok := registry.Resolve(url)
	require.True(t, ok)
	assert.Equal(t, []byte("blob-a"), data)
	assert.Equal(t, "image/png", contentType)

	// 每次创建都是独立令牌
	other := registry.Create([]byte("blob-b"), "application/pdf")
	assert.NotEqual(t, url, other)
	assert.Equal(t, 2, registry.Len())
}

func TestObjectURLRegistry_RevokeExactlyOnce(t *testing.T) {
	registry := NewObjectURLRegistry()
	url := registry.Create([]byte("blob"), "application/pdf")

	assert.True(t, registry.Revoke(url))
	_, _, ok := registry.Resolve(url)
	assert.False(t, ok)

	// 重复撤销必须是无害的 no-op
	assert.False(t, registry.Revoke(url))
	assert.False(t, registry.Revoke("/api/v1/blobs/never-issued"))
	assert.Equal(t, 0, registry.Len())
}
