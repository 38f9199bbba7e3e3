// Package service 包含了应用的业务逻辑层。
package service

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ObjectURLPrefix 是本进程内 blob URL 的统一路径前缀，由 blob handler 提供服务。
const ObjectURLPrefix = "/api/v1/blobs/"

// objectBlob 是一段登记在册的内存字节。
type objectBlob struct {
	data        []byte
	contentType string
}

// ObjectURLRegistry 管理进程级的可撤销 blob URL。
// 预览器为 PDF/图片生成的字节登记在这里，得到一个可作为渲染源的本地 URL；
// 预览关闭或切换文档时必须撤销，否则字节会一直留在内存里。
type ObjectURLRegistry struct {
	mu    sync.Mutex
	blobs map[string]objectBlob
}

// NewObjectURLRegistry 创建一个新的 ObjectURLRegistry。
func NewObjectURLRegistry() *ObjectURLRegistry {
	return &ObjectURLRegistry{blobs: make(map[string]objectBlob)}
}

// Create 登记一段字节并返回其本地 URL。
func (r *ObjectURLRegistry) Create(data []byte, contentType string) string {
	token := uuid.NewString()
	r.mu.Lock()
	r.blobs[token] = objectBlob{data: data, contentType: contentType}
	r.mu.Unlock()
	return ObjectURLPrefix + token
}

// Resolve 根据 URL 取出字节与内容类型，URL 已撤销时 ok 为 false。
func (r *ObjectURLRegistry) Resolve(objectURL string) (data []byte, contentType string, ok bool) {
	token := strings.TrimPrefix(objectURL, ObjectURLPrefix)
	r.mu.Lock()
	blob, ok := r.blobs[token]
	r.mu.Unlock()
	return blob.data, blob.contentType, ok
}

// Revoke 撤销一个 URL 并释放其字节。
// 返回值表示本次调用是否真正执行了撤销；重复撤销是安全的空操作。
func (r *ObjectURLRegistry) Revoke(objectURL string) bool {
	token := strings.TrimPrefix(objectURL, ObjectURLPrefix)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[token]; !ok {
		return false
	}
	delete(r.blobs, token)
	return true
}

// Len 返回当前在册的 blob 数量。
func (r *ObjectURLRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}
