// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"time"

	"angeldesk-go/pkg/storage"
)

// minioAreaFetcher 把 AreaFetcher 接到 MinIO 存储层上。
type minioAreaFetcher struct{}

// NewMinioAreaFetcher 返回基于 MinIO 的 AreaFetcher 实现。
func NewMinioAreaFetcher() AreaFetcher {
	return minioAreaFetcher{}
}

func (minioAreaFetcher) FetchBytes(ctx context.Context, area, objectName string) ([]byte, error) {
	return storage.FetchBytes(ctx, area, objectName)
}

func (minioAreaFetcher) Stat(ctx context.Context, area, objectName string) error {
	return storage.StatObject(ctx, area, objectName)
}

func (minioAreaFetcher) PresignedURL(area, objectName string, expiry time.Duration) (string, error) {
	return storage.GetPresignedURL(area, objectName, expiry)
}
