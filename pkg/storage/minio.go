// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
// 应用的文件分散在多个命名存储区（documents、reports、deck-files），
// 每个存储区对应一个独立的 bucket。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"angeldesk-go/internal/config"
	"angeldesk-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

// areaBuckets 保存逻辑存储区名称到 bucket 名称的映射。
var areaBuckets map[string]string

// InitMinIO 初始化 MinIO 客户端并确保所有配置的存储区 bucket 存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}

	log.Info("MinIO 客户端初始化成功")

	areaBuckets = cfg.Areas

	ctx := context.Background()
	for area, bucket := range cfg.Areas {
		exists, err := MinioClient.BucketExists(ctx, bucket)
		if err != nil {
			log.Fatal(fmt.Sprintf("检查 MinIO 存储桶 '%s' 失败", bucket), err)
		}
		if !exists {
			log.Infof("存储区 '%s' 的存储桶 '%s' 不存在，正在创建...", area, bucket)
			if err := MinioClient.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
				log.Fatal(fmt.Sprintf("创建 MinIO 存储桶 '%s' 失败", bucket), err)
			}
		}
	}
}

// BucketForArea 返回逻辑存储区对应的 bucket 名称。
func BucketForArea(area string) (string, error) {
	bucket, ok := areaBuckets[area]
	if !ok {
		return "", fmt.Errorf("未配置的存储区: %s", area)
	}
	return bucket, nil
}

// FetchBytes 从指定存储区下载对象的完整内容。
func FetchBytes(ctx context.Context, area, objectName string) ([]byte, error) {
	bucket, err := BucketForArea(area)
	if err != nil {
		return nil, err
	}
	obj, err := MinioClient.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 '%s/%s' 失败: %w", area, objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 '%s/%s' 失败: %w", area, objectName, err)
	}
	return data, nil
}

// PutBytes 将字节内容上传到指定存储区。
func PutBytes(ctx context.Context, area, objectName string, data []byte, contentType string) error {
	bucket, err := BucketForArea(area)
	if err != nil {
		return err
	}
	_, err = MinioClient.PutObject(ctx, bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("上传对象 '%s/%s' 失败: %w", area, objectName, err)
	}
	return nil
}

// StatObject 检查对象是否存在于指定存储区，只取元数据不下载内容。
func StatObject(ctx context.Context, area, objectName string) error {
	bucket, err := BucketForArea(area)
	if err != nil {
		return err
	}
	if _, err := MinioClient.StatObject(ctx, bucket, objectName, minio.StatObjectOptions{}); err != nil {
		return fmt.Errorf("查询对象 '%s/%s' 失败: %w", area, objectName, err)
	}
	return nil
}

// RemoveObject 删除指定存储区中的对象。
func RemoveObject(ctx context.Context, area, objectName string) error {
	bucket, err := BucketForArea(area)
	if err != nil {
		return err
	}
	return MinioClient.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{})
}

// GetPresignedURL 为指定存储区中的对象生成临时下载链接。
func GetPresignedURL(area, objectName string, expiry time.Duration) (string, error) {
	bucket, err := BucketForArea(area)
	if err != nil {
		return "", err
	}
	presignedURL, err := MinioClient.PresignedGetObject(context.Background(), bucket, objectName, expiry, url.Values{})
	if err != nil {
		log.Errorf("生成预签名 URL 失败: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}
