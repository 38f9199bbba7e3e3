// Package database 持有 MySQL 和 Redis 的全局连接。
package database

import (
	"context"

	"angeldesk-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// RDB 是全局的 Redis 客户端，对话历史和 token 黑名单都走它。
var RDB *redis.Client

// InitRedis 建立 Redis 连接并做一次 ping 校验，失败直接退出进程。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("连接 Redis 失败", err)
	}

	log.Info("Redis 客户端连接成功")
}
