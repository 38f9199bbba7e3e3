package database

import (
	"time"

	"angeldesk-go/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// DB 是全局的 GORM 实例，Init 后各 repository 直接使用。
var DB *gorm.DB

// InitMySQL 建立 MySQL 连接并设置连接池参数，失败直接退出进程。
func InitMySQL(dsn string) {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("连接 MySQL 数据库失败", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("获取底层 sql.DB 失败", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("MySQL 数据库连接成功")
}
