// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Tika          TikaConfig          `mapstructure:"tika"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AI            AIConfig            `mapstructure:"ai"`
	Streaming     StreamingConfig     `mapstructure:"streaming"`
	Preview       PreviewConfig       `mapstructure:"preview"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
	RefreshTokenExpireDays int    `mapstructure:"refresh_token_expire_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
// Areas 将逻辑存储区名称（documents、reports、deck-files）映射到实际的 bucket 名。
type MinIOConfig struct {
	Endpoint        string            `mapstructure:"endpoint"`
	AccessKeyID     string            `mapstructure:"access_key_id"`
	SecretAccessKey string            `mapstructure:"secret_access_key"`
	UseSSL          bool              `mapstructure:"use_ssl"`
	Areas           map[string]string `mapstructure:"areas"`
}

// AIConfig 存储外部 AI 管道 webhook 的配置。
// 聊天补全与文档摘要都委托给该服务，本应用不做任何推理。
type AIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ChatPath     string `mapstructure:"chat_path"`
	SummaryPath  string `mapstructure:"summary_path"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// StreamingConfig 控制助手消息模拟流式展示的节奏。
type StreamingConfig struct {
	IntervalMs int `mapstructure:"interval_ms"`
	ChunkSize  int `mapstructure:"chunk_size"`
}

// PreviewConfig 控制文档预览的行为。
// Areas 是按顺序尝试的存储区名称列表，第一个成功即停止。
type PreviewConfig struct {
	Areas   []string `mapstructure:"areas"`
	MaxRows int      `mapstructure:"max_rows"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	applyDefaults()
}

// applyDefaults 为缺省的可选配置项填充默认值。
func applyDefaults() {
	if Conf.Streaming.IntervalMs <= 0 {
		Conf.Streaming.IntervalMs = 40
	}
	if Conf.Streaming.ChunkSize <= 0 {
		Conf.Streaming.ChunkSize = 4
	}
	if Conf.Preview.MaxRows <= 0 {
		Conf.Preview.MaxRows = 100
	}
	if len(Conf.Preview.Areas) == 0 {
		Conf.Preview.Areas = []string{"documents", "reports", "deck-files"}
	}
}
