/*
 * @Description: 统一配置管理，go-ini 读文件，环境变量覆盖
 * @Author: 安知鱼
 * @Date: 2025-10-14 09:42:04
 * @LastEditTime: 2025-10-22 18:50:56
 * @LastEditors: 安知鱼
 */

// Package config 统一配置管理：go-ini 读取配置文件作为基础值，环境变量覆盖，最终存入 viper
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// DefaultConfigPath 默认配置文件路径
const DefaultConfigPath = "data/conf.ini"

// EnvPrefix 环境变量前缀，例如 ANHEYU_STATS_REDIS_ADDR
const EnvPrefix = "ANHEYU_STATS"

const (
	KeySystemDebug        = "System.Debug"
	KeySchedulerInterval  = "Scheduler.Interval"
	KeySchedulerTopN      = "Scheduler.TopN"
	KeySchedulerSortKey   = "Scheduler.SortKey"
	KeyIngestSource       = "Ingest.Source"
	KeyIngestChannel      = "Ingest.Channel"
	KeyIngestWorkers      = "Ingest.Workers"
	KeyIngestQueueSize    = "Ingest.QueueSize"
	KeyIngestDropWhenFull = "Ingest.DropWhenFull"
	KeyRedisAddr          = "Redis.Addr"
	KeyRedisPassword      = "Redis.Password"
	KeyRedisDB            = "Redis.DB"
	KeySinkKeyPrefix      = "Sink.KeyPrefix"
)

// 定义所有已知的配置键
var allKeys = []string{
	KeySystemDebug,
	KeySchedulerInterval, KeySchedulerTopN, KeySchedulerSortKey,
	KeyIngestSource, KeyIngestChannel, KeyIngestWorkers, KeyIngestQueueSize, KeyIngestDropWhenFull,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeySinkKeyPrefix,
}

// 内部默认值，配置文件与环境变量都未提供时生效
var defaults = map[string]any{
	KeySystemDebug:        false,
	KeySchedulerInterval:  60,
	KeySchedulerTopN:      10,
	KeySchedulerSortKey:   "views",
	KeyIngestSource:       "stdin",
	KeyIngestChannel:      "anheyu:stats:events",
	KeyIngestWorkers:      4,
	KeyIngestQueueSize:    1024,
	KeyIngestDropWhenFull: false,
	KeyRedisDB:            0,
	KeySinkKeyPrefix:      "anheyu:stats:",
}

type Config struct {
	vp *viper.Viper
}

// NewConfig 从默认路径加载配置
func NewConfig() (*Config, error) {
	return NewConfigWithPath(DefaultConfigPath)
}

// NewConfigWithPath 手动加载配置：文件不存在时创建默认配置文件，格式错误时返回错误
func NewConfigWithPath(filePath string) (*Config, error) {
	vp := viper.New()
	for key, value := range defaults {
		vp.SetDefault(key, value)
	}

	// --- 步骤 1: 使用 go-ini 从文件加载配置 ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
		log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
		if err := createDefaultConfigFile(filePath); err != nil {
			log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
		} else {
			log.Printf("✅ 已创建默认配置文件: %s", filePath)
			iniCfg, err = ini.Load(filePath)
			if err != nil {
				log.Printf("警告: 重新加载配置文件失败: %v", err)
			}
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == ini.DefaultSection {
					viperKey = key.Name()
				}
				// 空值视为未配置，保留内部默认值
				if strings.TrimSpace(key.Value()) == "" {
					continue
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Printf("从 %s 文件加载了配置。", filePath)
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	for _, key := range allKeys {
		envVarName := fmt.Sprintf("%s_%s", EnvPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// SchedulerInterval 快照导出间隔，非正数时回落到 60 秒
func (c *Config) SchedulerInterval() time.Duration {
	seconds := c.GetInt(KeySchedulerInterval)
	if seconds <= 0 {
		seconds = defaults[KeySchedulerInterval].(int)
	}
	return time.Duration(seconds) * time.Second
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Debug = false

# 快照导出：间隔单位为秒，SortKey 可选 views / downloads / purchases / revenue
[Scheduler]
Interval = 60
TopN = 10
SortKey = views

# 事件来源：stdin（每行一个 JSON 事件）、redis（订阅 Channel）或 none
[Ingest]
Source = stdin
Channel = anheyu:stats:events
Workers = 4
QueueSize = 1024
# 队列满时丢弃事件而不是阻塞来源（丢弃数在停止时输出）
DropWhenFull = false

# Redis 配置（可选）
# 如果不配置或留空 Addr，快照只保存在内存中，且无法使用 redis 事件来源
[Redis]
Addr =
Password =
DB = 0

[Sink]
KeyPrefix = anheyu:stats:
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
