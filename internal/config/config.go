package config

import (
	"github.com/blues/exposure/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 内置台账配置
type ChainConfig struct {
	Governance         string `mapstructure:"governance"`           // 治理账户地址
	FeeRecipient       string `mapstructure:"fee_recipient"`        // 手续费接收人地址
	FeeBps             uint64 `mapstructure:"fee_bps"`              // 协议手续费（万分比）
	DecayHorizonBlocks uint64 `mapstructure:"decay_horizon_blocks"` // 买断价衰减区块数
	BlockIntervalSecs  int    `mapstructure:"block_interval_secs"`  // 出块间隔（秒）
	StartBlock         uint64 `mapstructure:"start_block"`          // 台账起始高度
	Implementation     string `mapstructure:"implementation"`       // 初始实现模板地址
}

type SchedulerConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/exposure")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "exposure")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.governance", "0x0000000000000000000000000000000000000001")
	viper.SetDefault("chain.fee_recipient", "0x0000000000000000000000000000000000000002")
	viper.SetDefault("chain.fee_bps", 100)
	viper.SetDefault("chain.decay_horizon_blocks", 100000)
	viper.SetDefault("chain.block_interval_secs", 2)
	viper.SetDefault("chain.start_block", 1)
	viper.SetDefault("chain.implementation", "0x0000000000000000000000000000000000000e0e")
	viper.SetDefault("scheduler.interval", 30)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
